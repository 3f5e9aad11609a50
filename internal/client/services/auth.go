// Package services contains application services for keeperctl.
// This file defines the authentication service: signup, signin, logout and
// the current session.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/strongholder/internal/client/client"
)

// Session describes who is signed in and until when.
type Session struct {
	Username  string
	UserID    string
	ExpiresAt time.Time
}

// AuthService defines authentication operations for the CLI.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Signup(ctx context.Context, username string, password []byte) error
	Signin(ctx context.Context, username string, password []byte) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) (*Session, error)
}

type authService struct {
	client client.Client
	store  *SessionStore
}

// NewAuthService constructs an AuthService bound to the given API client
// and session store. The client is expected to persist tokens into store.
func NewAuthService(c client.Client, store *SessionStore) AuthService {
	return &authService{client: c, store: store}
}

func (a *authService) Signup(ctx context.Context, username string, password []byte) error {
	if err := a.client.Signup(ctx, username, password); err != nil {
		return fmt.Errorf("signup error: %w", err)
	}
	return a.store.SaveUsername(ctx, username)
}

func (a *authService) Signin(ctx context.Context, username string, password []byte) error {
	if err := a.client.Signin(ctx, username, password); err != nil {
		return fmt.Errorf("signin error: %w", err)
	}
	return a.store.SaveUsername(ctx, username)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.store.ClearToken(ctx)
}

// Whoami asks the server about the stored token. client.ErrNotLoggedIn is
// returned when there is none.
func (a *authService) Whoami(ctx context.Context) (*Session, error) {
	token, err := a.store.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, client.ErrNotLoggedIn
	}

	info, err := a.client.Session(ctx)
	if err != nil {
		return nil, err
	}
	username, err := a.store.Username(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{Username: username, UserID: info.UserID, ExpiresAt: time.Unix(info.ExpiresAt, 0)}, nil
}
