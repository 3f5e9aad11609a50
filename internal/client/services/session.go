package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/strongholder/internal/client/client"
	"github.com/dmitrijs2005/strongholder/internal/client/repositories/metadata"
)

// SessionStore keeps the session token and the signed-in username in the
// local metadata table. It satisfies client.TokenStore.
type SessionStore struct {
	repo metadata.Repository
}

var _ client.TokenStore = (*SessionStore)(nil)

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{repo: metadata.NewSQLiteRepository(db)}
}

func (s *SessionStore) Token(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SessionStore) SaveToken(ctx context.Context, token string) error {
	return s.repo.Set(ctx, metadata.KeyAccessToken, []byte(token))
}

// ClearToken forgets the whole session, username included.
func (s *SessionStore) ClearToken(ctx context.Context) error {
	return s.repo.Delete(ctx, metadata.KeyAccessToken, metadata.KeyUsername)
}

func (s *SessionStore) Username(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, metadata.KeyUsername)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SessionStore) SaveUsername(ctx context.Context, username string) error {
	return s.repo.Set(ctx, metadata.KeyUsername, []byte(username))
}
