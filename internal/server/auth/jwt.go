// Package auth issues and verifies the session tokens handed to clients
// after signup or signin.
//
// A token is an HS384 JWT carrying the user id and the hex-encoded derived
// key. The key has to travel with the session so that later requests can
// unwrap the stored repository key without the password.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload: registered claims plus the derived key.
type Claims struct {
	jwt.RegisteredClaims
	KDF string `json:"kdf"`
}

// SessionCredentials is what a verified token proves.
type SessionCredentials struct {
	SubjectID string
	ExpiresAt time.Time
	KeyHex    string
}

// TokenState tells the caller whether a verified token should be replaced.
type TokenState int

const (
	// StateValid means the token is far enough from expiry to keep as is.
	StateValid TokenState = iota
	// StateRefresh means the token is inside the refresh window; a
	// replacement is returned in Verification.Token.
	StateRefresh
)

func (s TokenState) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateRefresh:
		return "refresh"
	}
	return fmt.Sprintf("TokenState(%d)", int(s))
}

// Verification is the result of a successful Verify.
type Verification struct {
	State       TokenState
	Credentials SessionCredentials
	// Token is the replacement token when State is StateRefresh, empty otherwise.
	Token string
}

// TokenManager signs and verifies session tokens with a server-held secret.
type TokenManager struct {
	secret        []byte
	ttl           time.Duration
	refreshWindow time.Duration
	now           func() time.Time
}

// NewTokenManager builds a TokenManager. refreshWindow must be shorter than ttl.
func NewTokenManager(secret []byte, ttl, refreshWindow time.Duration) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is empty")
	}
	if ttl <= 0 || refreshWindow < 0 || refreshWindow >= ttl {
		return nil, fmt.Errorf("auth: invalid token windows ttl=%s refresh=%s", ttl, refreshWindow)
	}
	return &TokenManager{
		secret:        append([]byte(nil), secret...),
		ttl:           ttl,
		refreshWindow: refreshWindow,
		now:           time.Now,
	}, nil
}

// Issue mints a token for subjectID and keyHex expiring TTL from now.
func (m *TokenManager) Issue(subjectID, keyHex string) (string, error) {
	now := m.now()
	return m.sign(subjectID, keyHex, now, now.Add(m.ttl))
}

func (m *TokenManager) sign(subjectID, keyHex string, issued, expires time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		KDF: keyHex,
	})

	s, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrEncodeToken, err)
	}
	return s, nil
}

// Verify checks signature and expiry of tokenString.
//
// Errors are common.ErrTokenMissing for an empty string, common.ErrTokenExpired
// once now >= exp, and common.ErrInvalidToken for everything else. Inside the
// refresh window a new token with a full TTL is returned alongside the
// credentials; the old token stays valid until its own expiry.
func (m *TokenManager) Verify(tokenString string) (*Verification, error) {
	if tokenString == "" {
		return nil, common.ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS384.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || claims.KDF == "" {
		return nil, common.ErrInvalidToken
	}

	creds := SessionCredentials{
		SubjectID: claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
		KeyHex:    claims.KDF,
	}

	now := m.now()
	if now.Before(creds.ExpiresAt.Add(-m.refreshWindow)) {
		return &Verification{State: StateValid, Credentials: creds}, nil
	}

	fresh, err := m.sign(creds.SubjectID, creds.KeyHex, now, now.Add(m.ttl))
	if err != nil {
		return nil, err
	}
	creds.ExpiresAt = now.Add(m.ttl).Truncate(time.Second)
	return &Verification{State: StateRefresh, Credentials: creds, Token: fresh}, nil
}
