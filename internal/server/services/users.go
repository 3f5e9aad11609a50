package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/cryptox"
	"github.com/dmitrijs2005/strongholder/internal/dbx"
	"github.com/dmitrijs2005/strongholder/internal/logging"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"github.com/dmitrijs2005/strongholder/internal/server/borg"
	"github.com/dmitrijs2005/strongholder/internal/server/models"
	"github.com/dmitrijs2005/strongholder/internal/server/policy"
	"github.com/dmitrijs2005/strongholder/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// MaxWrappedKeySize is the largest hex envelope the credential store holds.
const MaxWrappedKeySize = 2048

// Login is a username/password pair as submitted by a client.
type Login struct {
	Username string
	Password string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	kdf         *cryptox.KDF
	tokens      *auth.TokenManager
	borg        *borg.Client
	scheme      int
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, kdf *cryptox.KDF, tokens *auth.TokenManager,
	b *borg.Client, scheme int, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		kdf:         kdf,
		tokens:      tokens,
		borg:        b,
		scheme:      scheme,
		logger:      logger.With("module", "user_service"),
	}
}

func newUserID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Signup creates the account and its backup repository and returns a
// session token. The repository key only ever reaches the database wrapped
// with the key derived from the password.
func (s *UserService) Signup(ctx context.Context, login Login) (string, error) {
	repo := s.repomanager.Credentials(s.db)

	exists, err := repo.ExistsByUsername(ctx, login.Username)
	if err != nil {
		return "", fmt.Errorf("error checking user: %w", err)
	}
	if exists {
		return "", common.ErrAlreadyExists
	}

	if err := policy.ValidateSignup(login.Username, login.Password); err != nil {
		return "", err
	}

	key, err := s.kdf.Derive(ctx, []byte(login.Password), []byte(login.Username))
	if err != nil {
		return "", err
	}
	defer cryptox.Wipe(key)

	id := newUserID()
	keys, err := s.borg.CreateUser(ctx, id, s.scheme == models.SchemeSplit)
	if err != nil {
		s.logger.Error(ctx, "repository provisioning failed", "user_id", id, "error", err)
		return "", err
	}
	defer keys.Wipe()

	cred := &models.Credential{ID: id, UserName: login.Username, Scheme: s.scheme}
	if cred.WrappedKey, err = s.wrap(key, keys.Server); err != nil {
		return "", err
	}
	if s.scheme == models.SchemeSplit {
		clientKey, err := s.wrap(key, keys.Client)
		if err != nil {
			return "", err
		}
		cred.WrappedClientKey = sql.NullString{String: clientKey, Valid: true}
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Credentials(tx)
		exists, err := repo.ExistsByUsername(ctx, login.Username)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrAlreadyExists
		}
		_, err = repo.Create(ctx, cred)
		return err
	})
	if err != nil {
		if !errors.Is(err, common.ErrAlreadyExists) {
			err = fmt.Errorf("error creating user: %w", err)
		}
		s.logger.Error(ctx, "credential not stored, repository is orphaned", "user_id", id, "error", err)
		return "", err
	}

	s.logger.Info(ctx, "user signed up", "user_id", id, "scheme", s.scheme)
	return s.tokens.Issue(id, hex.EncodeToString(key))
}

func (s *UserService) wrap(key, secret []byte) (string, error) {
	wrapped, err := cryptox.WrapHex(key, secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrKdf, err)
	}
	if len(wrapped) > MaxWrappedKeySize {
		return "", fmt.Errorf("%w: wrapped key is %d bytes", common.ErrKdf, len(wrapped))
	}
	return wrapped, nil
}

// Signin proves the password by unwrapping the stored key and returns a
// fresh session token.
func (s *UserService) Signin(ctx context.Context, login Login) (string, error) {
	repo := s.repomanager.Credentials(s.db)

	cred, err := repo.FindByUsername(ctx, login.Username)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return "", common.ErrNotSignup
		case errors.Is(err, common.ErrStorageIntegrity):
			s.logger.Error(ctx, "several credentials share one username", "username", login.Username)
			return "", err
		}
		return "", fmt.Errorf("error searching user: %w", err)
	}

	key, err := s.kdf.Derive(ctx, []byte(login.Password), []byte(login.Username))
	if err != nil {
		return "", err
	}
	defer cryptox.Wipe(key)
	keyHex := hex.EncodeToString(key)

	secret, err := cryptox.UnwrapHex(keyHex, cred.WrappedKey)
	if err != nil {
		return "", common.ErrAuthFailure
	}
	cryptox.Wipe(secret)

	return s.tokens.Issue(cred.ID, keyHex)
}

// VerifyToken checks a session token, returning a replacement when it is
// close to expiry.
func (s *UserService) VerifyToken(token string) (*auth.Verification, error) {
	return s.tokens.Verify(token)
}
