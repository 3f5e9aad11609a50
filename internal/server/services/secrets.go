package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/cryptox"
	"github.com/dmitrijs2005/strongholder/internal/logging"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"github.com/dmitrijs2005/strongholder/internal/server/models"
	"github.com/dmitrijs2005/strongholder/internal/server/remote"
	"github.com/dmitrijs2005/strongholder/internal/server/repositories/repomanager"
)

// DefaultCleanupTimeout bounds the shred that follows every remote operation.
const DefaultCleanupTimeout = 30 * time.Second

// SecretService places a user's repository key on the backup host for the
// duration of one operation.
type SecretService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	ch             remote.Channel
	layout         remote.Layout
	opTimeout      time.Duration
	cleanupTimeout time.Duration
	locks          *keyedMutex
	logger         logging.Logger
}

func NewSecretService(db *sql.DB, m repomanager.RepositoryManager, ch remote.Channel, layout remote.Layout,
	opTimeout time.Duration, logger logging.Logger) *SecretService {
	return &SecretService{
		db:             db,
		repomanager:    m,
		ch:             ch,
		layout:         layout,
		opTimeout:      opTimeout,
		cleanupTimeout: DefaultCleanupTimeout,
		locks:          newKeyedMutex(),
		logger:         logger.With("module", "secret_service"),
	}
}

func (s *SecretService) credential(ctx context.Context, id string) (*models.Credential, error) {
	cred, err := s.repomanager.Credentials(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotSignup
		}
		return nil, fmt.Errorf("error loading credential: %w", err)
	}
	return cred, nil
}

// WithRemoteSecret unwraps the repository key of creds.SubjectID, writes it
// to the key path on the backup host, runs op and shreds the key file.
//
// Operations for one user never overlap. op runs under the operation
// timeout. The shred always runs, on a context detached from ctx, and its
// failure is returned only when op itself succeeded.
func (s *SecretService) WithRemoteSecret(ctx context.Context, creds auth.SessionCredentials, op func(ctx context.Context) error) (err error) {
	id := creds.SubjectID

	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("waiting for user lock: %w", err)
	}
	defer unlock()

	cred, err := s.credential(ctx, id)
	if err != nil {
		return err
	}

	key, err := cryptox.UnwrapHex(creds.KeyHex, cred.WrappedKey)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(key)

	path := s.layout.KeyFile(id)
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
		defer cancel()
		if serr := s.ch.ShredFile(cctx, path); serr != nil {
			s.logger.Error(ctx, "failed to shred repository key", "user_id", id, "error", serr)
			if err == nil {
				err = serr
			}
		}
	}()

	if err := s.ch.WriteFile(ctx, path, key); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return op(opCtx)
}

// RepositoryKey returns the key a client needs to open its own repository:
// the client half for split-scheme accounts, the whole key otherwise.
func (s *SecretService) RepositoryKey(ctx context.Context, creds auth.SessionCredentials) ([]byte, error) {
	cred, err := s.credential(ctx, creds.SubjectID)
	if err != nil {
		return nil, err
	}

	wrapped := cred.WrappedKey
	if cred.Scheme == models.SchemeSplit {
		if !cred.WrappedClientKey.Valid {
			s.logger.Error(ctx, "split-scheme credential without client key", "user_id", cred.ID)
			return nil, common.ErrStorageIntegrity
		}
		wrapped = cred.WrappedClientKey.String
	}
	return cryptox.UnwrapHex(creds.KeyHex, wrapped)
}
