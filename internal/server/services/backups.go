package services

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/logging"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"github.com/dmitrijs2005/strongholder/internal/server/borg"
	"github.com/dmitrijs2005/strongholder/internal/server/objectstore"
	"github.com/dmitrijs2005/strongholder/internal/server/remote"
)

// Publisher stores an export and returns a temporary download link.
type Publisher interface {
	Publish(ctx context.Context, key string, body io.Reader, size int64) (string, error)
}

// BackupService exposes repository operations to authenticated users.
type BackupService struct {
	secrets *SecretService
	borg    *borg.Client
	ch      remote.Channel
	store   Publisher
	logger  logging.Logger
}

func NewBackupService(secrets *SecretService, b *borg.Client, ch remote.Channel, store Publisher, logger logging.Logger) *BackupService {
	return &BackupService{
		secrets: secrets,
		borg:    b,
		ch:      ch,
		store:   store,
		logger:  logger.With("module", "backup_service"),
	}
}

func (s *BackupService) ListArchives(ctx context.Context, creds auth.SessionCredentials) ([]borg.Archive, error) {
	var archives []borg.Archive
	err := s.secrets.WithRemoteSecret(ctx, creds, func(ctx context.Context) error {
		var err error
		archives, err = s.borg.ListArchives(ctx, creds.SubjectID)
		return err
	})
	return archives, err
}

func (s *BackupService) ListArchiveContent(ctx context.Context, creds auth.SessionCredentials, archive string) ([]borg.ArchiveFile, error) {
	if err := borg.ValidateArchiveName(archive); err != nil {
		return nil, err
	}

	var files []borg.ArchiveFile
	err := s.secrets.WithRemoteSecret(ctx, creds, func(ctx context.Context) error {
		var err error
		files, err = s.borg.ListArchiveContent(ctx, creds.SubjectID, archive)
		return err
	})
	return files, err
}

// Logs returns the client-side backup logs kept in the user's repository.
func (s *BackupService) Logs(ctx context.Context, creds auth.SessionCredentials) ([]string, error) {
	var logs []string
	err := s.secrets.WithRemoteSecret(ctx, creds, func(ctx context.Context) error {
		var err error
		logs, err = s.borg.Logs(ctx, creds.SubjectID)
		return err
	})
	return logs, err
}

// Restore extracts archive on the backup host, moves the tarball to object
// storage and returns a temporary download link. The key is only exposed
// while borg extracts; the upload runs after it is shredded.
func (s *BackupService) Restore(ctx context.Context, creds auth.SessionCredentials, archive string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("%w: object storage is not configured", common.ErrExport)
	}
	if err := borg.ValidateArchiveName(archive); err != nil {
		return "", err
	}

	id := creds.SubjectID
	err := s.secrets.WithRemoteSecret(ctx, creds, func(ctx context.Context) error {
		return s.borg.Restore(ctx, id, archive)
	})
	if err != nil {
		return "", err
	}

	path := s.borg.Layout().RestoreArchive(id, archive)
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultCleanupTimeout)
		defer cancel()
		if err := s.ch.DeleteFile(cctx, path); err != nil {
			s.logger.Warn(ctx, "failed to remove restored archive", "user_id", id, "archive", archive, "error", err)
		}
	}()

	rc, size, err := s.ch.OpenFile(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	url, err := s.store.Publish(ctx, objectstore.RestoreKey(id), rc, size)
	if err != nil {
		s.logger.Error(ctx, "restore export failed", "user_id", id, "archive", archive, "error", err)
		return "", err
	}
	s.logger.Info(ctx, "restore exported", "user_id", id, "archive", archive, "size", size)
	return url, nil
}

// RepositoryKey returns the key the client uses for its own borg runs.
func (s *BackupService) RepositoryKey(ctx context.Context, creds auth.SessionCredentials) ([]byte, error) {
	return s.secrets.RepositoryKey(ctx, creds)
}

// ServerPublicKey returns the key clients must trust for pushes from the
// backup host. No authentication is needed.
func (s *BackupService) ServerPublicKey(ctx context.Context) (string, error) {
	return s.borg.ServerPublicKey(ctx)
}

// SendSSHKey authorizes pubKey to push to the repository of the caller.
func (s *BackupService) SendSSHKey(ctx context.Context, creds auth.SessionCredentials, pubKey []byte) error {
	return s.borg.InstallClientKey(ctx, creds.SubjectID, pubKey)
}
