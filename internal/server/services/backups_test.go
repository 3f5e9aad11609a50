package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"github.com/dmitrijs2005/strongholder/internal/server/models"
	"github.com/dmitrijs2005/strongholder/internal/server/remote/remotetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	key  string
	body []byte
	size int64
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, key string, body io.Reader, size int64) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	p.key, p.body, p.size = key, b, size
	return "https://s3.local/" + key + "?X-Amz-Signature=x", nil
}

func newBackupFixture(t *testing.T, pub Publisher) (*fixture, *BackupService, auth.SessionCredentials) {
	t.Helper()
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")
	return f, NewBackupService(f.secrets, f.borg, f.ch, pub, nopLogger{}), creds
}

// requireKey fails the handler when the repository key is not in place.
func requireKey(t *testing.T, id string) func(ch *remotetest.Channel) {
	return func(ch *remotetest.Channel) {
		key, ok := ch.Get(testLayout.KeyFile(id))
		require.True(t, ok, "repository key must be present while borg runs")
		require.Equal(t, masterKey, key)
	}
}

func TestBackup_ListArchives(t *testing.T) {
	f, svc, creds := newBackupFixture(t, nil)
	check := requireKey(t, creds.SubjectID)
	f.ch.Handle("list.sh", func(ch *remotetest.Channel, args []string) (string, int, error) {
		check(ch)
		return `{"archives":[{"archive":"2026-01-01_10-00-00","time":"2026-01-01T09:00:00.000000"}]}`, 0, nil
	})

	archives, err := svc.ListArchives(context.Background(), creds)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, "2026-01-01_10-00-00", archives[0].Name)
	assert.False(t, f.ch.Has(testLayout.KeyFile(creds.SubjectID)))
}

func TestBackup_ListArchiveContent_InvalidNameSkipsBracket(t *testing.T) {
	f, svc, creds := newBackupFixture(t, nil)
	before := len(f.ch.Shredded())

	_, err := svc.ListArchiveContent(context.Background(), creds, "$(reboot)")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Len(t, f.ch.Shredded(), before)
}

func TestBackup_ListArchiveContent(t *testing.T) {
	f, svc, creds := newBackupFixture(t, nil)
	check := requireKey(t, creds.SubjectID)
	f.ch.Handle("list.sh", func(ch *remotetest.Channel, args []string) (string, int, error) {
		check(ch)
		require.Equal(t, []string{creds.SubjectID, "a1"}, args)
		return `{"type":"-","path":"etc/hosts","mtime":"t","size":10}`, 0, nil
	})

	files, err := svc.ListArchiveContent(context.Background(), creds, "a1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "etc/hosts", files[0].Path)
}

func TestBackup_Logs(t *testing.T) {
	f, svc, creds := newBackupFixture(t, nil)
	id := creds.SubjectID
	logName := "b_logs_" + id + ".log"
	f.ch.Handle("list.sh", func(_ *remotetest.Channel, args []string) (string, int, error) {
		if len(args) == 1 {
			return `{"archives":[{"archive":"b","time":"t"},{"archive":"b_logs","time":"t"}]}`, 0, nil
		}
		return `{"type":"-","path":"logs/` + logName + `","mtime":"t","size":3}`, 0, nil
	})
	f.ch.Handle("restore.sh", func(ch *remotetest.Channel, args []string) (string, int, error) {
		ch.Put(testLayout.RestoredLog(id, "b_logs"), []byte("ok\n"))
		return "", 0, nil
	})

	logs, err := svc.Logs(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok\n"}, logs)
}

func TestBackup_Restore(t *testing.T) {
	pub := &fakePublisher{}
	f, svc, creds := newBackupFixture(t, pub)
	id := creds.SubjectID
	check := requireKey(t, id)
	f.ch.Handle("restore.sh", func(ch *remotetest.Channel, args []string) (string, int, error) {
		check(ch)
		require.Equal(t, []string{id, "a1"}, args)
		ch.Put(testLayout.RestoreArchive(id, "a1"), []byte("tarball"))
		return "", 0, nil
	})

	url, err := svc.Restore(context.Background(), creds, "a1")
	require.NoError(t, err)
	assert.Contains(t, url, "restores/"+id+"/")
	assert.Equal(t, []byte("tarball"), pub.body)
	assert.Equal(t, int64(7), pub.size)
	assert.False(t, f.ch.Has(testLayout.RestoreArchive(id, "a1")))
	assert.False(t, f.ch.Has(testLayout.KeyFile(id)))
}

func TestBackup_Restore_PublishFailureRemovesArtifact(t *testing.T) {
	pub := &fakePublisher{err: errors.Join(common.ErrExport, errors.New("bucket missing"))}
	f, svc, creds := newBackupFixture(t, pub)
	id := creds.SubjectID
	f.ch.Handle("restore.sh", func(ch *remotetest.Channel, args []string) (string, int, error) {
		ch.Put(testLayout.RestoreArchive(id, "a1"), []byte("tarball"))
		return "", 0, nil
	})

	_, err := svc.Restore(context.Background(), creds, "a1")
	assert.ErrorIs(t, err, common.ErrExport)
	assert.False(t, f.ch.Has(testLayout.RestoreArchive(id, "a1")))
}

func TestBackup_Restore_NoStore(t *testing.T) {
	_, svc, creds := newBackupFixture(t, nil)
	_, err := svc.Restore(context.Background(), creds, "a1")
	assert.ErrorIs(t, err, common.ErrExport)
}

func TestBackup_ServerPublicKey(t *testing.T) {
	f, svc, _ := newBackupFixture(t, nil)
	f.ch.Handle("cat", func(*remotetest.Channel, []string) (string, int, error) {
		return "ssh-ed25519 AAAA host\n", 0, nil
	})

	key, err := svc.ServerPublicKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519 AAAA host", key)
}

func TestBackup_SendSSHKey(t *testing.T) {
	f, svc, creds := newBackupFixture(t, nil)
	var gotArgs []string
	f.ch.Handle("install_client_key.sh", func(_ *remotetest.Channel, args []string) (string, int, error) {
		gotArgs = args
		return "", 0, nil
	})

	require.NoError(t, svc.SendSSHKey(context.Background(), creds, []byte("ssh-ed25519 AAAA me")))
	assert.Equal(t, []string{creds.SubjectID, testLayout.UploadedPublicKey(creds.SubjectID)}, gotArgs)
}

func TestBackup_RepositoryKey(t *testing.T) {
	_, svc, creds := newBackupFixture(t, nil)
	key, err := svc.RepositoryKey(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, masterKey, key)
}
