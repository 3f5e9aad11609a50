package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"github.com/dmitrijs2005/strongholder/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRemoteSecret_KeyPresentOnlyDuringOp(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")
	path := testLayout.KeyFile(creds.SubjectID)

	var seen []byte
	err := f.secrets.WithRemoteSecret(context.Background(), creds, func(ctx context.Context) error {
		seen, _ = f.ch.Get(path)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, masterKey, seen)
	assert.False(t, f.ch.Has(path))
}

func TestWithRemoteSecret_CleanupAfterFailedOp(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")
	path := testLayout.KeyFile(creds.SubjectID)

	opErr := errors.New("borg exploded")
	err := f.secrets.WithRemoteSecret(context.Background(), creds, func(context.Context) error {
		return opErr
	})
	assert.ErrorIs(t, err, opErr)
	assert.False(t, f.ch.Has(path))
}

func TestWithRemoteSecret_CleanupAfterPanickingCaller(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")

	assert.Panics(t, func() {
		_ = f.secrets.WithRemoteSecret(context.Background(), creds, func(context.Context) error {
			panic("boom")
		})
	})
	assert.False(t, f.ch.Has(testLayout.KeyFile(creds.SubjectID)))
	assert.Equal(t, 0, f.secrets.locks.size())
}

func TestWithRemoteSecret_ShredFailure(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")
	f.ch.ShredErr = common.ErrSsh

	err := f.secrets.WithRemoteSecret(context.Background(), creds, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, common.ErrSsh, "cleanup failure surfaces when the op succeeded")

	opErr := errors.New("op failed")
	err = f.secrets.WithRemoteSecret(context.Background(), creds, func(context.Context) error { return opErr })
	assert.ErrorIs(t, err, opErr, "op error wins over cleanup error")
	assert.NotErrorIs(t, err, common.ErrSsh)
}

func TestWithRemoteSecret_WrongKey(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")
	creds.KeyHex = strings.Repeat("0", len(creds.KeyHex))

	called := false
	err := f.secrets.WithRemoteSecret(context.Background(), creds, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, common.ErrAuthFailure)
	assert.False(t, called)
	assert.False(t, f.ch.Has(testLayout.KeyFile(creds.SubjectID)))
}

func TestWithRemoteSecret_UnknownUser(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)

	err := f.secrets.WithRemoteSecret(context.Background(),
		auth.SessionCredentials{SubjectID: "nobody", KeyHex: "00"},
		func(context.Context) error { return nil })
	assert.ErrorIs(t, err, common.ErrNotSignup)
}

func TestWithRemoteSecret_OperationTimeout(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")
	f.secrets.opTimeout = 20 * time.Millisecond

	err := f.secrets.WithRemoteSecret(context.Background(), creds, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.ch.Has(testLayout.KeyFile(creds.SubjectID)))
}

func TestWithRemoteSecret_CanceledCallerStillCleansUp(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	err := f.secrets.WithRemoteSecret(ctx, creds, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.ch.Has(testLayout.KeyFile(creds.SubjectID)))
}

func TestWithRemoteSecret_SerializedPerUser(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.secrets.WithRemoteSecret(context.Background(), creds, func(context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight)
	assert.Equal(t, 0, f.secrets.locks.size())
}

func TestWithRemoteSecret_DifferentUsersOverlap(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bobby")

	aliceIn := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.secrets.WithRemoteSecret(context.Background(), alice, func(context.Context) error {
			close(aliceIn)
			<-release
			return nil
		})
	}()
	<-aliceIn

	// bob is not blocked by alice
	err := f.secrets.WithRemoteSecret(context.Background(), bob, func(context.Context) error { return nil })
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestWithRemoteSecret_LockWaitHonoursContext(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	creds := f.signup(t, "alice")

	unlock, err := f.secrets.locks.Lock(context.Background(), creds.SubjectID)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	called := false
	err = f.secrets.WithRemoteSecret(ctx, creds, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestRepositoryKey(t *testing.T) {
	single := newFixture(t, models.SchemeSingle)
	creds := single.signup(t, "alice")
	key, err := single.secrets.RepositoryKey(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, masterKey, key)

	split := newFixture(t, models.SchemeSplit)
	creds = split.signup(t, "carol")
	key, err = split.secrets.RepositoryKey(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, clientKey, key)
}

func TestRepositoryKey_SplitWithoutClientKey(t *testing.T) {
	f := newFixture(t, models.SchemeSingle)
	f.repo.put(&models.Credential{ID: "x", UserName: "eve", Scheme: models.SchemeSplit, WrappedKey: "00"})

	_, err := f.secrets.RepositoryKey(context.Background(), auth.SessionCredentials{SubjectID: "x", KeyHex: "00"})
	assert.ErrorIs(t, err, common.ErrStorageIntegrity)
}

func TestKeyedMutex_ReleaseIsIdempotent(t *testing.T) {
	k := newKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
	unlock()
	assert.Equal(t, 0, k.size())

	unlock, err = k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
}
