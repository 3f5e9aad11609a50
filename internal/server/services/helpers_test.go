package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/cryptox"
	"github.com/dmitrijs2005/strongholder/internal/dbx"
	"github.com/dmitrijs2005/strongholder/internal/logging"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"github.com/dmitrijs2005/strongholder/internal/server/borg"
	"github.com/dmitrijs2005/strongholder/internal/server/models"
	"github.com/dmitrijs2005/strongholder/internal/server/remote"
	"github.com/dmitrijs2005/strongholder/internal/server/remote/remotetest"
	"github.com/dmitrijs2005/strongholder/internal/server/repositories/credentials"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// memCredentials is an in-memory credentials.Repository.
type memCredentials struct {
	mu   sync.Mutex
	byID map[string]*models.Credential
}

func newMemCredentials() *memCredentials {
	return &memCredentials{byID: map[string]*models.Credential{}}
}

func (m *memCredentials) Create(_ context.Context, c *models.Credential) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.UserName == c.UserName {
			return nil, common.ErrAlreadyExists
		}
	}
	if _, ok := m.byID[c.ID]; ok {
		return nil, common.ErrAlreadyExists
	}
	c.CreatedAt = time.Now()
	cp := *c
	m.byID[c.ID] = &cp
	return c, nil
}

func (m *memCredentials) ExistsByUsername(_ context.Context, userName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.UserName == userName {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCredentials) FindByUsername(_ context.Context, userName string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []*models.Credential
	for _, c := range m.byID {
		if c.UserName == userName {
			cp := *c
			found = append(found, &cp)
		}
	}
	switch len(found) {
	case 0:
		return nil, common.ErrorNotFound
	case 1:
		return found[0], nil
	}
	return nil, common.ErrStorageIntegrity
}

func (m *memCredentials) GetByID(_ context.Context, id string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCredentials) put(c *models.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.byID[c.ID] = &cp
}

type fakeRepoManager struct{ creds *memCredentials }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Credentials(dbx.DBTX) credentials.Repository  { return f.creds }

var testLayout = remote.Layout{Root: "/srv/repos", ScriptsDir: "/usr/local/sbin"}

type fixture struct {
	db      *sql.DB
	mock    sqlmock.Sqlmock
	repo    *memCredentials
	ch      *remotetest.Channel
	tokens  *auth.TokenManager
	users   *UserService
	secrets *SecretService
	borg    *borg.Client
}

// newFixture wires the services over an in-memory repository and a fake
// backup host whose create_user.sh drops masterKey (and clientKey for the
// split scheme) at the usual key paths.
func newFixture(t *testing.T, scheme int) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)

	kdf, err := cryptox.NewKDF(cryptox.KDFParams{Memory: 64, Time: 1, Threads: 1, KeyLen: cryptox.KeyLength}, 2)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager([]byte("test-secret"), time.Hour, 30*time.Minute)
	require.NoError(t, err)

	ch := remotetest.New()
	ch.Handle("create_user.sh", func(ch *remotetest.Channel, args []string) (string, int, error) {
		ch.Put(testLayout.KeyFile(args[0]), masterKey)
		ch.Put(testLayout.ClientKeyFile(args[0]), clientKey)
		return "", 0, nil
	})

	repo := newMemCredentials()
	rm := &fakeRepoManager{creds: repo}
	b := borg.NewClient(ch, testLayout, "/etc/keys/server.pub", nopLogger{})

	f := &fixture{db: db, mock: mock, repo: repo, ch: ch, tokens: tokens, borg: b}
	f.users = NewUserService(db, rm, kdf, tokens, b, scheme, nopLogger{})
	f.secrets = NewSecretService(db, rm, ch, testLayout, time.Second, nopLogger{})
	return f
}

var (
	masterKey = []byte("BORG_KEY 6d6173746572206b6579206d6174657269616c")
	clientKey = []byte("BORG_KEY 636c69656e742068616c66")
)

const goodPassword = "Str0ng!Passw0rd"

// signup registers username and returns its verified session credentials.
func (f *fixture) signup(t *testing.T, username string) auth.SessionCredentials {
	t.Helper()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	token, err := f.users.Signup(context.Background(), Login{Username: username, Password: goodPassword})
	require.NoError(t, err)

	v, err := f.users.VerifyToken(token)
	require.NoError(t, err)
	return v.Credentials
}
