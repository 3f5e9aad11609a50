package grpc

import (
	"context"
	"database/sql"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/strongholder/internal/api"
	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/cryptox"
	"github.com/dmitrijs2005/strongholder/internal/dbx"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"github.com/dmitrijs2005/strongholder/internal/server/borg"
	"github.com/dmitrijs2005/strongholder/internal/server/models"
	"github.com/dmitrijs2005/strongholder/internal/server/remote"
	"github.com/dmitrijs2005/strongholder/internal/server/remote/remotetest"
	"github.com/dmitrijs2005/strongholder/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/strongholder/internal/server/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const (
	testSecret   = "test-secret"
	goodPassword = "Str0ng!Passw0rd"
)

var testLayout = remote.Layout{Root: "/srv/repos", ScriptsDir: "/usr/local/sbin"}

type memCredentials struct {
	mu   sync.Mutex
	byID map[string]models.Credential
}

func (m *memCredentials) Create(_ context.Context, c *models.Credential) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.UserName == c.UserName {
			return nil, common.ErrAlreadyExists
		}
	}
	c.CreatedAt = time.Now()
	m.byID[c.ID] = *c
	return c, nil
}

func (m *memCredentials) ExistsByUsername(_ context.Context, userName string) (bool, error) {
	_, err := m.FindByUsername(context.Background(), userName)
	return err == nil, nil
}

func (m *memCredentials) FindByUsername(_ context.Context, userName string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.UserName == userName {
			c := e
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memCredentials) GetByID(_ context.Context, id string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

type fakeRepoManager struct{ creds *memCredentials }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Credentials(dbx.DBTX) credentials.Repository  { return f.creds }

type harness struct {
	client *api.KeeperServiceClient
	ch     *remotetest.Channel
	mock   sqlmock.Sqlmock
	server *GRPCServer
}

// newHarness serves the full stack over an in-memory listener. The fake
// backup host provisions a key on create_user.sh and lists one archive.
func newHarness(t *testing.T) *harness {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)

	kdf, err := cryptox.NewKDF(cryptox.KDFParams{Memory: 64, Time: 1, Threads: 1, KeyLen: cryptox.KeyLength}, 2)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager([]byte(testSecret), time.Hour, 30*time.Minute)
	require.NoError(t, err)

	ch := remotetest.New()
	ch.Handle("create_user.sh", func(ch *remotetest.Channel, args []string) (string, int, error) {
		ch.Put(testLayout.KeyFile(args[0]), []byte("BORG_KEY 6b6579"))
		return "", 0, nil
	})
	ch.Handle("list.sh", func(ch *remotetest.Channel, args []string) (string, int, error) {
		return `{"archives":[{"archive":"host-2024-01-01","time":"2024-01-01T00:00:00"}]}`, 0, nil
	})
	ch.Handle("cat", func(ch *remotetest.Channel, args []string) (string, int, error) {
		return "ssh-ed25519 AAAAserver\n", 0, nil
	})

	rm := &fakeRepoManager{creds: &memCredentials{byID: map[string]models.Credential{}}}
	b := borg.NewClient(ch, testLayout, "/etc/keys/server.pub", nopLogger{})
	users := services.NewUserService(db, rm, kdf, tokens, b, models.SchemeSingle, nopLogger{})
	secrets := services.NewSecretService(db, rm, ch, testLayout, time.Second, nopLogger{})
	backups := services.NewBackupService(secrets, b, ch, nil, nopLogger{})

	srv := NewGRPCServer("bufnet", nopLogger{}, users, backups)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})

	return &harness{client: api.NewKeeperServiceClient(conn), ch: ch, mock: mock, server: srv}
}

// signup registers username over the wire and returns its token.
func (h *harness) signup(t *testing.T, username string) string {
	t.Helper()
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()

	resp, err := h.client.Signup(context.Background(), &api.SignupRequest{Username: username, Password: goodPassword})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

// signToken mints a token for subject expiring at exp with the test secret.
func signToken(t *testing.T, subject, keyHex string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		KDF: keyHex,
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}
