// Package server wires the Strongholder key server together: database and
// migrations, the backup host channel, object storage, services and the
// gRPC endpoint. It also handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/strongholder/internal/cryptox"
	"github.com/dmitrijs2005/strongholder/internal/logging"
	"github.com/dmitrijs2005/strongholder/internal/server/auth"
	"github.com/dmitrijs2005/strongholder/internal/server/borg"
	"github.com/dmitrijs2005/strongholder/internal/server/config"
	"github.com/dmitrijs2005/strongholder/internal/server/objectstore"
	"github.com/dmitrijs2005/strongholder/internal/server/remote"
	"github.com/dmitrijs2005/strongholder/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/strongholder/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/strongholder/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	channel *remote.SSHChannel
	users   *services.UserService
	backups *services.BackupService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stdout, level)

	kdf, err := cryptox.NewKDF(cryptox.KDFParams{
		Memory:  c.KDFMemory,
		Time:    c.KDFTime,
		Threads: c.KDFThreads,
		KeyLen:  cryptox.KeyLength,
	}, c.KDFConcurrency)
	if err != nil {
		return nil, fmt.Errorf("kdf init error: %w", err)
	}

	tokens, err := auth.NewTokenManager([]byte(c.SecretKey), c.TokenTTL, c.RefreshWindow)
	if err != nil {
		return nil, fmt.Errorf("token manager init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	ch, err := remote.Dial(remote.DialConfig{
		Addr:           c.SSHAddr,
		User:           c.SSHUser,
		KeyPath:        c.SSHKeyPath,
		KnownHostsPath: c.SSHKnownHostsPath,
		Timeout:        c.SSHDialTimeout,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("backup host connection error: %w", err)
	}

	// Restores are unavailable without object storage; everything else works.
	var store services.Publisher
	s3, err := objectstore.New(ctx, objectstore.Config{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		logger.Warn(ctx, "object storage disabled", "error", err)
	} else {
		store = s3
	}

	layout := remote.Layout{Root: c.RemoteRoot, ScriptsDir: c.ScriptsDir}
	b := borg.NewClient(ch, layout, c.ServerPubKeyPath, logger)

	users := services.NewUserService(db, rm, kdf, tokens, b, c.KeyScheme, logger)
	secrets := services.NewSecretService(db, rm, ch, layout, c.OperationTimeout, logger)
	backups := services.NewBackupService(secrets, b, ch, store, logger)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		channel: ch,
		users:   users,
		backups: backups,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger.With("module", "grpc"), app.users, app.backups)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases the backup host connection and the database.
func (app *App) Close() error {
	return errors.Join(app.channel.Close(), app.db.Close())
}
