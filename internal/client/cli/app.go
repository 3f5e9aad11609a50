package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dmitrijs2005/strongholder/internal/client/client"
	"github.com/dmitrijs2005/strongholder/internal/client/config"
	"github.com/dmitrijs2005/strongholder/internal/client/services"
)

// ErrUsage is returned for an unknown command or wrong arguments.
var ErrUsage = errors.New("usage error")

type command struct {
	run     func(a *App, ctx context.Context, args []string) error
	args    string
	minArgs int
	maxArgs int
}

var commands = map[string]command{
	"signup":   {run: (*App).signup},
	"signin":   {run: (*App).signin},
	"logout":   {run: (*App).logout},
	"whoami":   {run: (*App).whoami},
	"archives": {run: (*App).archives},
	"content":  {run: (*App).content, args: "<archive>", minArgs: 1, maxArgs: 1},
	"logs":     {run: (*App).logs},
	"restore":  {run: (*App).restore, args: "<archive> [file]", minArgs: 1, maxArgs: 2},
	"key":      {run: (*App).key, args: "[file]", maxArgs: 1},
	"pubkey":   {run: (*App).pubkey},
	"sendkey":  {run: (*App).sendKey, args: "<public key file>", minArgs: 1, maxArgs: 1},
}

type App struct {
	config      *config.Config
	authService services.AuthService
	client      client.Client
	db          *sql.DB
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	store := services.NewSessionStore(db)
	apiClient, err := client.NewKeeperClient(c.ServerEndpointAddr, store)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:      c,
		authService: services.NewAuthService(apiClient, store),
		client:      apiClient,
		db:          db,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

func (a *App) Close() error {
	var errs []error
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "usage: keeperctl [-a addr] [-db file] [-t seconds] <command> [args]")
	for _, name := range names {
		fmt.Fprintln(a.out, "  "+strings.TrimSpace(name+" "+commands[name].args))
	}
}

// Run executes the command named in the configuration.
func (a *App) Run(ctx context.Context) error {
	if len(a.config.Args) == 0 {
		a.usage()
		return ErrUsage
	}

	name, args := a.config.Args[0], a.config.Args[1:]
	cmd, ok := commands[name]
	if !ok || len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		a.usage()
		return fmt.Errorf("%w: %s", ErrUsage, name)
	}

	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	return cmd.run(a, ctx, args)
}
