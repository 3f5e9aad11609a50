package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/strongholder/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          gRPC bind address (e.g., ":50051")
//	-d string          PostgreSQL DSN
//	-s string          token HMAC secret
//	-t int             token lifetime, minutes
//	-r int             refresh window, minutes
//	-o int             remote operation timeout, seconds
//	-scheme int        key scheme for new accounts
//	-ssh string        backup host address
//	-ssh-user string   backup host user
//	-ssh-key string    private key file
//	-known-hosts string
//	-u, -p, -b, -g, -e S3 user, password, bucket, region and endpoint
//	-log-level string  debug, info, warn or error
//
// Other arguments are filtered out with flagx.FilterArgs first so that the
// config file flags do not collide with these.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-r", "-o", "-scheme",
		"-ssh", "-ssh-user", "-ssh-key", "-known-hosts",
		"-u", "-p", "-b", "-g", "-e", "-log-level",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token secret key")

	tokenTTL := fs.Int("t", int(config.TokenTTL.Minutes()), "token lifetime (in minutes)")
	refreshWindow := fs.Int("r", int(config.RefreshWindow.Minutes()), "refresh window (in minutes)")
	opTimeout := fs.Int("o", int(config.OperationTimeout.Seconds()), "remote operation timeout (in seconds)")

	fs.IntVar(&config.KeyScheme, "scheme", config.KeyScheme, "key scheme for new accounts (1 or 2)")
	fs.StringVar(&config.SSHAddr, "ssh", config.SSHAddr, "backup host address")
	fs.StringVar(&config.SSHUser, "ssh-user", config.SSHUser, "backup host user")
	fs.StringVar(&config.SSHKeyPath, "ssh-key", config.SSHKeyPath, "ssh private key path")
	fs.StringVar(&config.SSHKnownHostsPath, "known-hosts", config.SSHKnownHostsPath, "known_hosts path")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// durations given in whole units only replace values that were set
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.TokenTTL = time.Duration(*tokenTTL) * time.Minute
		case "r":
			config.RefreshWindow = time.Duration(*refreshWindow) * time.Minute
		case "o":
			config.OperationTimeout = time.Duration(*opTimeout) * time.Second
		}
	})
	return nil
}
