package config

import (
	"flag"
	"io"
	"os"
	"time"
)

// parseFlags populates Config from command-line flags and stores whatever
// follows them in cfg.Args.
//
// Supported flags:
//
//	-a string   address and port of the key server
//	-db string  session database file
//	-t int      request timeout (in seconds)
//	-c/-config  JSON config file, read by parseJson
//
// Panics on malformed flags.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("keeperctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.SessionDB, "db", cfg.SessionDB, "session database file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.String("c", "", "path to config file (short)")
	fs.String("config", "", "path to config file")

	if err := fs.Parse(os.Args[1:]); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.Args = fs.Args()
}
