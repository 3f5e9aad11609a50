package config

import "time"

// Config holds runtime settings for keeperctl.
//
// Fields:
//   - ServerEndpointAddr: host:port of the key server gRPC endpoint.
//   - SessionDB: path of the local SQLite file keeping the session token.
//   - RequestTimeout: upper bound for one call to the server.
//   - Args: the command and its arguments, whatever follows the flags.
type Config struct {
	ServerEndpointAddr string
	SessionDB          string
	RequestTimeout     time.Duration
	Args               []string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionDB = "keeperctl.db"
	c.RequestTimeout = 10 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
