package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const envPrefix = "STRONGHOLDER_"

// parseEnv overlays STRONGHOLDER_* variables onto config. JWT_SECRET is
// accepted as an alias of STRONGHOLDER_SECRET_KEY for existing deployments.
func parseEnv(config *Config) error {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.SecretKey = v
	}

	strs := map[string]*string{
		"GRPC_ADDR":            &config.EndpointAddrGRPC,
		"DATABASE_DSN":         &config.DatabaseDSN,
		"SECRET_KEY":           &config.SecretKey,
		"SSH_ADDR":             &config.SSHAddr,
		"SSH_USER":             &config.SSHUser,
		"SSH_KEY_PATH":         &config.SSHKeyPath,
		"SSH_KNOWN_HOSTS_PATH": &config.SSHKnownHostsPath,
		"REMOTE_ROOT":          &config.RemoteRoot,
		"SCRIPTS_DIR":          &config.ScriptsDir,
		"SERVER_PUB_KEY_PATH":  &config.ServerPubKeyPath,
		"S3_ROOT_USER":         &config.S3RootUser,
		"S3_ROOT_PASSWORD":     &config.S3RootPassword,
		"S3_BUCKET":            &config.S3Bucket,
		"S3_REGION":            &config.S3Region,
		"S3_BASE_ENDPOINT":     &config.S3BaseEndpoint,
		"LOG_LEVEL":            &config.LogLevel,
	}
	for name, dst := range strs {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"TOKEN_TTL":         &config.TokenTTL,
		"REFRESH_WINDOW":    &config.RefreshWindow,
		"OPERATION_TIMEOUT": &config.OperationTimeout,
		"SSH_DIAL_TIMEOUT":  &config.SSHDialTimeout,
	}
	for name, dst := range durations {
		v := os.Getenv(envPrefix + name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}

	if v := os.Getenv(envPrefix + "KEY_SCHEME"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sKEY_SCHEME: %w", envPrefix, err)
		}
		config.KeyScheme = n
	}
	if v := os.Getenv(envPrefix + "KDF_MEMORY_KIB"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%sKDF_MEMORY_KIB: %w", envPrefix, err)
		}
		config.KDFMemory = uint32(n)
	}
	if v := os.Getenv(envPrefix + "KDF_CONCURRENCY"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sKDF_CONCURRENCY: %w", envPrefix, err)
		}
		config.KDFConcurrency = n
	}
	return nil
}
