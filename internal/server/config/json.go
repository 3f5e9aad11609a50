package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/strongholder/internal/flagx"
	"github.com/dmitrijs2005/strongholder/internal/timex"
)

// JsonConfig is the on-disk shape of a configuration file. Durations use
// timex.Duration so they can be written as "90s" or as nanoseconds.
// Fields left out of the file keep their previous value.
type JsonConfig struct {
	EndpointAddrGRPC  string         `json:"endpoint_addr_grpc"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	TokenTTL          timex.Duration `json:"token_ttl"`
	RefreshWindow     timex.Duration `json:"refresh_window"`
	OperationTimeout  timex.Duration `json:"operation_timeout"`
	KeyScheme         int            `json:"key_scheme"`
	KDFMemory         uint32         `json:"kdf_memory_kib"`
	KDFTime           uint32         `json:"kdf_time"`
	KDFThreads        uint8          `json:"kdf_threads"`
	KDFConcurrency    int64          `json:"kdf_concurrency"`
	SSHAddr           string         `json:"ssh_addr"`
	SSHUser           string         `json:"ssh_user"`
	SSHKeyPath        string         `json:"ssh_key_path"`
	SSHKnownHostsPath string         `json:"ssh_known_hosts_path"`
	SSHDialTimeout    timex.Duration `json:"ssh_dial_timeout"`
	RemoteRoot        string         `json:"remote_root"`
	ScriptsDir        string         `json:"scripts_dir"`
	ServerPubKeyPath  string         `json:"server_pub_key_path"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	LogLevel          string         `json:"log_level"`
}

// parseJson overlays the file named by -c or -config, if any, onto config.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setNonZero(&config.TokenTTL, c.TokenTTL.Duration)
	setNonZero(&config.RefreshWindow, c.RefreshWindow.Duration)
	setNonZero(&config.OperationTimeout, c.OperationTimeout.Duration)
	setNonZero(&config.KeyScheme, c.KeyScheme)
	setNonZero(&config.KDFMemory, c.KDFMemory)
	setNonZero(&config.KDFTime, c.KDFTime)
	setNonZero(&config.KDFThreads, c.KDFThreads)
	setNonZero(&config.KDFConcurrency, c.KDFConcurrency)
	setString(&config.SSHAddr, c.SSHAddr)
	setString(&config.SSHUser, c.SSHUser)
	setString(&config.SSHKeyPath, c.SSHKeyPath)
	setString(&config.SSHKnownHostsPath, c.SSHKnownHostsPath)
	setNonZero(&config.SSHDialTimeout, c.SSHDialTimeout.Duration)
	setString(&config.RemoteRoot, c.RemoteRoot)
	setString(&config.ScriptsDir, c.ScriptsDir)
	setString(&config.ServerPubKeyPath, c.ServerPubKeyPath)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setNonZero[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
