// Package remote talks to the backup host: one SSH client for running
// commands and one SFTP client for small file transfers, both opened once
// at startup and shared by every request.
package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Channel is the set of remote operations the key lifecycle needs.
// Implementations must be safe for concurrent use.
type Channel interface {
	// Run executes name with args and fails on any non-zero exit status.
	Run(ctx context.Context, name string, args ...string) (*Output, error)
	// ReadFile returns the exact content of a remote file.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// OpenFile opens a remote file for streaming and reports its size.
	OpenFile(ctx context.Context, path string) (io.ReadCloser, int64, error)
	// WriteFile creates or truncates path with mode 0600 and writes data.
	WriteFile(ctx context.Context, path string, data []byte) error
	// DeleteFile removes path. A missing file is not an error.
	DeleteFile(ctx context.Context, path string) error
	// ShredFile overwrites and removes path, falling back to DeleteFile.
	ShredFile(ctx context.Context, path string) error
}

// Output is the decoded result of a remote command.
type Output struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// SSHChannel implements Channel over an SSH connection.
type SSHChannel struct {
	exec   commandRunner
	files  *sftp.Client
	closer io.Closer
}

// NewSSHChannel wraps an established SSH client and an SFTP client that
// runs over it.
func NewSSHChannel(client *ssh.Client, files *sftp.Client) *SSHChannel {
	return &SSHChannel{exec: &sshRunner{client: client}, files: files, closer: client}
}

// DialConfig describes how to reach the backup host.
type DialConfig struct {
	Addr           string
	User           string
	KeyPath        string
	KnownHostsPath string
	Timeout        time.Duration
}

// Dial connects to the backup host, verifying its host key against
// KnownHostsPath, and opens the SFTP subsystem.
func Dial(cfg DialConfig) (*SSHChannel, error) {
	pem, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key: %w", err)
	}
	hostKeys, err := knownhosts.New(cfg.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("load known hosts: %w", err)
	}

	client, err := ssh.Dial("tcp", cfg.Addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
		Timeout:         cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", cfg.Addr, err)
	}

	files, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sftp init: %w", err)
	}
	return NewSSHChannel(client, files), nil
}

// Close shuts down the SFTP client and the SSH connection.
func (c *SSHChannel) Close() error {
	ferr := c.files.Close()
	if c.closer != nil {
		if err := c.closer.Close(); err != nil {
			return err
		}
	}
	return ferr
}
