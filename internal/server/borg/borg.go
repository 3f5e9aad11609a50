// Package borg drives the helper scripts that manage per-user borg
// repositories on the backup host.
package borg

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/logging"
	"github.com/dmitrijs2005/strongholder/internal/server/remote"
)

const (
	scriptCreateUser       = "create_user.sh"
	scriptInstallClientKey = "install_client_key.sh"
	scriptList             = "list.sh"
	scriptRestore          = "restore.sh"

	// MaxPublicKeySize bounds an uploaded client SSH key.
	MaxPublicKeySize = 50 * 1024 * 1024

	logArchiveSuffix = "_logs"

	// DefaultCleanupTimeout bounds the shred or delete of a file this
	// package left on the host.
	DefaultCleanupTimeout = 30 * time.Second
)

var archiveNameRe = regexp.MustCompile(`^[A-Za-z0-9._:+][A-Za-z0-9._:+-]{0,254}$`)

// ValidateArchiveName rejects names that could be read as options or
// contain characters borg never produces.
func ValidateArchiveName(name string) error {
	if !archiveNameRe.MatchString(name) {
		return fmt.Errorf("%w: archive name %q", common.ErrInvalidInput, name)
	}
	return nil
}

// Client runs borg scripts through a remote channel.
type Client struct {
	ch             remote.Channel
	layout         remote.Layout
	pubKeyPath     string
	cleanupTimeout time.Duration
	logger         logging.Logger
}

func NewClient(ch remote.Channel, layout remote.Layout, pubKeyPath string, logger logging.Logger) *Client {
	return &Client{
		ch:             ch,
		layout:         layout,
		pubKeyPath:     pubKeyPath,
		cleanupTimeout: DefaultCleanupTimeout,
		logger:         logger.With("module", "borg"),
	}
}

// cleanupContext outlives the cancellation of ctx but not the cleanup timeout.
func (c *Client) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.cleanupTimeout)
}

// Layout exposes the remote paths used by this client.
func (c *Client) Layout() remote.Layout { return c.layout }

func (c *Client) sudo(ctx context.Context, script string, args ...string) (*remote.Output, error) {
	c.logger.Debug(ctx, "running script", "script", script, "args", args)
	out, err := c.ch.Run(ctx, "sudo", append([]string{c.layout.Script(script)}, args...)...)
	if err != nil {
		var se *remote.ScriptError
		if errors.As(err, &se) {
			c.logger.Error(ctx, "script failed",
				"script", script, "status", se.ExitStatus, "stdout", se.Stdout, "stderr", se.Stderr)
		}
		return nil, err
	}
	return out, nil
}

// ProvisionedKeys holds the key material produced by create_user.sh.
// Client is nil unless the split scheme was requested.
type ProvisionedKeys struct {
	Server []byte
	Client []byte
}

// Wipe zeroes both keys.
func (k *ProvisionedKeys) Wipe() {
	if k == nil {
		return
	}
	common.WipeByteArray(k.Server)
	common.WipeByteArray(k.Client)
}

// CreateUser provisions the repository of id and returns its key material.
// The key files are shredded on the host whether reading succeeds or not.
func (c *Client) CreateUser(ctx context.Context, id string, withClientKey bool) (keys *ProvisionedKeys, err error) {
	if _, err := c.sudo(ctx, scriptCreateUser, id); err != nil {
		return nil, err
	}

	paths := []string{c.layout.KeyFile(id)}
	if withClientKey {
		paths = append(paths, c.layout.ClientKeyFile(id))
	}
	defer func() {
		cctx, cancel := c.cleanupContext(ctx)
		defer cancel()
		for _, p := range paths {
			if serr := c.ch.ShredFile(cctx, p); serr != nil {
				c.logger.Error(ctx, "failed to shred provisioned key", "user_id", id, "error", serr)
				if err == nil {
					keys.Wipe()
					keys, err = nil, serr
				}
			}
		}
	}()

	keys = &ProvisionedKeys{}
	keys.Server, err = c.ch.ReadFile(ctx, paths[0])
	if err != nil {
		return nil, err
	}
	if withClientKey {
		keys.Client, err = c.ch.ReadFile(ctx, paths[1])
		if err != nil {
			keys.Wipe()
			return nil, err
		}
	}
	return keys, nil
}

// InstallClientKey stages a client public key on the host and authorizes it
// for the repository of id. The staged file is always removed.
func (c *Client) InstallClientKey(ctx context.Context, id string, pubKey []byte) error {
	if len(pubKey) == 0 || len(pubKey) > MaxPublicKeySize {
		return fmt.Errorf("%w: public key size %d", common.ErrInvalidInput, len(pubKey))
	}

	upload := c.layout.UploadedPublicKey(id)
	if err := c.ch.WriteFile(ctx, upload, pubKey); err != nil {
		return err
	}
	defer func() {
		cctx, cancel := c.cleanupContext(ctx)
		defer cancel()
		if err := c.ch.DeleteFile(cctx, upload); err != nil {
			c.logger.Warn(ctx, "failed to remove uploaded key", "user_id", id, "error", err)
		}
	}()

	_, err := c.sudo(ctx, scriptInstallClientKey, id, upload)
	return err
}

// ServerPublicKey returns the key the backup host uses to reach clients.
func (c *Client) ServerPublicKey(ctx context.Context) (string, error) {
	out, err := c.ch.Run(ctx, "cat", c.pubKeyPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(out.Stdout, "\n"), nil
}

// Restore extracts archive, or a single path of it when paths is given,
// into the restore directory of id.
func (c *Client) Restore(ctx context.Context, id, archive string, paths ...string) error {
	if err := ValidateArchiveName(archive); err != nil {
		return err
	}
	_, err := c.sudo(ctx, scriptRestore, append([]string{id, archive}, paths...)...)
	return err
}
