// Package remotetest provides an in-memory remote.Channel for tests.
package remotetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/server/remote"
)

// Handler reacts to a command. Returning a non-nil error simulates a
// dispatch failure; a non-zero status is reported as a script failure.
type Handler func(ch *Channel, args []string) (stdout string, status int, err error)

// Channel keeps files in a map and routes commands to handlers keyed by
// the base name of the executable (the script name for sudo calls).
type Channel struct {
	mu       sync.Mutex
	files    map[string][]byte
	handlers map[string]Handler
	commands [][]string
	shredded []string

	// ShredErr, when set, makes ShredFile fail without removing the file.
	ShredErr error
	// ShredHangs makes ShredFile block until its context is done.
	ShredHangs bool
}

func New() *Channel {
	return &Channel{files: map[string][]byte{}, handlers: map[string]Handler{}}
}

// Handle registers h for the command or script named name.
func (c *Channel) Handle(name string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = h
}

// Put stores a file.
func (c *Channel) Put(path string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = append([]byte(nil), data...)
}

// Has reports whether path exists.
func (c *Channel) Has(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.files[path]
	return ok
}

// Get returns a copy of the file at path.
func (c *Channel) Get(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.files[path]
	return append([]byte(nil), b...), ok
}

// Commands returns every command run so far, sudo stripped.
func (c *Channel) Commands() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]string, len(c.commands))
	copy(out, c.commands)
	return out
}

// Shredded returns the paths passed to ShredFile.
func (c *Channel) Shredded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.shredded...)
}

func baseName(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func (c *Channel) Run(ctx context.Context, name string, args ...string) (*remote.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSsh, err)
	}
	if name == "sudo" && len(args) > 0 {
		name, args = args[0], args[1:]
	}

	c.mu.Lock()
	c.commands = append(c.commands, append([]string{baseName(name)}, args...))
	h, ok := c.handlers[baseName(name)]
	c.mu.Unlock()

	if !ok {
		return nil, &remote.ScriptError{Command: name, ExitStatus: 127, Stderr: "command not found"}
	}
	stdout, status, err := h(c, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSsh, err)
	}
	out := &remote.Output{Stdout: stdout, ExitStatus: status}
	if status != 0 {
		return out, &remote.ScriptError{Command: name, ExitStatus: status, Stdout: stdout}
	}
	return out, nil
}

func (c *Channel) ReadFile(ctx context.Context, path string) ([]byte, error) {
	b, ok := c.Get(path)
	if !ok || len(b) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrNoFile, path)
	}
	return b, nil
}

func (c *Channel) OpenFile(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	b, err := c.ReadFile(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	return io.NopCloser(bytes.NewReader(b)), int64(len(b)), nil
}

func (c *Channel) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrSftp, err)
	}
	c.Put(path, data)
	return nil
}

func (c *Channel) DeleteFile(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
	return nil
}

func (c *Channel) ShredFile(ctx context.Context, path string) error {
	c.mu.Lock()
	c.shredded = append(c.shredded, path)
	hangs, serr := c.ShredHangs, c.ShredErr
	c.mu.Unlock()

	if hangs {
		<-ctx.Done()
		return fmt.Errorf("%w: shred %s: %w", common.ErrSsh, path, ctx.Err())
	}
	if serr != nil {
		return serr
	}
	_ = c.DeleteFile(ctx, path)
	return nil
}

var _ remote.Channel = (*Channel)(nil)
