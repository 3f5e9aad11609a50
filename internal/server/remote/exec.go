package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"golang.org/x/crypto/ssh"
)

// ScriptError is returned when a remote command exits with a non-zero
// status. It keeps the output for server-side logs; clients only ever see
// the code of common.ErrScript.
type ScriptError struct {
	Command    string
	ExitStatus int
	Stdout     string
	Stderr     string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: exit status %d: stdout=%q stderr=%q",
		e.Command, e.ExitStatus, e.Stdout, e.Stderr)
}

func (e *ScriptError) Unwrap() error { return common.ErrScript }

// commandRunner runs one shell command and returns its raw output. err is
// only set when the command could not be dispatched or did not finish.
type commandRunner interface {
	run(ctx context.Context, cmd string) (stdout, stderr []byte, status int, err error)
}

// killGrace is how long a killed session may take to report back before
// run returns without it.
const killGrace = 2 * time.Second

type sshRunner struct {
	client *ssh.Client
}

// run opens a dedicated session per command so concurrent calls never share
// buffers.
func (r *sshRunner) run(ctx context.Context, cmd string) ([]byte, []byte, int, error) {
	sess, err := r.client.NewSession()
	if err != nil {
		return nil, nil, 0, err
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(cmd) }()

	aborted, err := await(ctx, done, func() {
		_ = sess.Signal(ssh.SIGKILL)
		_ = sess.Close()
	}, killGrace)
	if aborted {
		return nil, nil, 0, err
	}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), stderr.Bytes(), exitErr.ExitStatus(), nil
		}
		return nil, nil, 0, err
	}
	return stdout.Bytes(), stderr.Bytes(), 0, nil
}

// await returns the result sent on done. When ctx ends first it calls kill,
// gives done at most grace to report, and returns ctx.Err() with aborted set.
// done must be buffered so an abandoned sender never blocks.
func await(ctx context.Context, done <-chan error, kill func(), grace time.Duration) (aborted bool, err error) {
	select {
	case err := <-done:
		return false, err
	case <-ctx.Done():
	}

	kill()
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
	}
	return true, ctx.Err()
}

// Run executes name with shell-quoted args on the backup host.
func (c *SSHChannel) Run(ctx context.Context, name string, args ...string) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrSsh, name, err)
	}

	cmd := Command(name, args...)
	stdout, stderr, status, err := c.exec.run(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrSsh, name, err)
	}
	if !utf8.Valid(stdout) || !utf8.Valid(stderr) {
		return nil, fmt.Errorf("%w: %s", common.ErrUtf8, name)
	}

	out := &Output{Stdout: string(stdout), Stderr: string(stderr), ExitStatus: status}
	if status != 0 {
		return out, &ScriptError{Command: cmd, ExitStatus: status, Stdout: out.Stdout, Stderr: out.Stderr}
	}
	return out, nil
}

// Command joins name and args into a command line for the remote shell,
// quoting every argument that is not made of safe characters.
func Command(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(name))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isSafeRune(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=@+,", r)
}
