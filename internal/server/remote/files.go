package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/pkg/sftp"
)

func isNotExist(err error) bool {
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	var st *sftp.StatusError
	return errors.As(err, &st) && st.FxCode() == sftp.ErrSSHFxNoSuchFile
}

// ReadFile reads exactly as many bytes as the remote stat reports.
// A missing or empty file is common.ErrNoFile; a failed stat is
// common.ErrMetadata; anything else is common.ErrSftp.
func (c *SSHChannel) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f, size, err := c.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrSftp, path, err)
	}
	return buf, nil
}

// OpenFile opens path for streaming. The caller closes the reader.
func (c *SSHChannel) OpenFile(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	f, size, err := c.open(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	return f, size, nil
}

func (c *SSHChannel) open(ctx context.Context, path string) (*sftp.File, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: open %s: %w", common.ErrSftp, path, err)
	}

	f, err := c.files.Open(path)
	if err != nil {
		if isNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %s", common.ErrNoFile, path)
		}
		return nil, 0, fmt.Errorf("%w: open %s: %w", common.ErrSftp, path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: stat %s: %w", common.ErrMetadata, path, err)
	}
	if info.Size() <= 0 {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %s is empty", common.ErrNoFile, path)
	}
	return f, info.Size(), nil
}

// WriteFile creates path with owner-only permissions before writing data.
func (c *SSHChannel) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: write %s: %w", common.ErrSftp, path, err)
	}

	f, err := c.files.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", common.ErrSftp, path, err)
	}
	if err := c.files.Chmod(path, 0o600); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: chmod %s: %w", common.ErrSftp, path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %w", common.ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", common.ErrSftp, path, err)
	}
	return nil
}

// DeleteFile removes path over SFTP.
func (c *SSHChannel) DeleteFile(ctx context.Context, path string) error {
	if err := c.files.Remove(path); err != nil && !isNotExist(err) {
		return fmt.Errorf("%w: remove %s: %w", common.ErrSftp, path, err)
	}
	return nil
}

// ShredFile overwrites path with `shred` and unlinks it. If shred is not
// usable the file is removed over SFTP instead; the error is only returned
// when the file could not be removed at all.
func (c *SSHChannel) ShredFile(ctx context.Context, path string) error {
	_, shredErr := c.Run(ctx, "shred", "-u", "-z", path)
	if shredErr == nil {
		return nil
	}
	if err := c.DeleteFile(ctx, path); err != nil {
		return errors.Join(shredErr, err)
	}
	return nil
}
