// Package cryptox implements the key derivation and envelope encryption used
// to protect each user's repository key.
//
// A user's key is never stored. It is re-derived from the password and the
// normalized username on every signin, and the repository key is kept at rest
// only in its wrapped (AES-256-GCM) form.
package cryptox

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

const (
	// KeyLength is the size of derived keys in bytes (AES-256).
	KeyLength = 32

	// MinSaltLength is the length a username is padded to before it is used
	// as the Argon2id salt.
	MinSaltLength = 8

	saltFiller = '0'
)

// KDFParams holds the Argon2id cost parameters.
type KDFParams struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	KeyLen  uint32
}

// DefaultKDFParams returns the production cost: 64 MiB, 3 passes, 4 lanes,
// 32-byte output.
func DefaultKDFParams() KDFParams {
	return KDFParams{Memory: 64 * 1024, Time: 3, Threads: 4, KeyLen: KeyLength}
}

// Validate reports parameter sets Argon2id cannot run with.
func (p KDFParams) Validate() error {
	switch {
	case p.Time == 0:
		return errors.New("kdf: time cost must be positive")
	case p.Threads == 0:
		return errors.New("kdf: parallelism must be positive")
	case p.Memory < 8*uint32(p.Threads):
		return fmt.Errorf("kdf: memory cost must be at least %d KiB", 8*uint32(p.Threads))
	case p.KeyLen != KeyLength:
		return fmt.Errorf("kdf: key length must be %d bytes", KeyLength)
	}
	return nil
}

// KDF derives per-user keys. Derivations are memory-hard, so the number in
// flight is bounded and each one runs off the caller's goroutine.
type KDF struct {
	params KDFParams
	sem    *semaphore.Weighted
}

// NewKDF validates params and returns a KDF that runs at most maxConcurrent
// derivations at once. Errors here are configuration errors.
func NewKDF(params KDFParams, maxConcurrent int64) (*KDF, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if maxConcurrent < 1 {
		return nil, errors.New("kdf: concurrency must be positive")
	}
	return &KDF{params: params, sem: semaphore.NewWeighted(maxConcurrent)}, nil
}

// Derive returns the Argon2id key for (password, NormalizeSalt(username)).
// The same inputs always produce the same key.
//
// A cancelled context while waiting for a slot or for the hash yields an
// error wrapping common.ErrKdf.
func (k *KDF) Derive(ctx context.Context, password, username []byte) ([]byte, error) {
	if err := k.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKdf, err)
	}

	salt := NormalizeSalt(username)
	out := make(chan []byte, 1)
	go func() {
		defer k.sem.Release(1)
		out <- argon2.IDKey(password, salt, k.params.Time, k.params.Memory, k.params.Threads, k.params.KeyLen)
	}()

	select {
	case key := <-out:
		if len(key) != KeyLength {
			return nil, fmt.Errorf("%w: unexpected key length %d", common.ErrKdf, len(key))
		}
		return key, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", common.ErrKdf, ctx.Err())
	}
}

// NormalizeSalt left-pads username with '0' up to MinSaltLength bytes.
// Longer usernames are returned unchanged.
func NormalizeSalt(username []byte) []byte {
	if len(username) >= MinSaltLength {
		return append([]byte(nil), username...)
	}
	pad := strings.Repeat(string(saltFiller), MinSaltLength-len(username))
	return append([]byte(pad), username...)
}
