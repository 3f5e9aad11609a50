package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/strongholder/internal/common"
)

const (
	// NonceLength is the GCM nonce size (96 bits).
	NonceLength = 12
	// TagLength is the GCM authentication tag size (128 bits).
	TagLength = 16
	// Overhead is what Wrap adds to the plaintext length.
	Overhead = NonceLength + TagLength
)

// ErrInvalidKeyLength is returned by Wrap for keys that are not 32 bytes.
var ErrInvalidKeyLength = errors.New("cryptox: key must be 32 bytes")

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Wrap encrypts plaintext under key with AES-256-GCM and a fresh random
// nonce. The blob layout is:
//
//	nonce(12) || tag(16) || ciphertext
func Wrap(key, plaintext []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: cipher init: %w", err)
	}

	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cryptox: nonce: %w", err)
	}

	// Seal returns ciphertext || tag; move the tag in front of the ciphertext.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ct, tag := sealed[:len(plaintext)], sealed[len(plaintext):]

	blob := make([]byte, 0, Overhead+len(plaintext))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)
	return blob, nil
}

// Unwrap reverses Wrap. Every failure (wrong key, wrong key length, short
// or tampered blob) returns common.ErrAuthFailure and nothing else, since
// this is the password check.
func Unwrap(key, blob []byte) ([]byte, error) {
	if len(key) != KeyLength || len(blob) < Overhead {
		return nil, common.ErrAuthFailure
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, common.ErrAuthFailure
	}

	nonce := blob[:NonceLength]
	tag := blob[NonceLength:Overhead]
	ct := blob[Overhead:]

	sealed := make([]byte, 0, len(ct)+TagLength)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, common.ErrAuthFailure
	}
	return plaintext, nil
}

// WrapHex wraps plaintext and returns the blob hex-encoded for storage.
func WrapHex(key, plaintext []byte) (string, error) {
	blob, err := Wrap(key, plaintext)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(blob), nil
}

// UnwrapHex decodes both the stored blob and the session key from hex and
// unwraps. Malformed hex on either side is an authentication failure.
func UnwrapHex(keyHex, blobHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, common.ErrAuthFailure
	}
	defer Wipe(key)

	blob, err := hex.DecodeString(blobHex)
	if err != nil {
		return nil, common.ErrAuthFailure
	}
	return Unwrap(key, blob)
}

// Wipe zeroes b.
func Wipe(b []byte) {
	common.WipeByteArray(b)
}
