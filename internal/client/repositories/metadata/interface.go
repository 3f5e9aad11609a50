// Package metadata stores the client's session in the local metadata table.
package metadata

import (
	"context"
)

// Key names one slot of the session.
type Key string

const (
	KeyAccessToken Key = "access_token"
	KeyUsername    Key = "username"
)

// Repository reads and writes session slots. Get returns (nil, nil) for an
// empty slot.
type Repository interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, keys ...Key) error
}
