package models

import (
	"database/sql"
	"time"
)

// Key wrapping schemes. The scheme is stored with every credential so that
// records created under an older scheme keep working.
const (
	// SchemeSingle stores one wrapped repository key.
	SchemeSingle = 1
	// SchemeSplit stores the server half and the client half of the
	// repository key, each wrapped separately.
	SchemeSplit = 2
)

// Credential is the persisted record of one user. Keys are hex-encoded
// envelopes, never plaintext.
type Credential struct {
	ID               string
	UserName         string
	Scheme           int
	WrappedKey       string
	WrappedClientKey sql.NullString
	CreatedAt        time.Time
}
