// Package store persists fetched data documents between sessions.
//
// A Store holds one Entry per cache key. Payloads are compressed with xz and
// protected by a BLAKE3 digest; an entry whose digest does not verify is
// reported as ErrCorrupt and must be treated as a miss by callers.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrCorrupt is returned by Load when a persisted entry fails to decode or
// its digest does not match the payload.
var ErrCorrupt = errors.New("store: corrupt entry")

// Entry is one persisted document.
type Entry struct {
	// Key is the fetcher cache key, e.g. "verse:genesis:noach:006:009".
	Key string `json:"key"`

	// Path is the resource path relative to the data root.
	Path string `json:"path"`

	// Version is the schema version the entry was written under.
	Version string `json:"version"`

	// UpdatedAt is when the payload was fetched.
	UpdatedAt time.Time `json:"updatedAt"`

	// Payload is the raw JSON document.
	Payload []byte `json:"-"`

	// Digest is the hex BLAKE3 digest of Payload.
	Digest string `json:"digest"`
}

// Fresh reports whether the entry was written under version and is no older
// than maxAge at now. A maxAge of 0 disables the age check.
func (e *Entry) Fresh(version string, maxAge time.Duration, now time.Time) bool {
	if e.Version != version {
		return false
	}
	if maxAge > 0 && now.Sub(e.UpdatedAt) > maxAge {
		return false
	}
	return true
}

// Stats describes the contents of a store.
type Stats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
	// Bytes is the compressed size on the backend.
	Bytes int64 `json:"bytes"`
	// RawBytes is the total payload size before compression.
	RawBytes int64 `json:"rawBytes"`
}

// PruneFunc reports whether an entry should be removed.
type PruneFunc func(e *Entry) bool

// Store is the persistent cache port used by the fetcher.
type Store interface {
	// Load returns the entry for key. A missing key returns (nil, nil).
	Load(ctx context.Context, key string) (*Entry, error)

	// Save writes or replaces the entry. Digest is computed by the store.
	Save(ctx context.Context, e *Entry) error

	// Delete removes the entry for key, if present.
	Delete(ctx context.Context, key string) error

	// DeletePath removes every entry whose Path equals path.
	DeletePath(ctx context.Context, path string) (int, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Prune removes the entries selected by fn and returns how many.
	Prune(ctx context.Context, fn PruneFunc) (int, error)

	// Stats reports entry count and sizes.
	Stats(ctx context.Context) (Stats, error)

	// Close releases backend resources.
	Close() error
}

// Stale returns a PruneFunc selecting entries that are not fresh under
// version and maxAge at now.
func Stale(version string, maxAge time.Duration, now time.Time) PruneFunc {
	return func(e *Entry) bool {
		return !e.Fresh(version, maxAge, now)
	}
}

// IsCorrupt reports whether err marks an entry that failed integrity checks.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
