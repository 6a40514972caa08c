package store

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

// Injectable for testing.
var (
	xzNewWriter = xz.NewWriter
	xzNewReader = xz.NewReader
)

// Sealed is the on-disk form of an Entry: metadata plus the compressed
// payload.
type Sealed struct {
	Key       string `json:"key"`
	Path      string `json:"path"`
	Version   string `json:"version"`
	UpdatedAt int64  `json:"updatedAt"` // unix milliseconds
	Digest    string `json:"digest"`
	RawSize   int64  `json:"rawSize"`
	Data      []byte `json:"data"`
}

// Digest returns the hex BLAKE3 digest of payload.
func Digest(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Seal compresses the payload of e and fills in its digest.
func Seal(e *Entry) (*Sealed, error) {
	if e == nil || e.Key == "" {
		return nil, fmt.Errorf("store: entry without key")
	}

	var buf bytes.Buffer
	w, err := xzNewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(e.Payload); err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", e.Key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", e.Key, err)
	}

	e.Digest = Digest(e.Payload)
	return &Sealed{
		Key:       e.Key,
		Path:      e.Path,
		Version:   e.Version,
		UpdatedAt: e.UpdatedAt.UnixMilli(),
		Digest:    e.Digest,
		RawSize:   int64(len(e.Payload)),
		Data:      buf.Bytes(),
	}, nil
}

// Open decompresses s and verifies its digest. Any failure wraps ErrCorrupt.
func Open(s *Sealed) (*Entry, error) {
	r, err := xzNewReader(bytes.NewReader(s.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.Key, err)
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.Key, err)
	}
	if got := Digest(payload); got != s.Digest {
		return nil, fmt.Errorf("%w: %s: digest mismatch", ErrCorrupt, s.Key)
	}
	return &Entry{
		Key:       s.Key,
		Path:      s.Path,
		Version:   s.Version,
		UpdatedAt: time.UnixMilli(s.UpdatedAt),
		Payload:   payload,
		Digest:    s.Digest,
	}, nil
}

// Meta returns the entry described by s without decompressing the payload.
// It is used by Prune, which only needs the metadata.
func (s *Sealed) Meta() *Entry {
	return &Entry{
		Key:       s.Key,
		Path:      s.Path,
		Version:   s.Version,
		UpdatedAt: time.UnixMilli(s.UpdatedAt),
		Digest:    s.Digest,
	}
}
