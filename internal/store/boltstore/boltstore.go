// Package boltstore implements store.Store using bbolt (embedded B+ tree).
// All entries live in a single "entries" bucket keyed by cache key; values
// are JSON-serialized sealed entries. Writes are transactional.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/FocuswithJustin/JuniperTorah/internal/store"
)

var bucketEntries = []byte("entries")

// FileName is the database file created inside the cache directory.
const FileName = "cache.bolt"

// Store implements store.Store backed by bbolt.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("boltstore: create %s: %w", dir, err)
	}
	db, err := bolt.Open(filepath.Join(dir, FileName), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init: %w", err)
	}
	return &Store{db: db}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.db.Path() }

func decode(v []byte) (*store.Sealed, error) {
	var sealed store.Sealed
	if err := json.Unmarshal(v, &sealed); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	return &sealed, nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, key string) (*store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := tx.Bucket(bucketEntries).Get([]byte(key)); v != nil {
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: load %s: %w", key, err)
	}
	if raw == nil {
		return nil, nil
	}
	sealed, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return store.Open(sealed)
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, e *store.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sealed, err := store.Seal(e)
	if err != nil {
		return err
	}
	data, err := json.Marshal(sealed)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).Put([]byte(e.Key), data)
	})
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).Delete([]byte(key))
	})
}

// DeletePath implements store.Store.
func (s *Store) DeletePath(ctx context.Context, path string) (int, error) {
	return s.Prune(ctx, func(e *store.Entry) bool { return e.Path == path })
}

// Clear implements store.Store by recreating the bucket.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketEntries)
		return err
	})
}

// Prune implements store.Store. Undecodable entries are always removed.
func (s *Store) Prune(ctx context.Context, fn store.PruneFunc) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		var doomed [][]byte
		err := b.ForEach(func(k, v []byte) error {
			sealed, err := decode(v)
			if err != nil || fn(sealed.Meta()) {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		n = len(doomed)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("boltstore: prune: %w", err)
	}
	return n, nil
}

// Stats implements store.Store.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	st := store.Stats{Backend: "bolt"}
	if err := ctx.Err(); err != nil {
		return st, err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			st.Entries++
			if sealed, err := decode(v); err == nil {
				st.Bytes += int64(len(sealed.Data))
				st.RawBytes += sealed.RawSize
			}
			return nil
		})
	})
	if err != nil {
		return st, fmt.Errorf("boltstore: stats: %w", err)
	}
	return st, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)
