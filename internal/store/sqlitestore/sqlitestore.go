// Package sqlitestore implements store.Store on SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FocuswithJustin/JuniperTorah/core/sqlite"
	"github.com/FocuswithJustin/JuniperTorah/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	version    TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	digest     TEXT NOT NULL,
	raw_size   INTEGER NOT NULL,
	data       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_path ON entries(path);
`

// FileName is the database file created inside the cache directory.
const FileName = "cache.db"

// Store is a store.Store backed by a single SQLite table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the cache database in dir.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("sqlitestore: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName)

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	if err := sqlite.Tune(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, key string) (*store.Entry, error) {
	var sealed store.Sealed
	err := s.db.QueryRowContext(ctx,
		`SELECT key, path, version, updated_at, digest, raw_size, data FROM entries WHERE key = ?`, key,
	).Scan(&sealed.Key, &sealed.Path, &sealed.Version, &sealed.UpdatedAt, &sealed.Digest, &sealed.RawSize, &sealed.Data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: load %s: %w", key, err)
	}
	return store.Open(&sealed)
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (key, path, version, updated_at, digest, raw_size, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			path = excluded.path,
			version = excluded.version,
			updated_at = excluded.updated_at,
			digest = excluded.digest,
			raw_size = excluded.raw_size,
			data = excluded.data`,
		sealed.Key, sealed.Path, sealed.Version, sealed.UpdatedAt, sealed.Digest, sealed.RawSize, sealed.Data)
	if err != nil {
		return fmt.Errorf("sqlitestore: save %s: %w", e.Key, err)
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlitestore: delete %s: %w", key, err)
	}
	return nil
}

// DeletePath implements store.Store.
func (s *Store) DeletePath(ctx context.Context, path string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE path = ?`, path)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: delete path %s: %w", path, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Clear implements store.Store.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("sqlitestore: clear: %w", err)
	}
	return nil
}

// Prune implements store.Store. Metadata is scanned without loading the
// payload column.
func (s *Store) Prune(ctx context.Context, fn store.PruneFunc) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, path, version, updated_at, digest FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: scan: %w", err)
	}

	var doomed []string
	for rows.Next() {
		var sealed store.Sealed
		if err := rows.Scan(&sealed.Key, &sealed.Path, &sealed.Version, &sealed.UpdatedAt, &sealed.Digest); err != nil {
			rows.Close()
			return 0, fmt.Errorf("sqlitestore: scan: %w", err)
		}
		if fn(sealed.Meta()) {
			doomed = append(doomed, sealed.Key)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("sqlitestore: scan: %w", err)
	}
	rows.Close()

	if len(doomed) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: prune: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM entries WHERE key = ?`)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: prune: %w", err)
	}
	defer stmt.Close()

	for _, key := range doomed {
		if _, err := stmt.ExecContext(ctx, key); err != nil {
			return 0, fmt.Errorf("sqlitestore: prune %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlitestore: prune: %w", err)
	}
	return len(doomed), nil
}

// Stats implements store.Store.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	st := store.Stats{Backend: "sqlite"}
	var bytes, raw sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(length(data)), SUM(raw_size) FROM entries`,
	).Scan(&st.Entries, &bytes, &raw)
	if err != nil {
		return st, fmt.Errorf("sqlitestore: stats: %w", err)
	}
	st.Bytes = bytes.Int64
	st.RawBytes = raw.Int64
	return st, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)
