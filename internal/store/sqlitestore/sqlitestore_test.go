package sqlitestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/FocuswithJustin/JuniperTorah/internal/store"
	"github.com/FocuswithJustin/JuniperTorah/internal/store/storetest"
)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t, t.TempDir())
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	e := &store.Entry{Key: "parashas", Path: "metadata/parashas.json", Version: "1.0.0", UpdatedAt: time.Now(), Payload: []byte(`{"genesis":[]}`)}
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := os.Stat(s.Path()); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	s2 := openTestStore(t, dir)
	got, err := s2.Load(ctx, "parashas")
	if err != nil || got == nil {
		t.Fatalf("Load() after reopen = %v, %v", got, err)
	}
	if string(got.Payload) != `{"genesis":[]}` {
		t.Errorf("payload = %s", got.Payload)
	}
}

func TestLoadDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, t.TempDir())

	_ = s.Save(ctx, &store.Entry{Key: "books", Path: "metadata/books.json", Version: "1.0.0", UpdatedAt: time.Now(), Payload: []byte(`{"books":[]}`)})
	if _, err := s.db.ExecContext(ctx, `UPDATE entries SET digest = 'deadbeef' WHERE key = 'books'`); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	if _, err := s.Load(ctx, "books"); !store.IsCorrupt(err) {
		t.Errorf("Load() error = %v, want corrupt", err)
	}
}
