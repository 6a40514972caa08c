// Package storetest holds the conformance suite shared by every store
// backend.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/FocuswithJustin/JuniperTorah/internal/store"
)

// Factory opens a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

func entry(key, path, version string, at time.Time, payload string) *store.Entry {
	return &store.Entry{Key: key, Path: path, Version: version, UpdatedAt: at, Payload: []byte(payload)}
}

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	t.Run("LoadMissing", func(t *testing.T) {
		s := newStore(t)
		e, err := s.Load(ctx, "books")
		if err != nil || e != nil {
			t.Fatalf("Load(missing) = %v, %v; want nil, nil", e, err)
		}
	})

	t.Run("SaveLoadRoundTrip", func(t *testing.T) {
		s := newStore(t)
		payload := `{"book":"genesis","chapter":6,"verse":9,"hebrew":["אֵלֶּה","תּוֹלְדֹת","נֹחַ"]}`
		in := entry("verse:genesis:noach:006:009", "genesis/noach/noach-006-009.json", "1.0.0", now, payload)
		if err := s.Save(ctx, in); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if in.Digest == "" {
			t.Error("Save() should fill the digest")
		}

		out, err := s.Load(ctx, in.Key)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !bytes.Equal(out.Payload, []byte(payload)) {
			t.Errorf("payload = %s", out.Payload)
		}
		if out.Path != in.Path || out.Version != "1.0.0" || !out.UpdatedAt.Equal(now) || out.Digest != in.Digest {
			t.Errorf("entry = %+v", out)
		}
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		s := newStore(t)
		_ = s.Save(ctx, entry("books", "metadata/books.json", "1.0.0", now, `{"books":[]}`))
		_ = s.Save(ctx, entry("books", "metadata/books.json", "1.0.0", now, `{"books":[{"id":"genesis"}]}`))

		out, err := s.Load(ctx, "books")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if string(out.Payload) != `{"books":[{"id":"genesis"}]}` {
			t.Errorf("payload = %s", out.Payload)
		}
		st, _ := s.Stats(ctx)
		if st.Entries != 1 {
			t.Errorf("Entries = %d, want 1", st.Entries)
		}
	})

	t.Run("DeleteAndDeletePath", func(t *testing.T) {
		s := newStore(t)
		_ = s.Save(ctx, entry("books", "metadata/books.json", "1.0.0", now, `{}`))
		_ = s.Save(ctx, entry("lexicon", "metadata/hebrew-lexicon.json", "1.0.0", now, `{}`))
		_ = s.Save(ctx, entry("structure", "metadata/torah-structure.json", "1.0.0", now, `{}`))

		if err := s.Delete(ctx, "books"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := s.Delete(ctx, "never-saved"); err != nil {
			t.Fatalf("Delete(missing) error = %v", err)
		}
		n, err := s.DeletePath(ctx, "metadata/hebrew-lexicon.json")
		if err != nil || n != 1 {
			t.Fatalf("DeletePath() = %d, %v; want 1", n, err)
		}

		for _, key := range []string{"books", "lexicon"} {
			if e, _ := s.Load(ctx, key); e != nil {
				t.Errorf("%s should be gone", key)
			}
		}
		if e, _ := s.Load(ctx, "structure"); e == nil {
			t.Error("structure should survive")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s := newStore(t)
		for _, key := range []string{"books", "parashas", "commentators"} {
			_ = s.Save(ctx, entry(key, key+".json", "1.0.0", now, `{}`))
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		st, err := s.Stats(ctx)
		if err != nil || st.Entries != 0 || st.Bytes != 0 {
			t.Errorf("Stats() after Clear = %+v, %v", st, err)
		}
		if e, _ := s.Load(ctx, "books"); e != nil {
			t.Error("Clear() should not leave entries behind")
		}
	})

	t.Run("PruneStale", func(t *testing.T) {
		s := newStore(t)
		_ = s.Save(ctx, entry("fresh", "a.json", "1.0.0", now.Add(-time.Hour), `{}`))
		_ = s.Save(ctx, entry("old", "b.json", "1.0.0", now.Add(-25*time.Hour), `{}`))
		_ = s.Save(ctx, entry("bumped", "c.json", "0.9.0", now, `{}`))

		n, err := s.Prune(ctx, store.Stale("1.0.0", 24*time.Hour, now))
		if err != nil || n != 2 {
			t.Fatalf("Prune() = %d, %v; want 2", n, err)
		}
		if e, _ := s.Load(ctx, "fresh"); e == nil {
			t.Error("fresh entry should survive pruning")
		}
		for _, key := range []string{"old", "bumped"} {
			if e, _ := s.Load(ctx, key); e != nil {
				t.Errorf("%s should be pruned", key)
			}
		}
	})

	t.Run("StatsCountsBytes", func(t *testing.T) {
		s := newStore(t)
		payload := bytes.Repeat([]byte(`{"word":"בְּרֵאשִׁית"}`), 50)
		_ = s.Save(ctx, &store.Entry{Key: "chapter:genesis:beresheet:001", Path: "genesis/beresheet/chapter-001.json", Version: "1.0.0", UpdatedAt: now, Payload: payload})

		st, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if st.Entries != 1 || st.RawBytes != int64(len(payload)) {
			t.Errorf("Stats() = %+v", st)
		}
		if st.Bytes <= 0 || st.Bytes >= st.RawBytes {
			t.Errorf("compressed size %d should be positive and below %d", st.Bytes, st.RawBytes)
		}
		if st.Backend == "" {
			t.Error("Backend should be named")
		}
	})

	t.Run("SaveRequiresKey", func(t *testing.T) {
		s := newStore(t)
		if err := s.Save(ctx, &store.Entry{Payload: []byte(`{}`)}); err == nil {
			t.Error("Save() without key should fail")
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := s.Save(cctx, entry("books", "b.json", "1.0.0", now, `{}`)); !errors.Is(err, context.Canceled) {
			t.Errorf("Save(canceled) error = %v, want context.Canceled", err)
		}
	})
}
