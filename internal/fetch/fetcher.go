// Package fetch retrieves data documents through a two-level cache: an
// in-process memo that lives for the session and a persistent store that
// survives restarts until entries go stale.
package fetch

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FocuswithJustin/JuniperTorah/core/cache"
	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
	"github.com/FocuswithJustin/JuniperTorah/internal/store"
)

// Options configures a Fetcher.
type Options struct {
	// SchemaVersion tags persisted entries; entries of another version are stale.
	SchemaVersion string

	// StaleAfter is the maximum age of a persisted entry (0 = never stale).
	StaleAfter time.Duration

	// MemoSize caps the memo by entry count (0 = unlimited).
	MemoSize int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Stats reports cache activity.
type Stats struct {
	SchemaVersion string      `json:"schemaVersion"`
	Memo          cache.Stats `json:"memo"`
	StoreHits     int64       `json:"storeHits"`
	Fetches       int64       `json:"fetches"`
	Failures      int64       `json:"failures"`
	PersistErrors int64       `json:"persistErrors"`
	Store         store.Stats `json:"store"`
}

// Fetcher is the explicit cache object shared by the loader, the server and
// the CLI. It is safe for concurrent use. Concurrent misses on one key are
// not coalesced; the last writer wins.
type Fetcher struct {
	source Source
	store  store.Store
	memo   *cache.DocumentCache
	opts   Options

	initOnce sync.Once
	initErr  error

	storeHits     atomic.Int64
	fetches       atomic.Int64
	failures      atomic.Int64
	persistErrors atomic.Int64
}

// New creates a Fetcher. A nil store disables persistence.
func New(src Source, st store.Store, opts Options) *Fetcher {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if st == nil {
		st = store.NewMemory()
	}
	return &Fetcher{
		source: src,
		store:  st,
		memo:   cache.NewDocumentCache(cache.Config{MaxSize: opts.MemoSize}, 0),
		opts:   opts,
	}
}

// Source returns the document source.
func (f *Fetcher) Source() Source { return f.source }

// Init prunes stale and old-version persisted entries. Only the first call
// per Fetcher does any work; later calls return the first result.
func (f *Fetcher) Init(ctx context.Context) error {
	f.initOnce.Do(func() {
		n, err := f.store.Prune(ctx, store.Stale(f.opts.SchemaVersion, f.opts.StaleAfter, f.opts.Now()))
		if err != nil {
			f.initErr = errors.Wrap(err, "prune persistent cache")
			return
		}
		if n > 0 {
			logging.Info("cache_pruned", "entries", n, "schema_version", f.opts.SchemaVersion)
		}
	})
	return f.initErr
}

// Get returns the raw JSON document for kind and key parts.
func (f *Fetcher) Get(ctx context.Context, kind Kind, parts ...string) ([]byte, error) {
	return f.Load(ctx, Resource{Kind: kind, Parts: parts})
}

// Load returns the raw JSON document for r. Lookups go memo, then fresh
// persisted entry, then source. A failed fetch leaves both caches as they
// were; a failed persist is logged and ignored.
func (f *Fetcher) Load(ctx context.Context, r Resource) ([]byte, error) {
	return f.load(ctx, r, nil)
}

// load is Load with an extra acceptance check run on the document before it
// is returned. A fetched document is cached only once it passes; a cached
// copy that fails is dropped and fetched again.
func (f *Fetcher) load(ctx context.Context, r Resource, accept func([]byte) error) ([]byte, error) {
	key := r.Key()
	rel, err := r.Path()
	if err != nil {
		return nil, &errors.ValidationError{Field: "resource", Value: key, Message: err.Error()}
	}

	if doc, ok := f.memo.Get(key); ok {
		if accept == nil || accept(doc) == nil {
			logging.CacheEvent(ctx, "memo_hit", key)
			return doc, nil
		}
		f.forget(ctx, key)
	}

	if doc, ok := f.loadPersisted(ctx, key); ok {
		if accept == nil || accept(doc) == nil {
			f.memo.Put(key, doc)
			return doc, nil
		}
		f.forget(ctx, key)
	}

	start := time.Now()
	body, status, err := f.source.Fetch(ctx, rel)
	logging.ResourceFetch(ctx, string(r.Kind), rel, status, time.Since(start), "ok", err == nil)
	f.fetches.Add(1)
	if err != nil {
		f.failures.Add(1)
		var nf *errors.NotFoundError
		if errors.As(err, &nf) {
			return nil, &errors.NotFoundError{Resource: string(r.Kind), ID: rel, Status: nf.Status, Err: nf.Err}
		}
		return nil, err
	}
	if !json.Valid(body) {
		f.failures.Add(1)
		return nil, errors.NewParse("JSON", rel, "malformed document")
	}
	if accept != nil {
		if err := accept(body); err != nil {
			f.failures.Add(1)
			return nil, &errors.ParseError{Format: "JSON", Path: rel, Message: err.Error(), Err: err}
		}
	}

	f.memo.Put(key, body)
	f.persist(ctx, key, rel, body)
	return body, nil
}

// forget drops one key from the memo and the persistent store.
func (f *Fetcher) forget(ctx context.Context, key string) {
	f.memo.Remove(key)
	if err := f.store.Delete(ctx, key); err != nil {
		logging.WarnContext(ctx, "persistent cache delete failed", "key", key, "error", err)
	}
	logging.CacheEvent(ctx, "rejected", key)
}

func (f *Fetcher) loadPersisted(ctx context.Context, key string) ([]byte, bool) {
	e, err := f.store.Load(ctx, key)
	if err != nil {
		if store.IsCorrupt(err) {
			logging.CacheEvent(ctx, "corrupt", key, "error", err.Error())
		} else {
			logging.WarnContext(ctx, "persistent cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	if e == nil {
		return nil, false
	}
	if !e.Fresh(f.opts.SchemaVersion, f.opts.StaleAfter, f.opts.Now()) {
		logging.CacheEvent(ctx, "stale", key, "version", e.Version, "updated_at", e.UpdatedAt)
		return nil, false
	}
	f.storeHits.Add(1)
	logging.CacheEvent(ctx, "store_hit", key)
	return e.Payload, true
}

func (f *Fetcher) persist(ctx context.Context, key, rel string, body []byte) {
	err := f.store.Save(ctx, &store.Entry{
		Key:       key,
		Path:      rel,
		Version:   f.opts.SchemaVersion,
		UpdatedAt: f.opts.Now(),
		Payload:   body,
	})
	if err != nil {
		f.persistErrors.Add(1)
		logging.CacheEvent(ctx, "persist_failed", key, "error", err.Error())
	}
}

// Clear empties the memo and the persistent store. Nothing cleared is
// served again without a new fetch.
func (f *Fetcher) Clear(ctx context.Context) error {
	f.memo.Clear()
	if err := f.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "clear persistent cache")
	}
	logging.CacheEvent(ctx, "cleared", "*")
	return nil
}

// Invalidate drops every cached copy of the document at rel, a path
// relative to the data root. It returns the number of entries removed.
func (f *Fetcher) Invalidate(ctx context.Context, rel string) (int, error) {
	rel = strings.TrimPrefix(rel, "/")
	n := 0
	for _, key := range f.memo.Keys() {
		r, err := ParseKey(key)
		if err != nil {
			continue
		}
		if p, err := r.Path(); err == nil && p == rel {
			f.memo.Remove(key)
			n++
		}
	}
	removed, err := f.store.DeletePath(ctx, rel)
	if err != nil {
		return n, errors.Wrapf(err, "invalidate %s", rel)
	}
	if n+removed > 0 {
		logging.CacheEvent(ctx, "invalidated", rel, "memo", n, "store", removed)
	}
	return n + removed, nil
}

// Stats reports cache activity and persistent store contents.
func (f *Fetcher) Stats(ctx context.Context) (Stats, error) {
	st := Stats{
		SchemaVersion: f.opts.SchemaVersion,
		Memo:          f.memo.Stats(),
		StoreHits:     f.storeHits.Load(),
		Fetches:       f.fetches.Load(),
		Failures:      f.failures.Load(),
		PersistErrors: f.persistErrors.Load(),
	}
	ss, err := f.store.Stats(ctx)
	if err != nil {
		return st, err
	}
	st.Store = ss
	return st, nil
}

// Close releases the persistent store.
func (f *Fetcher) Close() error {
	return f.store.Close()
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (Resource, error) {
	fields := strings.Split(key, ":")
	r := Resource{Kind: Kind(fields[0])}
	if len(fields) > 1 {
		r.Parts = fields[1:]
	}
	if _, err := r.Path(); err != nil {
		return Resource{}, err
	}
	return r, nil
}
