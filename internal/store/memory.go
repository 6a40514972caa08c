package store

import (
	"context"
	"sync"
)

// Memory is a Store kept in process memory. It seals entries like the
// persistent backends so the same integrity rules apply.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Sealed
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Sealed)}
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	s, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return Open(s)
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := Seal(e)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[e.Key] = s
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return ctx.Err()
}

// DeletePath implements Store.
func (m *Memory) DeletePath(ctx context.Context, path string) (int, error) {
	return m.Prune(ctx, func(e *Entry) bool { return e.Path == path })
}

// Clear implements Store.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]*Sealed)
	m.mu.Unlock()
	return ctx.Err()
}

// Prune implements Store.
func (m *Memory) Prune(ctx context.Context, fn PruneFunc) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key, s := range m.entries {
		if fn(s.Meta()) {
			delete(m.entries, key)
			n++
		}
	}
	return n, nil
}

// Stats implements Store.
func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{Backend: "memory", Entries: len(m.entries)}
	for _, s := range m.entries {
		st.Bytes += int64(len(s.Data))
		st.RawBytes += s.RawSize
	}
	return st, ctx.Err()
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// Corrupt overwrites the stored digest for key. It exists for tests of
// integrity handling in other packages.
func (m *Memory) Corrupt(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[key]
	if ok {
		s.Digest = Digest([]byte("corrupt"))
	}
	return ok
}

var _ Store = (*Memory)(nil)
