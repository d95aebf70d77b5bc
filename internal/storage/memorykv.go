package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/clock"
)

type memoryEntry struct {
	value   string
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// memoryKV is a KeyValueStore kept in a map. Expired keys are dropped
// lazily on access.
type memoryKV struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]memoryEntry
}

// NewMemoryKV creates an in-memory KeyValueStore whose expiry is measured
// against clk.
func NewMemoryKV(clk clock.Clock) KeyValueStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &memoryKV{clock: clk, entries: make(map[string]memoryEntry)}
}

// lookup returns the live entry for key. Caller must hold mu.
func (m *memoryKV) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if entry.expired(m.clock.Now()) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	return entry.value, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = m.clock.Now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *memoryKV) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	var n int64
	if ok {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incrementing %s: %w", key, ErrNotInteger)
		}
		n = parsed
	}
	n++
	entry.value = strconv.FormatInt(n, 10)
	m.entries[key] = entry
	return n, nil
}

func (m *memoryKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok {
		return nil
	}
	if ttl <= 0 {
		delete(m.entries, key)
		return nil
	}
	entry.expires = m.clock.Now().Add(ttl)
	m.entries[key] = entry
	return nil
}

func (m *memoryKV) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok || entry.expires.IsZero() {
		return 0, nil
	}
	return entry.expires.Sub(m.clock.Now()), nil
}

func (m *memoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *memoryKV) Close() error { return nil }
