package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend is an in-process Backend. It backs tests and single-process
// development runs; replicas do not share it.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryBackend returns an empty MemoryBackend using the wall clock
func NewMemoryBackend() *MemoryBackend {
	return NewMemoryBackendWithClock(time.Now)
}

// NewMemoryBackendWithClock returns an empty MemoryBackend that reads the
// time from now, so tests can move expiry forward without sleeping.
func NewMemoryBackendWithClock(now func() time.Time) *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Get returns a copy of the bytes held for key, or ErrCacheMiss if it is
// absent or expired.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	entry, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}

	if entry.expired(b.now()) {
		b.mu.Lock()
		if current, ok := b.entries[key]; ok && current.expired(b.now()) {
			delete(b.entries, key)
		}
		b.mu.Unlock()
		return nil, ErrCacheMiss
	}

	return append([]byte(nil), entry.value...), nil
}

// Set stores a copy of value under key
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl TTL) error {
	if err := ttl.Validate(); err != nil {
		return err
	}

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if d, ok := ttl.Duration(); ok {
		entry.expiresAt = b.now().Add(d)
	}

	b.mu.Lock()
	b.entries[key] = entry
	b.mu.Unlock()

	return nil
}

// Delete removes key. Idempotent.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.entries, key)
	b.mu.Unlock()
	return nil
}

// Ping always succeeds
func (b *MemoryBackend) Ping(_ context.Context) error {
	return nil
}

// Has reports whether key is present and unexpired
func (b *MemoryBackend) Has(key string) bool {
	b.mu.RLock()
	entry, ok := b.entries[key]
	b.mu.RUnlock()

	return ok && !entry.expired(b.now())
}

// Len returns the number of unexpired entries
func (b *MemoryBackend) Len() int {
	now := b.now()

	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, entry := range b.entries {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}

func (m memoryEntry) expired(now time.Time) bool {
	return !m.expiresAt.IsZero() && !now.Before(m.expiresAt)
}

var _ Backend = (*MemoryBackend)(nil)
