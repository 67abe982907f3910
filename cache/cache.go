package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// MaxKeyLength is the longest key memcached accepts.
const MaxKeyLength = 250

var (
	// ErrCacheMiss is returned by a Backend when the key is absent or has
	// expired. Store.Get turns it into found == false.
	ErrCacheMiss = errors.New("cache: miss")

	// ErrInvalidKey is returned for keys the backend cannot store.
	ErrInvalidKey = errors.New("cache: key is invalid")

	// ErrInvalidTTL is returned when asked to expire an entry after a zero or
	// negative window. Use NoExpiry for entries that never expire.
	ErrInvalidTTL = errors.New("cache: ttl must be positive")
)

// TTL is the optional expiry of a cache entry. The zero value is NoExpiry.
type TTL struct {
	d   time.Duration
	set bool
}

// NoExpiry keeps an entry until it is removed or evicted by the backend.
var NoExpiry = TTL{}

// Expire returns a TTL that evicts the entry d after it was written.
func Expire(d time.Duration) TTL {
	return TTL{d: d, set: true}
}

// Duration returns the relative expiry and whether one is set.
func (t TTL) Duration() (time.Duration, bool) {
	return t.d, t.set
}

// Validate rejects zero-length and negative windows.
func (t TTL) Validate() error {
	if t.set && t.d <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTTL, t.d)
	}
	return nil
}

func (t TTL) String() string {
	if !t.set {
		return "no expiry"
	}
	return t.d.String()
}

// Backend is the raw byte-level cache the Store talks to.
//
// Implementations must be safe for concurrent use. Get returns ErrCacheMiss
// when the key is absent; Delete of an absent key is not an error.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl TTL) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// ValidateKey checks that key is something memcached will store: non-empty,
// at most MaxKeyLength bytes, and free of whitespace and control characters.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidKey, len(key), MaxKeyLength)
	}
	if strings.IndexFunc(key, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidKey, key)
	}
	return nil
}
