package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/golang/glog"

	e "github.com/microcosm-cc/gamecatalog/errors"
)

// maxRelativeExpiry is the longest expiration memcached treats as relative.
// Anything longer is read by the server as an absolute unix timestamp.
const maxRelativeExpiry = 60 * 60 * 24 * 30

// MemcacheConfig stores the connection information used by NewMemcacheBackend
type MemcacheConfig struct {
	Host         string
	Port         int64
	Timeout      time.Duration
	MaxIdleConns int
}

// MemcacheBackend stores entries in a memcached server
type MemcacheBackend struct {
	mc  *memcache.Client
	now func() time.Time
}

// NewMemcacheBackend creates the cache client. It is the responsibility of
// whatever has the values for this function (usually main.go shortly after
// reading the config file) to call this once and share the result.
func NewMemcacheBackend(c MemcacheConfig) *MemcacheBackend {
	mc := memcache.New(fmt.Sprintf("%s:%d", c.Host, c.Port))
	if c.Timeout > 0 {
		mc.Timeout = c.Timeout
	}
	if c.MaxIdleConns > 0 {
		mc.MaxIdleConns = c.MaxIdleConns
	}

	return &MemcacheBackend{mc: mc, now: time.Now}
}

// Get fetches the raw bytes held for key
func (b *MemcacheBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrCacheUnavailable, err)
	}

	item, err := b.mc.Get(key)
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return nil, ErrCacheMiss
		}
		if glog.V(2) {
			glog.Warningf("mc.Get(%s) %+v", key, err)
		}
		return nil, fmt.Errorf("%w: get %s: %v", e.ErrCacheUnavailable, key, err)
	}

	return item.Value, nil
}

// Set writes value under key with the given expiry
func (b *MemcacheBackend) Set(ctx context.Context, key string, value []byte, ttl TTL) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", e.ErrCacheUnavailable, err)
	}

	err := b.mc.Set(
		&memcache.Item{
			Key:        key,
			Value:      value,
			Expiration: expiration(ttl, b.now()),
		},
	)
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", e.ErrCacheUnavailable, key, err)
	}

	return nil
}

// Delete removes key. Deleting an absent key succeeds.
func (b *MemcacheBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", e.ErrCacheUnavailable, err)
	}

	err := b.mc.Delete(key)
	if err != nil && err != memcache.ErrCacheMiss {
		return fmt.Errorf("%w: delete %s: %v", e.ErrCacheUnavailable, key, err)
	}

	return nil
}

// Ping checks every configured server is reachable
func (b *MemcacheBackend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", e.ErrCacheUnavailable, err)
	}

	if err := b.mc.Ping(); err != nil {
		return fmt.Errorf("%w: ping: %v", e.ErrCacheUnavailable, err)
	}
	return nil
}

// expiration converts ttl to the value memcached expects on the wire: 0 for
// no expiry, whole seconds (rounded up) for relative windows up to 30 days,
// and an absolute unix timestamp beyond that.
func expiration(ttl TTL, now time.Time) int32 {
	d, ok := ttl.Duration()
	if !ok {
		return 0
	}

	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}

	if secs > maxRelativeExpiry {
		return int32(now.Add(d).Unix())
	}
	return int32(secs)
}

var _ Backend = (*MemcacheBackend)(nil)
