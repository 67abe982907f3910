package cache

import (
	"context"
	"errors"
	"fmt"

	e "github.com/microcosm-cc/gamecatalog/errors"
)

// DeserializationError is returned by Store.Get when the bytes held for a key
// cannot be decoded into the requested shape.
type DeserializationError struct {
	Key   string
	Codec string
	Err   error
}

func (d *DeserializationError) Error() string {
	return fmt.Sprintf("cache: decode %s with %s: %v", d.Key, d.Codec, d.Err)
}

func (d *DeserializationError) Unwrap() error {
	return d.Err
}

// Is lets errors.Is(err, e.ErrDeserialization) match
func (d *DeserializationError) Is(target error) bool {
	return target == e.ErrDeserialization
}

// Store is typed access to a Backend. It is safe for concurrent use when the
// Backend is.
type Store struct {
	backend Backend
	codec   Codec
}

// NewStore returns a Store that encodes values with codec
func NewStore(backend Backend, codec Codec) *Store {
	if codec == nil {
		codec = GobCodec{}
	}
	return &Store{backend: backend, codec: codec}
}

// Codec returns the codec values are encoded with
func (s *Store) Codec() Codec {
	return s.codec
}

// Get decodes the value held for key into dst, which must be a pointer. The
// bool is false when the key is absent. Undecodable bytes produce a
// *DeserializationError, never a miss.
func (s *Store) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	data, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return false, nil
		}
		return false, wrapUnavailable(err)
	}

	if err := s.codec.Unmarshal(data, dst); err != nil {
		return false, &DeserializationError{Key: key, Codec: s.codec.Name(), Err: err}
	}

	return true, nil
}

// Set encodes value and writes it under key
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl TTL) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ttl.Validate(); err != nil {
		return err
	}

	data, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s with %s: %v", key, s.codec.Name(), err)
	}

	if err := s.backend.Set(ctx, key, data, ttl); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// Remove deletes key. Removing an absent key succeeds.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := s.backend.Delete(ctx, key); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// Ping checks the backend is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.backend.Ping(ctx); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// Get is the typed form of Store.Get
func Get[T any](ctx context.Context, s *Store, key string) (T, bool, error) {
	var v T
	ok, err := s.Get(ctx, key, &v)
	if err != nil || !ok {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

// wrapUnavailable makes sure backend failures carry e.ErrCacheUnavailable
// whichever Backend produced them.
func wrapUnavailable(err error) error {
	if errors.Is(err, e.ErrCacheUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", e.ErrCacheUnavailable, err)
}
