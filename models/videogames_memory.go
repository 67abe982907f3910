package models

import (
	"context"
	"fmt"
	"sort"
	"sync"

	e "github.com/microcosm-cc/gamecatalog/errors"
)

// MemoryVideoGameStore keeps video games in process. It serves the "memory"
// database driver for local runs and tests.
type MemoryVideoGameStore struct {
	mu     sync.RWMutex
	rows   map[int64]VideoGameType
	lastID int64
}

// NewMemoryVideoGameStore returns an empty store
func NewMemoryVideoGameStore() *MemoryVideoGameStore {
	return &MemoryVideoGameStore{rows: make(map[int64]VideoGameType)}
}

func (s *MemoryVideoGameStore) FindByID(ctx context.Context, id int64) (VideoGameType, bool, error) {
	if err := ctx.Err(); err != nil {
		return VideoGameType{}, false, fmt.Errorf("%w: %v", e.ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.rows[id]
	return m, ok, nil
}

func (s *MemoryVideoGameStore) ListAll(ctx context.Context) ([]VideoGameType, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	ems := make([]VideoGameType, 0, len(s.rows))
	for _, m := range s.rows {
		ems = append(ems, m)
	}
	s.mu.RUnlock()

	sort.Slice(ems, func(i, j int) bool { return ems[i].ID < ems[j].ID })
	return ems, nil
}

func (s *MemoryVideoGameStore) Insert(ctx context.Context, m VideoGameType) (VideoGameType, error) {
	if err := ctx.Err(); err != nil {
		return VideoGameType{}, fmt.Errorf("%w: %v", e.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	m.ID = s.lastID
	s.rows[m.ID] = m
	return m, nil
}

func (s *MemoryVideoGameStore) Update(ctx context.Context, m VideoGameType) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", e.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[m.ID]; !ok {
		return fmt.Errorf("%w: %s %d", e.ErrNotFound, VideoGamesCollection, m.ID)
	}
	s.rows[m.ID] = m
	return nil
}

func (s *MemoryVideoGameStore) Delete(ctx context.Context, m VideoGameType) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", e.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[m.ID]; !ok {
		return fmt.Errorf("%w: %s %d", e.ErrNotFound, VideoGamesCollection, m.ID)
	}
	delete(s.rows, m.ID)
	return nil
}

// Ping reports the store as reachable
func (s *MemoryVideoGameStore) Ping(context.Context) error {
	return nil
}
