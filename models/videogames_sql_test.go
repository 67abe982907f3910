package models

import (
	"context"
	"errors"
	"strings"
	"testing"

	e "github.com/microcosm-cc/gamecatalog/errors"
	h "github.com/microcosm-cc/gamecatalog/helpers"
)

func newSQLiteStore(t *testing.T) *SQLVideoGameStore {
	t.Helper()
	ctx := context.Background()

	db, err := h.OpenDB(ctx, h.DBConfig{Driver: h.DriverSQLite3, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("h.OpenDB() %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := h.EnsureSchema(ctx, db, h.DriverSQLite3); err != nil {
		t.Fatalf("h.EnsureSchema() %v", err)
	}

	return NewSQLVideoGameStore(db)
}

func TestSQLVideoGameStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() %v", err)
	}

	ems, err := s.ListAll(ctx)
	if err != nil || ems == nil || len(ems) != 0 {
		t.Fatalf("ListAll() of an empty table = %#v, %v", ems, err)
	}

	halo, err := s.Insert(ctx, VideoGameType{Title: "Halo", Platform: "Xbox"})
	if err != nil {
		t.Fatalf("Insert() %v", err)
	}
	myst, _ := s.Insert(ctx, VideoGameType{Title: "Myst", Developer: "Cyan"})
	if halo.ID == 0 || myst.ID <= halo.ID {
		t.Fatalf("Insert() ids = %d, %d", halo.ID, myst.ID)
	}

	got, ok, err := s.FindByID(ctx, halo.ID)
	if err != nil || !ok || got != halo {
		t.Errorf("FindByID(%d) = %+v, %v, %v, want %+v", halo.ID, got, ok, err, halo)
	}

	halo.Platform = "PC"
	if err := s.Update(ctx, halo); err != nil {
		t.Fatalf("Update() %v", err)
	}
	got, _, _ = s.FindByID(ctx, halo.ID)
	if got.Platform != "PC" {
		t.Errorf("Update() stored platform %q", got.Platform)
	}

	if err := s.Delete(ctx, myst); err != nil {
		t.Fatalf("Delete() %v", err)
	}
	if _, ok, _ := s.FindByID(ctx, myst.ID); ok {
		t.Errorf("FindByID() found a deleted row")
	}

	ems, _ = s.ListAll(ctx)
	if len(ems) != 1 || ems[0] != halo {
		t.Errorf("ListAll() = %+v, want [%+v]", ems, halo)
	}
}

func TestSQLVideoGameStoreMissingRows(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	if _, ok, err := s.FindByID(ctx, 999); ok || err != nil {
		t.Errorf("FindByID(999) = %v, %v, want false, nil", ok, err)
	}
	if err := s.Update(ctx, VideoGameType{ID: 999, Title: "X"}); !errors.Is(err, e.ErrNotFound) {
		t.Errorf("Update(999) error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, VideoGameType{ID: 999}); !errors.Is(err, e.ErrNotFound) {
		t.Errorf("Delete(999) error = %v, want ErrNotFound", err)
	}
}

func TestSQLVideoGameStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.Insert(ctx, VideoGameType{Title: strings.Repeat("t", MaxFieldLength+1)})
	if !errors.Is(err, e.ErrInvalidInput) {
		t.Errorf("Insert() of an overlong title error = %v, want ErrInvalidInput", err)
	}

	s.db.Close()
	if _, err := s.ListAll(ctx); !errors.Is(err, e.ErrStoreUnavailable) {
		t.Errorf("ListAll() on a closed pool error = %v, want ErrStoreUnavailable", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, e.ErrStoreUnavailable) {
		t.Errorf("Ping() on a closed pool error = %v, want ErrStoreUnavailable", err)
	}
}
