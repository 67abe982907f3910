package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	e "github.com/microcosm-cc/gamecatalog/errors"
)

// SQLVideoGameStore is the authoritative video game store on postgres or
// sqlite3. Both drivers accept the same statements.
type SQLVideoGameStore struct {
	db *sql.DB
}

// NewSQLVideoGameStore returns a store over an open connection pool
func NewSQLVideoGameStore(db *sql.DB) *SQLVideoGameStore {
	return &SQLVideoGameStore{db: db}
}

// Ping checks the database is reachable
func (s *SQLVideoGameStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}

// FindByID returns the video game with id, reporting false if no row exists
func (s *SQLVideoGameStore) FindByID(ctx context.Context, id int64) (VideoGameType, bool, error) {
	m := VideoGameType{}
	err := s.db.QueryRowContext(ctx, `
SELECT videogame_id
      ,title
      ,platform
      ,developer
      ,publisher
  FROM videogames
 WHERE videogame_id = $1`,
		id,
	).Scan(
		&m.ID,
		&m.Title,
		&m.Platform,
		&m.Developer,
		&m.Publisher,
	)
	if err == sql.ErrNoRows {
		return VideoGameType{}, false, nil
	} else if err != nil {
		return VideoGameType{}, false, storeError("select videogame", err)
	}

	return m, true, nil
}

// ListAll returns every video game ordered by id
func (s *SQLVideoGameStore) ListAll(ctx context.Context) ([]VideoGameType, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT videogame_id
      ,title
      ,platform
      ,developer
      ,publisher
  FROM videogames
 ORDER BY videogame_id`,
	)
	if err != nil {
		return nil, storeError("select videogames", err)
	}
	defer rows.Close()

	ems := []VideoGameType{}
	for rows.Next() {
		m := VideoGameType{}
		err = rows.Scan(
			&m.ID,
			&m.Title,
			&m.Platform,
			&m.Developer,
			&m.Publisher,
		)
		if err != nil {
			return nil, storeError("scan videogames", err)
		}
		ems = append(ems, m)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError("iterate videogames", err)
	}

	return ems, nil
}

// Insert saves m and returns it with the assigned id
func (s *SQLVideoGameStore) Insert(ctx context.Context, m VideoGameType) (VideoGameType, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return VideoGameType{}, storeError("begin", err)
	}
	defer tx.Rollback()

	var insertID int64
	err = tx.QueryRowContext(ctx, `
INSERT INTO videogames (
    title, platform, developer, publisher
) VALUES (
    $1, $2, $3, $4
) RETURNING videogame_id`,
		m.Title,
		m.Platform,
		m.Developer,
		m.Publisher,
	).Scan(&insertID)
	if err != nil {
		return VideoGameType{}, storeError("insert videogame", err)
	}

	if err = tx.Commit(); err != nil {
		return VideoGameType{}, storeError("commit", err)
	}

	m.ID = insertID
	return m, nil
}

// Update overwrites every field of the row with m.ID
func (s *SQLVideoGameStore) Update(ctx context.Context, m VideoGameType) error {
	return s.execOne(ctx, "update videogame", m.ID, `
UPDATE videogames
   SET title = $2
      ,platform = $3
      ,developer = $4
      ,publisher = $5
 WHERE videogame_id = $1`,
		m.ID,
		m.Title,
		m.Platform,
		m.Developer,
		m.Publisher,
	)
}

// Delete removes the row with m.ID
func (s *SQLVideoGameStore) Delete(ctx context.Context, m VideoGameType) error {
	return s.execOne(ctx, "delete videogame", m.ID, `
DELETE FROM videogames
 WHERE videogame_id = $1`,
		m.ID,
	)
}

// execOne runs a statement inside a transaction and expects it to touch
// exactly the row with id
func (s *SQLVideoGameStore) execOne(
	ctx context.Context,
	op string,
	id int64,
	query string,
	args ...interface{},
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return storeError(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storeError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", e.ErrNotFound, VideoGamesCollection, id)
	}

	if err = tx.Commit(); err != nil {
		return storeError("commit", err)
	}

	return nil
}

// storeError classifies a driver error. Data the database refuses to hold is
// the caller's fault, everything else means the store is unavailable.
func storeError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "22" {
		return fmt.Errorf("%w: %s: %s", e.ErrInvalidInput, op, pqErr.Message)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s: %v", e.ErrInvalidInput, op, liteErr)
	}

	return fmt.Errorf("%w: %s: %v", e.ErrStoreUnavailable, op, err)
}
