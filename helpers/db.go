package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang/glog"

	// database/sql drivers
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite3  = "sqlite3"
	DriverMemory   = "memory"
)

// DBConfig stores the connection information used by OpenDB to establish a
// connection to the database
type DBConfig struct {
	Driver   string
	Host     string
	Port     int64
	Database string
	Username string
	Password string

	// DSN is the sqlite3 data source, a file path or ":memory:"
	DSN string
}

// DataSourceName returns the driver specific connection string
func (c DBConfig) DataSourceName() (string, error) {
	switch c.Driver {
	case DriverPostgres:
		return fmt.Sprintf(
			"user=%s dbname=%s host=%s port=%d password=%s sslmode=%s",
			c.Username,
			c.Database,
			c.Host,
			c.Port,
			c.Password,
			"disable",
		), nil
	case DriverSQLite3:
		if c.DSN == "" {
			return "", fmt.Errorf("sqlite3 needs a data source")
		}
		return c.DSN, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// OpenDB establishes the connection pool and checks the database answers
func OpenDB(ctx context.Context, c DBConfig) (*sql.DB, error) {
	dsn, err := c.DataSourceName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(c.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %v", err)
	}

	switch c.Driver {
	case DriverPostgres:
		// PostgreSQL max is 100, we need to be below that limit as there may
		// be connections from monitoring apps, migrations in process or active
		// debugging by staff
		db.SetMaxOpenConns(90)
		db.SetConnMaxIdleTime(5 * time.Minute)
	case DriverSQLite3:
		// Every connection to ":memory:" is a separate database, and sqlite
		// serialises writers anyway
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %v", err)
	}

	if glog.V(2) {
		glog.Infof("connected to %s database", c.Driver)
	}

	return db, nil
}

var schema = map[string][]string{
	DriverPostgres: {`
CREATE TABLE IF NOT EXISTS videogames (
    videogame_id BIGSERIAL PRIMARY KEY,
    title        VARCHAR(255) NOT NULL DEFAULT '',
    platform     VARCHAR(255) NOT NULL DEFAULT '',
    developer    VARCHAR(255) NOT NULL DEFAULT '',
    publisher    VARCHAR(255) NOT NULL DEFAULT ''
)`, `
CREATE TABLE IF NOT EXISTS videogame_audit (
    audit_id     BIGSERIAL PRIMARY KEY,
    videogame_id BIGINT NOT NULL,
    seen         TIMESTAMP WITH TIME ZONE NOT NULL,
    action       CHAR(1) NOT NULL,
    ip           INET NOT NULL
)`,
	},
	DriverSQLite3: {`
CREATE TABLE IF NOT EXISTS videogames (
    videogame_id INTEGER PRIMARY KEY AUTOINCREMENT,
    title        TEXT NOT NULL DEFAULT '' CHECK (length(title) <= 255),
    platform     TEXT NOT NULL DEFAULT '' CHECK (length(platform) <= 255),
    developer    TEXT NOT NULL DEFAULT '' CHECK (length(developer) <= 255),
    publisher    TEXT NOT NULL DEFAULT '' CHECK (length(publisher) <= 255)
)`, `
CREATE TABLE IF NOT EXISTS videogame_audit (
    audit_id     INTEGER PRIMARY KEY AUTOINCREMENT,
    videogame_id INTEGER NOT NULL,
    seen         TIMESTAMP NOT NULL,
    action       TEXT NOT NULL,
    ip           TEXT NOT NULL
)`,
	},
}

// EnsureSchema creates the catalog and audit tables if they do not exist
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	ddls, ok := schema[driver]
	if !ok {
		return fmt.Errorf("no schema for database driver %q", driver)
	}

	for _, ddl := range ddls {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("could not create schema: %v", err)
		}
	}

	return nil
}
