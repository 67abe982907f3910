package models

import (
	"context"
	"database/sql"

	"github.com/golang/glog"

	"github.com/microcosm-cc/gamecatalog/audit"
	"github.com/microcosm-cc/gamecatalog/cache"
	conf "github.com/microcosm-cc/gamecatalog/config"
	h "github.com/microcosm-cc/gamecatalog/helpers"
)

// PingableVideoGameStore is a record store that can report its health
type PingableVideoGameStore interface {
	VideoGameStore
	Ping(ctx context.Context) error
}

// Catalog holds the shared clients of one process. It is the responsibility
// of main to open it once, inject its parts and Close it on exit.
type Catalog struct {
	Games   *VideoGames
	Records PingableVideoGameStore
	Cache   *cache.Store
	Audit   *audit.Recorder

	db *sql.DB
}

// OpenCatalog connects the record store and the cache named by c
func OpenCatalog(ctx context.Context, c *conf.Config) (*Catalog, error) {
	cat := &Catalog{}

	if glog.V(2) {
		glog.Infof("Initialising %s record store", c.Database.Driver)
	}
	if c.Database.Driver == h.DriverMemory {
		cat.Records = NewMemoryVideoGameStore()
	} else {
		db, err := h.OpenDB(ctx, c.Database)
		if err != nil {
			return nil, err
		}
		if err := h.EnsureSchema(ctx, db, c.Database.Driver); err != nil {
			db.Close()
			return nil, err
		}
		cat.db = db
		cat.Records = NewSQLVideoGameStore(db)
	}
	cat.Audit = audit.New(cat.db)

	if glog.V(2) {
		glog.Infof("Initialising %s cache with %s codec", c.CacheBackend, c.CacheCodec)
	}
	codec, err := cache.CodecByName(c.CacheCodec)
	if err != nil {
		cat.Close()
		return nil, err
	}

	var backend cache.Backend
	if c.CacheBackend == conf.BackendMemory {
		backend = cache.NewMemoryBackend()
	} else {
		backend = cache.NewMemcacheBackend(c.Memcache)
	}
	cat.Cache = cache.NewStore(backend, codec)

	cat.Games, err = NewVideoGames(cat.Records, cat.Cache, c.ListTTL, c.ItemTTL)
	if err != nil {
		cat.Close()
		return nil, err
	}

	return cat, nil
}

// Close releases the database pool, if there is one
func (cat *Catalog) Close() error {
	if cat.db == nil {
		return nil
	}
	return cat.db.Close()
}
