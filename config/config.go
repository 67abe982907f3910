package config

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	goconfig "github.com/robfig/config"

	"github.com/microcosm-cc/gamecatalog/cache"
	h "github.com/microcosm-cc/gamecatalog/helpers"
)

// ConfigFilePath is the default path to the config file
const ConfigFilePath string = "/etc/gamecatalog/api.conf"

// APISection is the [api] section of the config file
const APISection string = "api"

// Config file keys
const (
	ListenPort     = "listen_port"
	MaxConnections = "max_connections"

	DatabaseDriver   = "database_driver"
	DatabaseHost     = "database_host"
	DatabasePort     = "database_port"
	DatabaseName     = "database_database"
	DatabaseUsername = "database_username"
	DatabasePassword = "database_password"
	DatabaseDSN      = "database_dsn"

	CacheBackend       = "cache_backend"
	MemcachedHost      = "memcached_host"
	MemcachedPort      = "memcached_port"
	MemcachedTimeoutMS = "memcached_timeout_ms"
	CacheCodec         = "cache_codec"
	CacheListTTL       = "cache_list_ttl"
	CacheItemTTL       = "cache_item_ttl"
)

// Cache backends
const (
	BackendMemcache = "memcache"
	BackendMemory   = "memory"
)

// Config is everything main needs to build the service
type Config struct {
	ListenPort     int
	MaxConnections int

	Database h.DBConfig

	CacheBackend string
	Memcache     cache.MemcacheConfig
	CacheCodec   string
	ListTTL      time.Duration
	ItemTTL      time.Duration
}

// Default returns the configuration used for keys the file omits
func Default() *Config {
	return &Config{
		ListenPort:     8080,
		MaxConnections: 512,
		Database: h.DBConfig{
			Driver:   h.DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			Database: "gamecatalog",
			Username: "gamecatalog",
		},
		CacheBackend: BackendMemcache,
		Memcache: cache.MemcacheConfig{
			Host:    "localhost",
			Port:    11211,
			Timeout: 500 * time.Millisecond,
		},
		CacheCodec: cache.CodecGob,
		ListTTL:    300 * time.Second,
		ItemTTL:    600 * time.Second,
	}
}

// Load reads the [api] section of the ini file at path over the defaults and
// validates the result
func Load(path string) (*Config, error) {
	f, err := goconfig.ReadDefault(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %v", path, err)
	}
	if !f.HasSection(APISection) {
		return nil, fmt.Errorf("%s has no [%s] section", path, APISection)
	}

	r := reader{f: f}
	c := Default()

	r.int(ListenPort, &c.ListenPort)
	r.int(MaxConnections, &c.MaxConnections)

	r.string(DatabaseDriver, &c.Database.Driver)
	r.string(DatabaseHost, &c.Database.Host)
	r.int64(DatabasePort, &c.Database.Port)
	r.string(DatabaseName, &c.Database.Database)
	r.string(DatabaseUsername, &c.Database.Username)
	r.raw(DatabasePassword, &c.Database.Password)
	r.string(DatabaseDSN, &c.Database.DSN)

	r.string(CacheBackend, &c.CacheBackend)
	r.string(MemcachedHost, &c.Memcache.Host)
	r.int64(MemcachedPort, &c.Memcache.Port)
	r.millis(MemcachedTimeoutMS, &c.Memcache.Timeout)
	r.string(CacheCodec, &c.CacheCodec)
	r.seconds(CacheListTTL, &c.ListTTL)
	r.seconds(CacheItemTTL, &c.ItemTTL)

	if r.err != nil {
		return nil, fmt.Errorf("%s: %v", path, r.err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}

	if glog.V(2) {
		glog.Infof("loaded config from %s", path)
	}

	return c, nil
}

// Validate checks the values are usable together
func (c *Config) Validate() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("%s %d is not a valid port", ListenPort, c.ListenPort)
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("%s must be positive, got %d", MaxConnections, c.MaxConnections)
	}

	switch c.Database.Driver {
	case h.DriverPostgres:
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("%s %d is not a valid port", DatabasePort, c.Database.Port)
		}
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("postgres needs %s and %s", DatabaseHost, DatabaseName)
		}
	case h.DriverSQLite3:
		if c.Database.DSN == "" {
			return fmt.Errorf("sqlite3 needs %s", DatabaseDSN)
		}
	case h.DriverMemory:
	default:
		return fmt.Errorf("unknown %s %q", DatabaseDriver, c.Database.Driver)
	}

	switch c.CacheBackend {
	case BackendMemcache:
		if c.Memcache.Port < 1 || c.Memcache.Port > 65535 {
			return fmt.Errorf("%s %d is not a valid port", MemcachedPort, c.Memcache.Port)
		}
		if c.Memcache.Host == "" {
			return fmt.Errorf("memcache needs %s", MemcachedHost)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown %s %q", CacheBackend, c.CacheBackend)
	}

	if _, err := cache.CodecByName(c.CacheCodec); err != nil {
		return err
	}

	if c.ListTTL <= 0 {
		return fmt.Errorf("%s must be positive, got %s", CacheListTTL, c.ListTTL)
	}
	if c.ItemTTL < c.ListTTL {
		return fmt.Errorf("%s %s must not be shorter than %s %s",
			CacheItemTTL, c.ItemTTL, CacheListTTL, c.ListTTL)
	}

	return nil
}

// reader copies present options over defaults and keeps the first error
type reader struct {
	f   *goconfig.Config
	err error
}

func (r *reader) has(key string) bool {
	return r.err == nil && r.f.HasOption(APISection, key)
}

func (r *reader) string(key string, dst *string) {
	if !r.has(key) {
		return
	}
	s, err := r.f.String(APISection, key)
	if err != nil {
		r.err = err
		return
	}
	*dst = s
}

// raw skips %(name)s expansion, which passwords must not go through
func (r *reader) raw(key string, dst *string) {
	if !r.has(key) {
		return
	}
	s, err := r.f.RawString(APISection, key)
	if err != nil {
		r.err = err
		return
	}
	*dst = s
}

func (r *reader) int(key string, dst *int) {
	if !r.has(key) {
		return
	}
	i, err := r.f.Int(APISection, key)
	if err != nil {
		r.err = fmt.Errorf("%s: %v", key, err)
		return
	}
	*dst = i
}

func (r *reader) int64(key string, dst *int64) {
	var i int
	r.int(key, &i)
	if r.has(key) {
		*dst = int64(i)
	}
}

func (r *reader) seconds(key string, dst *time.Duration) {
	var i int
	r.int(key, &i)
	if r.has(key) {
		*dst = time.Duration(i) * time.Second
	}
}

func (r *reader) millis(key string, dst *time.Duration) {
	var i int
	r.int(key, &i)
	if r.has(key) {
		*dst = time.Duration(i) * time.Millisecond
	}
}
