package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	h "github.com/microcosm-cc/gamecatalog/helpers"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.conf")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("os.WriteFile() %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "[api]\n"))
	if err != nil {
		t.Fatalf("Load() %v", err)
	}

	if c.ListTTL != 300*time.Second || c.ItemTTL != 600*time.Second {
		t.Errorf("default ttls = %s, %s should be 5m0s, 10m0s", c.ListTTL, c.ItemTTL)
	}
	if c.Database.Driver != h.DriverPostgres || c.CacheBackend != BackendMemcache {
		t.Errorf("default backends = %s, %s", c.Database.Driver, c.CacheBackend)
	}
	if c.ListenPort != 8080 {
		t.Errorf("default listen port = %d should be 8080", c.ListenPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	c, err := Load(writeConfig(t, strings.Join([]string{
		"[api]",
		"listen_port: 9000",
		"max_connections: 64",
		"database_driver: sqlite3",
		"database_dsn: /var/lib/gamecatalog/catalog.db",
		"database_password: p%(ss)s",
		"cache_backend: memcache",
		"memcached_host: cache.internal",
		"memcached_port: 11212",
		"memcached_timeout_ms: 250",
		"cache_codec: msgpack",
		"cache_list_ttl: 60",
		"cache_item_ttl: 120",
		"",
	}, "\n")))
	if err != nil {
		t.Fatalf("Load() %v", err)
	}

	if c.ListenPort != 9000 || c.MaxConnections != 64 {
		t.Errorf("listener = %d, %d", c.ListenPort, c.MaxConnections)
	}
	if c.Database.Driver != h.DriverSQLite3 || c.Database.DSN != "/var/lib/gamecatalog/catalog.db" {
		t.Errorf("database = %+v", c.Database)
	}
	if c.Database.Password != "p%(ss)s" {
		t.Errorf("password = %q, should be read without expansion", c.Database.Password)
	}
	if c.Memcache.Host != "cache.internal" || c.Memcache.Port != 11212 || c.Memcache.Timeout != 250*time.Millisecond {
		t.Errorf("memcache = %+v", c.Memcache)
	}
	if c.CacheCodec != "msgpack" || c.ListTTL != time.Minute || c.ItemTTL != 2*time.Minute {
		t.Errorf("cache = %s, %s, %s", c.CacheCodec, c.ListTTL, c.ItemTTL)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"missing section":         "[other]\nlisten_port: 1\n",
		"item ttl below list ttl": "[api]\ncache_list_ttl: 600\ncache_item_ttl: 300\n",
		"zero list ttl":           "[api]\ncache_list_ttl: 0\n",
		"non numeric port":        "[api]\nlisten_port: eighty\n",
		"port out of range":       "[api]\nlisten_port: 70000\n",
		"unknown driver":          "[api]\ndatabase_driver: mysql\n",
		"sqlite without dsn":      "[api]\ndatabase_driver: sqlite3\n",
		"unknown codec":           "[api]\ncache_codec: xml\n",
		"unknown cache backend":   "[api]\ncache_backend: redis\n",
	}

	for name, body := range tests {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: Load() = nil error", name)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.conf")); err == nil {
		t.Errorf("Load() of a missing file returned no error")
	}
}
