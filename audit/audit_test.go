package audit

import (
	"context"
	"net"
	"testing"
	"time"

	h "github.com/microcosm-cc/gamecatalog/helpers"
)

func TestRecorderWritesActions(t *testing.T) {
	ctx := context.Background()

	db, err := h.OpenDB(ctx, h.DBConfig{Driver: h.DriverSQLite3, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("h.OpenDB() %v", err)
	}
	defer db.Close()
	if err := h.EnsureSchema(ctx, db, h.DriverSQLite3); err != nil {
		t.Fatalf("h.EnsureSchema() %v", err)
	}

	r := New(db)
	ip := net.ParseIP("192.0.2.10")
	seen := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	r.Create(ctx, 7, seen, ip)
	r.Update(ctx, 7, seen, ip)
	r.Delete(ctx, 7, seen, ip)
	r.Delete(ctx, 8, seen, nil)

	rows, err := db.QueryContext(ctx, `
SELECT action, ip
  FROM videogame_audit
 WHERE videogame_id = $1
 ORDER BY audit_id`, 7)
	if err != nil {
		t.Fatalf("select audit rows: %v", err)
	}
	defer rows.Close()

	var actions string
	for rows.Next() {
		var action, addr string
		if err := rows.Scan(&action, &addr); err != nil {
			t.Fatalf("scan audit row: %v", err)
		}
		if addr != "192.0.2.10" {
			t.Errorf("audit ip = %s should be 192.0.2.10", addr)
		}
		actions += action
	}

	if actions != "CUD" {
		t.Errorf("audit actions = %q should be CUD", actions)
	}

	var n int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videogame_audit WHERE videogame_id = 8`).Scan(&n)
	if n != 0 {
		t.Errorf("an action without an ip address was recorded")
	}
}

func TestRecorderWithoutDatabase(t *testing.T) {
	var nilRecorder *Recorder
	nilRecorder.Create(context.Background(), 1, time.Now(), net.ParseIP("::1"))

	New(nil).Update(context.Background(), 1, time.Now(), net.ParseIP("::1"))
}
