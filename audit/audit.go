package audit

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/golang/glog"
)

// Internal single-char indication of the auditable actions
const (
	create = `C`
	update = `U`
	delete = `D`
)

// Recorder appends catalog mutations to the audit log. Recording is best
// effort: failures are logged and never fail the request that caused them.
type Recorder struct {
	db *sql.DB
}

// New returns a Recorder writing to db. A nil db logs the actions instead,
// which is what the in-memory record store uses.
func New(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Create records an insert/create/POST action
func (r *Recorder) Create(ctx context.Context, itemID int64, seen time.Time, ipAddress net.IP) {
	r.recordAction(ctx, itemID, seen, ipAddress, create)
}

// Update records a partial update/PUT action
func (r *Recorder) Update(ctx context.Context, itemID int64, seen time.Time, ipAddress net.IP) {
	r.recordAction(ctx, itemID, seen, ipAddress, update)
}

// Delete records a remove/DELETE action
func (r *Recorder) Delete(ctx context.Context, itemID int64, seen time.Time, ipAddress net.IP) {
	r.recordAction(ctx, itemID, seen, ipAddress, delete)
}

// recordAction actually appends to the audit log
func (r *Recorder) recordAction(
	ctx context.Context,
	itemID int64,
	seen time.Time,
	ipAddress net.IP,
	action string,
) {
	if r == nil {
		return
	}

	if ipAddress == nil {
		if glog.V(2) {
			glog.Infof("IP Address was nil for videogame %d", itemID)
		}
		return
	}

	if r.db == nil {
		glog.Infof("audit %s videogame %d from %s", action, itemID, ipAddress)
		return
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO videogame_audit (
    videogame_id, seen, action, ip
) VALUES (
    $1, $2, $3, $4
)`,
		itemID,
		seen.UTC(),
		action,
		ipAddress.String(),
	)
	if err != nil {
		glog.Error(err)
		return
	}
}
