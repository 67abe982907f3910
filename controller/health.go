package controller

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/golang/glog"

	"github.com/microcosm-cc/gamecatalog/models"
)

// Pinger is anything that can report whether it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports on the collaborators the catalog depends on
type HealthController struct {
	Checks  map[string]Pinger
	Timeout time.Duration
}

// NewHealthController returns a controller that pings each check by name
func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{Checks: checks, Timeout: 2 * time.Second}
}

// Handler answers GET with the state of each check
func (ctl *HealthController) Handler(w http.ResponseWriter, r *http.Request) {
	c := models.MakeContext(r, w)

	switch c.GetHTTPMethod() {
	case http.MethodOptions:
		c.RespondWithOptions([]string{"OPTIONS", "HEAD", "GET"})
		return
	case http.MethodHead:
		ctl.Read(c)
	case http.MethodGet:
		ctl.Read(c)
	default:
		c.RespondWithMethodNotAllowed([]string{"OPTIONS", "HEAD", "GET"})
		return
	}
}

// Read responds 200 when every check passes and 503 otherwise. The body
// names the state of each component.
func (ctl *HealthController) Read(c *models.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.Timeout)
	defer cancel()

	status := http.StatusOK
	report := ctl.Run(ctx)
	for name, state := range report {
		if state != "ok" {
			glog.Warningf("health check %s: %s", name, state)
			status = http.StatusServiceUnavailable
		}
	}

	c.Respond(report, status)
}

// Run pings every check in name order and returns "ok" or the error text
func (ctl *HealthController) Run(ctx context.Context) map[string]string {
	names := make([]string, 0, len(ctl.Checks))
	for name := range ctl.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := make(map[string]string, len(names))
	for _, name := range names {
		if err := ctl.Checks[name].Ping(ctx); err != nil {
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}

	return report
}
