package server

import (
	"context"
	"sort"
	"time"

	"github.com/golang/glog"

	"github.com/microcosm-cc/gamecatalog/controller"
)

// Field name   | Mandatory? | Allowed values  | Allowed special characters
// ----------   | ---------- | --------------  | --------------------------
// Seconds      | Yes        | 0-59            | * / , -
// Minutes      | Yes        | 0-59            | * / , -
// Hours        | Yes        | 0-23            | * / , -
// Day of month | Yes        | 1-31            | * / , - ?
// Month        | Yes        | 1-12 or JAN-DEC | * / , -
// Day of week  | Yes        | 0-6 or SUN-SAT  | * / , - ?

// jobs never read or write cache entries
func jobs(checks map[string]controller.Pinger) map[string]func() {
	return map[string]func(){
		//SS MI HH  DOM MON DOW
		"  0  *     *    *   *   *": pingChecks(checks), // Every minute
	}
}

// pingChecks returns a job that pings each check and logs those that fail
func pingChecks(checks map[string]controller.Pinger) func() {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func() {
		for _, name := range names {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := checks[name].Ping(ctx)
			cancel()

			if err != nil {
				glog.Errorf("%s ping failed: %+v", name, err)
				continue
			}
			if glog.V(3) {
				glog.Infof("%s ping ok", name)
			}
		}
	}
}
