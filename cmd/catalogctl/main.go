// Command catalogctl runs maintenance against the catalog's record store and
// cache using the same config file as the API.
//
//	catalogctl [-config path] ping
//	catalogctl [-config path] warm
//	catalogctl [-config path] purge [id ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	conf "github.com/microcosm-cc/gamecatalog/config"
	"github.com/microcosm-cc/gamecatalog/models"
)

var (
	configPath = flag.String("config", conf.ConfigFilePath, "path to the ini config file")
	timeout    = flag.Duration("timeout", time.Minute, "give up after this long")
)

// openCatalog is replaced in tests
var openCatalog = models.OpenCatalog

func main() {
	// Also used to init glog
	flag.Parse()

	os.Exit(run(flag.Args(), os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	defer glog.Flush()

	if len(args) < 1 {
		fmt.Fprintln(errOut, "usage: catalogctl [-config path] ping|warm|purge [id ...]")
		return 2
	}

	c, err := conf.Load(*configPath)
	if err != nil {
		glog.Error(err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cat, err := openCatalog(ctx, c)
	if err != nil {
		glog.Error(err)
		return 1
	}
	defer cat.Close()

	if err := runCommand(ctx, cat, args[0], args[1:], out); err != nil {
		glog.Error(err)
		return 1
	}
	return 0
}
