package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/microcosm-cc/gamecatalog/cacheaside"
	conf "github.com/microcosm-cc/gamecatalog/config"
	"github.com/microcosm-cc/gamecatalog/controller"
	"github.com/microcosm-cc/gamecatalog/models"
	"github.com/microcosm-cc/gamecatalog/server"
)

var configPath = flag.String("config", conf.ConfigFilePath, "path to the ini config file")

func main() {
	// Also used to init glog
	flag.Parse()

	// 100 megabytes max before rolling the log files
	glog.MaxSize = 1024 * 1024 * 100

	os.Exit(run())
}

func run() int {
	defer glog.Flush()

	c, err := conf.Load(*configPath)
	if err != nil {
		glog.Error(err)
		return 1
	}

	// Catch closing signal, then drain requests and flush logs
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	// It's our responsibility to set up the database connection and memcache
	// before we start the server
	cat, err := models.OpenCatalog(ctx, c)
	if err != nil {
		glog.Error(err)
		return 1
	}
	defer cat.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(cacheaside.Collectors()...)

	s, err := server.New(
		server.Options{
			Port:           c.ListenPort,
			MaxConnections: c.MaxConnections,
		},
		server.Deps{
			Games: cat.Games,
			Audit: cat.Audit,
			Checks: map[string]controller.Pinger{
				"database": cat.Records,
				"cache":    cat.Cache,
			},
			Gatherer: reg,
		},
	)
	if err != nil {
		glog.Error(err)
		return 1
	}

	if glog.V(2) {
		glog.Infof("Starting server on port %d", c.ListenPort)
	}
	if err := s.Run(ctx); err != nil {
		glog.Errorf("server stopped: %+v", err)
		return 1
	}

	glog.Info("server stopped")
	return 0
}
