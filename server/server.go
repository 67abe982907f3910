package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
	"golang.org/x/net/netutil"

	"github.com/microcosm-cc/gamecatalog/audit"
	"github.com/microcosm-cc/gamecatalog/controller"
	"github.com/microcosm-cc/gamecatalog/models"
)

// Deps are the shared clients the handlers use, built once by main
type Deps struct {
	Games    *models.VideoGames
	Audit    *audit.Recorder
	Checks   map[string]controller.Pinger
	Gatherer prometheus.Gatherer
}

// Options control the listener
type Options struct {
	Port           int
	MaxConnections int
}

// NewRouter registers every handler and wraps the result in request logging
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	for url, handler := range handlers(d) {
		r.HandleFunc(url, handler)
	}

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		models.MakeContext(req, w).RespondWithNotFound()
	})

	return logRequests(r)
}

// Server owns the http process and cron jobs
type Server struct {
	opts Options
	http *http.Server
	cron *cron.Cron
}

// New builds a Server. Nothing listens until Run.
func New(opts Options, d Deps) (*Server, error) {
	c := cron.New()
	for schedule, job := range jobs(d.Checks) {
		if err := c.AddFunc(schedule, job); err != nil {
			return nil, fmt.Errorf("cron schedule %q: %v", schedule, err)
		}
	}

	return &Server{
		opts: opts,
		cron: c,
		http: &http.Server{
			Handler:           NewRouter(d),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return err
	}

	return s.Serve(ctx, l)
}

// Serve is Run on an existing listener, capped at MaxConnections concurrent
// connections
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	if s.opts.MaxConnections > 0 {
		l = netutil.LimitListener(l, s.opts.MaxConnections)
	}

	s.cron.Start()
	defer s.cron.Stop()

	errc := make(chan error, 1)
	go func() {
		errc <- s.http.Serve(l)
	}()

	if glog.V(2) {
		glog.Infof("Listening on %s", l.Addr())
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdown); err != nil {
		return fmt.Errorf("shutdown: %v", err)
	}

	if err := <-errc; err != http.ErrServerClosed {
		return err
	}
	return nil
}
