package rtst

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"emperror.dev/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/rtst/pkg/series"
	"github.com/voluzi/rtst/pkg/statscollector"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the sample history over HTTP.
type Server struct {
	server    *http.Server
	router    *mux.Router
	cfg       *Options
	collector *statscollector.Collector
	series    *series.Service
	static    *staticFiles
	instance  string
	started   time.Time
}

func New(collector *statscollector.Collector, interfaces []string, opts ...Option) *Server {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	s := &Server{
		router:    mux.NewRouter(),
		cfg:       options,
		collector: collector,
		series:    series.NewService(collector, interfaces),
		static:    newStaticFiles(options.DocumentRoot, options.StaticCacheTTL),
		instance:  uuid.New().String(),
		started:   time.Now(),
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", options.Host, options.Port),
		Handler:           s.router,
		ReadHeaderTimeout: options.ReadTimeout,
		ReadTimeout:       options.ReadTimeout,
	}
	return s
}

// Handler returns the router serving every endpoint.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Instance is a random identifier assigned at start-up. Clients can use it to
// detect a restart, after which their cutoff no longer applies.
func (s *Server) Instance() string {
	return s.instance
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	log.WithFields(log.Fields{
		"address":  s.server.Addr,
		"instance": s.instance,
	}).Info("server started listening")
	log.Infof("to view the statistics, load http://%s:%d in your web browser", s.cfg.ServerName, s.cfg.Port)

	err := s.server.ListenAndServe()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.Wrap(err, "error serving http")
}

// Stop shuts down the http server, giving in-flight requests a few seconds to
// complete, and releases the static file cache.
func (s *Server) Stop() error {
	log.Debug("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	return errors.Combine(err, s.Close())
}

// Close releases the static file cache without touching the listener.
func (s *Server) Close() error {
	return s.static.Close()
}
