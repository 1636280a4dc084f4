// Package web serves the address structuring pipeline over HTTP: parse
// endpoints, postcode and locality lookups, health and Prometheus
// metrics.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/ukaddresskit/ukaddresskit/internal/locality"
	"github.com/ukaddresskit/ukaddresskit/internal/models"
	"github.com/ukaddresskit/ukaddresskit/internal/parser"
	"github.com/ukaddresskit/ukaddresskit/internal/postcode"
	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
	"github.com/ukaddresskit/ukaddresskit/internal/tagger"
	"github.com/ukaddresskit/ukaddresskit/internal/tagger/libpostal"
	"github.com/ukaddresskit/ukaddresskit/internal/web/handlers"
	"github.com/ukaddresskit/ukaddresskit/internal/web/middleware"
)

// Server is the address service. Build one with NewServer and run it
// with Start; Start blocks until SIGINT/SIGTERM and shuts down
// gracefully.
type Server struct {
	config     *Config
	metrics    *Metrics
	router     *mux.Router
	httpServer *http.Server
}

// NewServer loads the reference tables, opens the configured tagging
// backend and wires the routes.
func NewServer(config *Config) (*Server, error) {
	tables, err := refdata.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load reference tables: %w", err)
	}
	tg, err := openBackend(config.Parser)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:  config,
		metrics: NewMetrics(),
	}
	s.setupRoutes(handlersFor(config, tables, tg, s.metrics))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func openBackend(cfg ParserConfig) (tagger.Tagger, error) {
	switch cfg.Backend {
	case "", "crf":
		manager, err := models.NewManager()
		if err != nil {
			return nil, err
		}
		tg, err := manager.Open(cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to open tagging model: %w", err)
		}
		return tg, nil
	case "libpostal":
		return libpostal.New(), nil
	}
	return nil, fmt.Errorf("unknown tagger backend %q", cfg.Backend)
}

func handlersFor(config *Config, tables *refdata.Tables, tg tagger.Tagger, metrics *Metrics) *handlers.APIHandler {
	return &handlers.APIHandler{
		Parser:       parser.New(tables, tg),
		Postcodes:    postcode.NewDirectory(tables),
		Localities:   locality.NewIndex(tables.LocalityTowns),
		BatchWorkers: config.Parser.BatchWorkers,
		BatchLimit:   config.Parser.BatchLimit,
		ParseCounter: metrics.ParsesTotal,
	}
}

func (s *Server) setupRoutes(api *handlers.APIHandler) {
	s.router = mux.NewRouter()

	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/parse", api.Parse).Methods("POST")
	apiRouter.HandleFunc("/parse/batch", api.ParseBatch).Methods("POST")
	apiRouter.HandleFunc("/postcode/{code}", api.Postcode).Methods("GET")
	apiRouter.HandleFunc("/locality/{name}", api.Locality).Methods("GET")

	s.router.HandleFunc("/healthz", api.Health).Methods("GET")
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging())
	s.router.Use(s.instrument)

	if s.config.Auth.Enabled {
		apiRouter.Use(middleware.APIKey(s.config.Auth.APIKey))
	}
}

// instrument records request counts and latency per route.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.RequestsTotal.WithLabelValues(r.Method, path, fmt.Sprint(rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Router exposes the route tree for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start runs the server until SIGINT or SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("address service listening on http://%s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	<-stop
	log.Printf("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
