// Copyright 2025 Experfolio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/scheduler"
)

// Searcher runs one candidate search. Satisfied by *search.Searcher.
type Searcher interface {
	Search(ctx context.Context, query string) core.Outcome[core.SearchResponse]
}

// BatchControl exposes batch run control. Satisfied by *scheduler.Scheduler.
type BatchControl interface {
	TriggerAsync() error
	Status() scheduler.Status
}

// Server serves the search and batch-control API.
type Server struct {
	searcher  Searcher
	batch     BatchControl
	health    map[string]func(ctx context.Context) error
	router    chi.Router
	httpSrv   *http.Server
	logger    *slog.Logger
	version   string
	debug     bool
	corsAll   bool
	reqBudget time.Duration
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger != nil {
			s.logger = logger.With("component", "server")
		}
		return nil
	}
}

// WithVersion sets the version string reported by /healthz.
func WithVersion(version string) Option {
	return func(s *Server) error {
		s.version = version
		return nil
	}
}

// WithDebug enables internal cause strings in error responses.
func WithDebug(debug bool) Option {
	return func(s *Server) error {
		s.debug = debug
		return nil
	}
}

// WithHealthChecks sets the named component checks aggregated by
// /healthz. Every component must pass for the endpoint to report ok.
func WithHealthChecks(checks map[string]func(ctx context.Context) error) Option {
	return func(s *Server) error {
		s.health = checks
		return nil
	}
}

// WithOpenCORS allows all origins. Dev mode only.
func WithOpenCORS() Option {
	return func(s *Server) error {
		s.corsAll = true
		return nil
	}
}

// New creates a Server wired to the given searcher and batch control.
func New(searcher Searcher, batch BatchControl, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if batch == nil {
		return nil, ErrSchedulerRequired
	}

	s := &Server{
		searcher:  searcher,
		batch:     batch,
		logger:    slog.Default().With("component", "server"),
		version:   "dev",
		reqBudget: 60 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.reqBudget))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.corsAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/batch/status", s.handleBatchStatus)
		r.Post("/batch/run", s.handleBatchRun)
	})

	return r
}

// Router returns the handler for tests and embedding.
func (s *Server) Router() http.Handler { return s.router }

// Start begins listening on addr and blocks until the listener stops.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * s.reqBudget,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("listening", "addr", addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
