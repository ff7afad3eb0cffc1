// Package api serves trip's glitch transforms over HTTP.
//
// # Routes
//
//	GET  /healthz              liveness probe
//	POST /v1/shuffle           channel shuffle; query: channel, block_size
//	POST /v1/streak            streaks; query: axis, block_size, percent, margin
//	POST /v1/recipes/{name}    apply a built-in recipe
//	GET  /v1/recipes           list built-in recipes
//	GET  /v1/runs              recent runs; query: limit
//
// Transform routes take the raw encoded image as the request body and
// accept seed, format and quality query parameters. They respond with the
// encoded result and an X-Trip-Run-Id header. Errors are JSON objects
// {"code": ..., "message": ...}.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/trip/pkg/pipeline"
	"github.com/matzehuels/trip/pkg/recipe"
)

// Response headers set on transform routes.
const (
	HeaderRunID = "X-Trip-Run-Id"
	HeaderCache = "X-Trip-Cache"
)

const shutdownTimeout = 10 * time.Second

// Server routes requests to a pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	recipes *recipe.File
	logger  *log.Logger
	router  chi.Router
}

// New creates a server. Recipes are looked up in recipes, or among the
// built-in recipes when recipes is nil.
func New(runner *pipeline.Runner, recipes *recipe.File, logger *log.Logger) *Server {
	if recipes == nil {
		recipes = recipe.Builtin()
	}
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{runner: runner, recipes: recipes, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/shuffle", s.handleShuffle)
		r.Post("/streak", s.handleStreak)
		r.Get("/recipes", s.handleListRecipes)
		r.Post("/recipes/{name}", s.handleRecipe)
		r.Get("/runs", s.handleRuns)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
