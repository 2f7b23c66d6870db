// Package server exposes stored boards over HTTP.
//
// Routes:
//
//	GET    /healthz                    liveness and store connectivity
//	GET    /boards                     list stored boards
//	GET    /boards/{id}                fetch a board document
//	PUT    /boards/{id}                create or replace a board
//	DELETE /boards/{id}                delete a board
//	POST   /boards/{id}/operations     apply an operation batch
//	GET    /boards/{id}/render.svg     render a board as SVG
//
// Operation batches are applied through a [board.Board] with the built-in
// plugins and persisted before the response is written. Requests touching
// the same board are serialized. Rendered SVG is cached by board digest and
// render options.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/cache"
	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
	apperrors "github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/plugins"
	"github.com/matzehuels/whiteboard/pkg/store"
)

// MaxBodySize bounds request bodies.
const MaxBodySize = 8 << 20

// errorRules maps package sentinels to API error codes.
var errorRules = []apperrors.Rule{
	{Target: store.ErrNotFound, Code: apperrors.ErrCodeBoardNotFound},
	{Target: store.ErrCorrupt, Code: apperrors.ErrCodeStorage},
	{Target: path.ErrMalformed, Code: apperrors.ErrCodeInvalidPath},
	{Target: tree.ErrPathNotFound, Code: apperrors.ErrCodeInvalidPath},
	{Target: board.ErrNodeNotFound, Code: apperrors.ErrCodeInvalidPath},
	{Target: op.ErrInvalidOperation, Code: apperrors.ErrCodeInvalidOperation},
	{Target: board.ErrInvalidElement, Code: apperrors.ErrCodeInvalidOperation},
	{Target: board.ErrDuplicateID, Code: apperrors.ErrCodeInvalidOperation},
	{Target: board.ErrInvalidValue, Code: apperrors.ErrCodeInvalidOperation},
	{Target: tree.ErrReservedKey, Code: apperrors.ErrCodeInvalidOperation},
	{Target: tree.ErrInvalidValue, Code: apperrors.ErrCodeInvalidOperation},
	{Target: context.DeadlineExceeded, Code: apperrors.ErrCodeTimeout},
}

// Server serves the board API.
type Server struct {
	store   store.Store
	logger  *log.Logger
	plugins func() []board.Plugin
	locks   boardLocks

	renders   cache.Cache
	renderTTL time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithPlugins sets the plugin set used to apply operations and render.
// factory is called once per request, since plugins may hold state.
func WithPlugins(factory func() []board.Plugin) Option {
	return func(s *Server) { s.plugins = factory }
}

// DefaultRenderTTL bounds how long a rendered SVG is kept. Entries are keyed
// by content digest, so they never go stale, only unused.
const DefaultRenderTTL = time.Hour

// WithRenderCache caches rendered SVG in c for ttl. The default is an
// in-memory cache; pass cache.NewNullCache() to disable caching.
func WithRenderCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Server) {
		s.renders = c
		s.renderTTL = ttl
	}
}

// New creates a server over s.
func New(s store.Store, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	srv := &Server{
		store:   s,
		logger:  logger,
		plugins: plugins.BuiltIn,
		locks:   boardLocks{m: make(map[string]*boardLock)},

		renders:   cache.NewMemory(0),
		renderTTL: DefaultRenderTTL,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/boards", func(r chi.Router) {
		r.Get("/", s.listBoards)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getBoard)
			r.Put("/", s.putBoard)
			r.Delete("/", s.deleteBoard)
			r.Post("/operations", s.applyOperations)
			r.Get("/render.svg", s.renderSVG)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openBoard loads id into a board with a fresh plugin set.
func (s *Server) openBoard(ctx context.Context, id string) (*board.Board, *store.Document, error) {
	return store.Load(ctx, s.store, id,
		board.WithLogger(s.logger),
		board.WithPlugins(s.plugins()...))
}
