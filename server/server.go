package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bikeshare-flow/services"
	"bikeshare-flow/utils"
)

// Options configures a Server.
type Options struct {
	Addr        string
	CORSOrigins []string
	// CacheSize bounds the zoom query cache. Values below 1 use 256.
	CacheSize   int

	Views      *services.Views
	Recomputer *services.Recomputer
	// Source feeds POST /api/reload. Nil disables reloading.
	Source     services.TripSource
	Logger     *utils.Logger
}

// Server exposes the latest aggregation snapshot over HTTP.
type Server struct {
	httpServer *http.Server
	views      *services.Views
	recomputer *services.Recomputer
	source     services.TripSource
	logger     *utils.Logger

	// pathCache holds PathViews keyed by snapshot ID and zoom.
	pathCache gcache.Cache
}

// New builds the router and wraps it in an http.Server.
func New(opts Options) *Server {
	if opts.CacheSize < 1 {
		opts.CacheSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDiscardLogger()
	}

	s := &Server{
		views:      opts.Views,
		recomputer: opts.Recomputer,
		source:     opts.Source,
		logger:     opts.Logger,
		pathCache:  gcache.New(opts.CacheSize).LRU().Build(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"ETag"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stations", s.handleStations)
		r.Get("/paths", s.handlePaths)
		r.Get("/bubbles", s.handleBubbles)
		r.Get("/heatmap", s.handleHeatmap)
		r.Get("/mosaic", s.handleMosaic)
		r.Get("/ranking", s.handleRanking)
		r.Post("/reload", s.handleReload)
	})

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("[http] Listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("[http] %s %s - %d in %v", r.Method, r.URL.RequestURI(), ww.Status(), time.Since(start))
	})
}
