// Package server provides the HTTP API for clausekit.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/clausekit/internal/auth"
	"github.com/hyperjump/clausekit/internal/config"
	"github.com/hyperjump/clausekit/internal/export"
	"github.com/hyperjump/clausekit/internal/extract"
	"github.com/hyperjump/clausekit/internal/search"
	"github.com/hyperjump/clausekit/internal/storage"
	"github.com/hyperjump/clausekit/internal/upstream"
	"go.uber.org/zap"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store     storage.TemplateStore
	Extractor *extract.Extractor
	Exporter  *export.Coordinator
	Searcher  *search.Searcher
	Upstream  *upstream.Client
	Auth      *auth.Authenticator
}

// Server is the HTTP server for the clausekit API.
type Server struct {
	store     storage.TemplateStore
	extractor *extract.Extractor
	exporter  *export.Coordinator
	searcher  *search.Searcher
	upstream  *upstream.Client
	auth      *auth.Authenticator
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		store:     deps.Store,
		extractor: deps.Extractor,
		exporter:  deps.Exporter,
		searcher:  deps.Searcher,
		upstream:  deps.Upstream,
		auth:      deps.Auth,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Get("/", s.handleHealth)
	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/generate-clause", s.handleGenerateClause)
		r.Post("/analyze-risk", s.handleAnalyzeRisk)
	})

	r.Post("/upload", s.handleUpload)
	r.Post("/export", s.handleExport)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/search", s.handleSearchTemplates)
		r.Post("/add-template", s.handleAddTemplate)
		r.Delete("/delete-template/{id}", s.handleDeleteTemplate)
	})
	r.Get("/download-template/{id}/{format}", s.handleDownloadTemplate)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// accessLog logs one line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote", r.RemoteAddr),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// cors allows any origin, matching a browser front end served from another port.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
