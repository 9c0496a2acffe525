// Package server provides the HTTP API for kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/keywords"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/storage"
)

// Server is the HTTP server for the kotae API.
type Server struct {
	chat      *chat.Service
	storage   storage.Storage
	keywords  *keywords.Generator
	metrics   *metrics.Metrics // optional; /metrics is not mounted without it
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	startedAt time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes metrics on /metrics and records HTTP requests.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithKeywordGenerator replaces the generator used for FAQs saved without keywords.
func WithKeywordGenerator(g *keywords.Generator) Option {
	return func(s *Server) {
		if g != nil {
			s.keywords = g
		}
	}
}

// NewServer creates a server with the given dependencies. A nil logger is silent.
func NewServer(
	svc *chat.Service,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		chat:      svc,
		storage:   store,
		keywords:  keywords.New(cfg.Matcher.Stopwords...),
		config:    cfg,
		logger:    logger,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/chat/choose", s.handleChoose)
		r.Get("/suggest", s.handleSuggest)

		r.Get("/faqs", s.handleListFAQs)
		r.Post("/faqs", s.handleCreateFAQ)
		r.Get("/faqs/{id}", s.handleGetFAQ)
		r.Put("/faqs/{id}", s.handleUpdateFAQ)
		r.Delete("/faqs/{id}", s.handleDeleteFAQ)

		r.Post("/keywords", s.handleKeywords)
		r.Post("/inquiries", s.handleInquiry)
	})
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
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

// requestLogger logs every request at debug level and records it in metrics
// under its route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(route, fmt.Sprint(status), elapsed)
		}
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
