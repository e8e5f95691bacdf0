// Package api provides the HTTP server for the TradeWorks estimate engine.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tradeworks-estimate/db/clickhouse"
	"tradeworks-estimate/db/postgres"
	"tradeworks-estimate/internal/analysis"
	"tradeworks-estimate/internal/estimation"
	"tradeworks-estimate/internal/llm"
	"tradeworks-estimate/internal/narrative"
	"tradeworks-estimate/internal/pricing"
	"tradeworks-estimate/pkg/platform"
)

// Config holds server configuration.
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   90 * time.Second,
		MaxRequestSize: 10 * 1024 * 1024, // 10MB
	}
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	engine     *estimation.Engine
	narrator   *narrative.Generator
	analyzer   *analysis.Engine
	llmClient  *llm.Client
	books      *clickhouse.Store
	archive    *postgres.Archive
	config     *Config
	log        zerolog.Logger
}

// NewServer wires the pipeline. books and archive may be nil; the service
// then runs fully in-memory.
func NewServer(llmClient *llm.Client, books *clickhouse.Store, archive *postgres.Archive, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	var bookStore pricing.BookStore
	if books != nil {
		bookStore = books
	}

	return &Server{
		engine:    estimation.NewEngine(pricing.NewResolver(bookStore)),
		narrator:  narrative.NewGenerator(llmClient),
		analyzer:  analysis.NewEngine(llmClient),
		llmClient: llmClient,
		books:     books,
		archive:   archive,
		config:    config,
		log:       log.Logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(s.corsMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/health/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(platform.APIKeyMiddleware)
		r.Post("/api/v1/price-and-narrate", s.handlePriceAndNarrate)
		r.Post("/api/v1/analyze", s.handleAnalyze)
		r.Get("/api/v1/analyses", s.handleListAnalyses)
		r.Post("/api/v1/estimate/pdf", s.handleEstimatePDF)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info().Int("port", s.config.Port).Msg("TradeWorks estimate API starting")
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains on SIGINT/SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.log.Info().Msg("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// corsMiddleware allows all origins and answers preflight requests with 200,
// matching what the browser clients expect.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, apikey, x-client-info, X-API-Key")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": platform.Version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.books != nil {
		if err := s.books.Ping(ctx); err != nil {
			s.jsonError(w, http.StatusServiceUnavailable, "price book store not ready", err.Error())
			return
		}
	}
	if s.archive != nil {
		if err := s.archive.Ping(ctx); err != nil {
			s.jsonError(w, http.StatusServiceUnavailable, "analysis archive not ready", err.Error())
			return
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message, details string) {
	s.jsonResponse(w, status, map[string]string{
		"error":   message,
		"details": details,
	})
}
