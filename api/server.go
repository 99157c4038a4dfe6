// Package api provides the HTTP JSON API over the analyzer.
//
// It exposes endpoints for company analysis, registrant lookup and search,
// health and the running configuration.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analyzer"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/config"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// Analyzer runs one analysis. *analyzer.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (*analyzer.Response, error)
}

// Directory resolves and searches registrants. *sec.Provider satisfies it.
type Directory interface {
	LookupCompany(ctx context.Context, identifier string) (models.Company, error)
	SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error)
}

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	analyzer  Analyzer
	directory Directory
	log       zerolog.Logger
	version   string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, a Analyzer, d Directory, log zerolog.Logger, version string) *Server {
	s := &Server{cfg: cfg, analyzer: a, directory: d, log: log, version: version}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.log.Info().Msg("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg != nil && s.cfg.API.RequestTimeout > 0 {
		return s.cfg.API.RequestTimeout
	}
	return 2 * time.Minute
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout()))

	// CORS
	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Analysis
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyze/{identifier}", s.handleAnalyzeGet)

		// Registrants
		r.Get("/companies", s.handleSearchCompanies)
		r.Get("/companies/{identifier}", s.handleLookupCompany)

		// Configuration
		r.Get("/config", s.handleGetConfig)
	})

	return r
}

// requestLogger attaches a request-scoped logger to the context and logs
// each completed request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := s.log.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logging.WithContext(r.Context(), l)))
		l.Info().Int("status", ww.Status()).Dur("elapsed", time.Since(start)).Msg("request")
	})
}

// ════════════════════════════════════════════════════════════════════
// Handlers
// ════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":  "ok",
			"version": s.version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.analyze(w, r, req)
}

// handleAnalyzeGet accepts the common options as query parameters:
// years, period, market_value and variant.
func (s *Server) handleAnalyzeGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := analyzer.Request{
		Identifier:      chi.URLParam(r, "identifier"),
		Period:          analyzer.Period(q.Get("period")),
		DistressVariant: q.Get("variant"),
	}
	if v := q.Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "years must be an integer")
			return
		}
		req.Years = n
	}
	if v := q.Get("market_value"); v != "" {
		mv, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "market_value must be a number")
			return
		}
		req.MarketValue = mv
	}
	s.analyze(w, r, req)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, req analyzer.Request) {
	resp, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleLookupCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.directory.LookupCompany(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: c})
}

func (s *Server) handleSearchCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := s.directory.SearchCompanies(r.Context(), q, limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

// handleGetConfig returns the running configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:     s.cfg,
			ConfigFile: s.cfg.File,
		},
	})
}
