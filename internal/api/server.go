// Package api exposes generation and report management over HTTP with a
// uniform JSON envelope.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/loadscribe/loadscribe/internal/config"
	"github.com/loadscribe/loadscribe/internal/generator"
	"github.com/loadscribe/loadscribe/internal/report"
	"go.uber.org/zap"
)

// Server hosts the HTTP surface.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	router     *mux.Router
	httpServer *http.Server
	generator  *generator.Generator
	reports    *report.Service
	startTime  time.Time
}

// NewServer wires routes and middleware. The report service may be nil when
// no datastore is configured; report routes then answer 503.
func NewServer(cfg *config.Config, logger *zap.Logger, gen *generator.Generator, reports *report.Service) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		router:    mux.NewRouter(),
		generator: gen,
		reports:   reports,
		startTime: time.Now(),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/generate/jmeter", s.handleGenerateJMeter).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/generate/repair", s.handleRepair).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/insight", s.handleInsight).Methods(http.MethodPost, http.MethodOptions)

	reports := api.PathPrefix("/reports").Subrouter()
	reports.Use(s.authMiddleware)
	reports.HandleFunc("", s.handleListReports).Methods(http.MethodGet, http.MethodOptions)
	reports.HandleFunc("", s.handleCreateReport).Methods(http.MethodPost, http.MethodOptions)
	reports.HandleFunc("/{id}", s.handleGetReport).Methods(http.MethodGet, http.MethodOptions)
	reports.HandleFunc("/{id}", s.handleDeleteReport).Methods(http.MethodDelete, http.MethodOptions)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until the listener fails.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

// envelope is the uniform response body.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string, providerStatus int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &apiError{Message: message, StatusCode: providerStatus},
	}); err != nil {
		s.logger.Error("write error response", zap.Error(err))
	}
}
