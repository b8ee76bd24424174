package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/caseflow/compliance/compliance"
	"github.com/caseflow/compliance/internal/logger"
	"github.com/caseflow/compliance/internal/metrics"
)

type Server struct {
	db        *sql.DB
	engine    *compliance.Engine
	rules     compliance.RuleStore
	checks    compliance.CheckStore
	collector *metrics.Collector
	router    *chi.Mux
}

func NewServer(databaseURL string) (*Server, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rules := compliance.NewPostgresRuleStore(db)
	checks := compliance.NewPostgresCheckStore(db)
	collector := metrics.NewCollector()

	engine := compliance.NewEngine(
		compliance.NewPostgresCaseStore(db),
		compliance.NewPostgresCertificateStore(db),
		rules,
		checks,
		compliance.NewPostgresActionStore(db),
		compliance.WithMetrics(collector),
	)

	s := &Server{
		db:        db,
		engine:    engine,
		rules:     rules,
		checks:    checks,
		collector: collector,
	}

	s.setupRoutes()

	return s, nil
}

// newServerWithStores wires a server from explicit collaborators, used by
// tests to run against in-memory stores.
func newServerWithStores(engine *compliance.Engine, rules compliance.RuleStore, checks compliance.CheckStore) *Server {
	s := &Server{
		engine:    engine,
		rules:     rules,
		checks:    checks,
		collector: metrics.NewCollector(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)

	// Metrics
	r.Handle("/metrics", s.collector.Handler())

	// Compliance evaluation
	r.Route("/api/v1/cases/{caseId}", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluateCase)
		r.Get("/compliance", s.handleLatestCompliance)
	})

	// Rule catalog management
	r.Route("/api/v1/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleCreateRule)
		r.Get("/{ruleCode}", s.handleGetRule)
		r.Put("/{ruleCode}", s.handleUpdateRule)
		r.Delete("/{ruleCode}", s.handleDeleteRule)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Evaluate case handler: runs all active rules against one case and returns
// the aggregate report.
func (s *Server) handleEvaluateCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseId")

	startTime := time.Now()
	report, err := s.engine.EvaluateCase(caseID)
	if err != nil {
		if errors.Is(err, compliance.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "case not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "evaluation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"report":         report,
		"evaluationTime": time.Since(startTime).String(),
	})
}

// Latest compliance handler: shapes the newest audit row per rule back into a
// result view without re-running evaluation.
func (s *Server) handleLatestCompliance(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseId")

	checks, err := s.checks.LatestForCase(caseID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load compliance history", err)
		return
	}
	if len(checks) == 0 {
		respondError(w, http.StatusNotFound, "no compliance checks recorded for case", nil)
		return
	}

	views := make([]checkView, 0, len(checks))
	for _, c := range checks {
		views = append(views, newCheckView(c))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"caseId": caseID,
		"checks": views,
	})
}

// List rules handler
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rulesList, err := s.rules.ListActive()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rules": rulesList,
	})
}

// Create rule handler
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := req.toRule()
	if err := compliance.ValidateRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule", err)
		return
	}

	if err := s.rules.Add(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to add rule", err)
		return
	}
	s.engine.InvalidateRules()

	respondJSON(w, http.StatusCreated, rule)
}

// Get rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	ruleCode := chi.URLParam(r, "ruleCode")

	rule, err := s.rules.Get(ruleCode)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

// Update rule handler
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleCode := chi.URLParam(r, "ruleCode")

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := req.toRule()
	rule.Code = ruleCode
	if err := compliance.ValidateRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule", err)
		return
	}

	if err := s.rules.Update(rule); err != nil {
		respondError(w, http.StatusNotFound, "failed to update rule", err)
		return
	}
	s.engine.InvalidateRules()

	respondJSON(w, http.StatusOK, rule)
}

// Delete rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleCode := chi.URLParam(r, "ruleCode")

	if err := s.rules.Delete(ruleCode); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}
	s.engine.InvalidateRules()

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	// Get database URL from environment
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	server, err := NewServer(databaseURL)
	if err != nil {
		logger.Fatal("Failed to create server", "error", err)
	}
	defer server.db.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("Server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("Logger shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
