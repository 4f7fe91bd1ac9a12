// Package http is the JSON API the UI talks to. Handlers translate
// requests into service calls and domain errors into status codes; all
// state lives behind the service.
package http

import (
	"context"
	"net/http"
	"time"

	"budget/internal/analysis"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

// Analyzer is the AI advisor the analysis endpoint calls. Nil disables
// the endpoint.
type Analyzer interface {
	Analyze(ctx context.Context, summary analysis.Summary, question string) (string, error)
}

type Server struct {
	http.Server
	svc      *services.BudgetService
	analyzer Analyzer
	tracer   *trace.Middleware
	now      func() time.Time
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, svc *services.BudgetService, analyzer Analyzer) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:      svc,
		analyzer: analyzer,
		tracer:   trace.NewMiddleware(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.tracer.Wrap(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/api/overview", s.handleOverview)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.handleImport)
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/api/analysis", s.handleAnalysis)

	return s
}

// Metrics exposes the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
