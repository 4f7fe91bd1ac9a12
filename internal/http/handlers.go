package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budget/internal/analysis"
	"budget/internal/core"
	"budget/internal/report"
	"budget/internal/services"
)

// maxImportBytes caps uploaded snapshot documents.
const maxImportBytes = 10 << 20

type (
	// transactionRequest is the add/edit payload. The amount arrives as a
	// decimal string the way the form field holds it.
	transactionRequest struct {
		Amount   string `json:"amount"`
		Kind     string `json:"kind"`
		Category string `json:"category"`
		Note     string `json:"note"`
		Date     string `json:"date"` // YYYY-MM-DD
	}

	categoryRequest struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
		Icon string `json:"icon"`
	}

	analysisRequest struct {
		Question string `json:"question"`
	}

	balanceResponse struct {
		Balance int64 `json:"balanceCents"`
	}

	saveResponse struct {
		Persisted bool   `json:"persisted"`
		Error     string `json:"error,omitempty"`
	}

	analysisResponse struct {
		Analysis string `json:"analysis"`
	}
)

func (req transactionRequest) toInput() (services.TransactionInput, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return services.TransactionInput{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		AmountCents: cents,
		Kind:        core.Kind(req.Kind),
		Category:    req.Category,
		Note:        req.Note,
		Date:        date,
	}, nil
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := report.Query{
		Search:   r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		k := core.Kind(kind)
		if !k.Valid() {
			respondError(w, http.StatusUnprocessableEntity, core.ErrInvalidKind.Error())
			return
		}
		q.Kind = k
	}

	txs := s.svc.Transactions(q)
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, txs)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	tx, err := s.svc.AddTransaction(r.Context(), in)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.editTransaction(w, r, id)
	case http.MethodDelete:
		s.svc.DeleteTransaction(r.Context(), id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

func (s *Server) editTransaction(w http.ResponseWriter, r *http.Request, id int64) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	tx, err := s.svc.EditTransaction(r.Context(), id, in)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{Balance: s.svc.Balance()})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = s.now().Format("2006-01")
	} else if _, err := time.Parse("2006-01", month); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "month must be YYYY-MM")
		return
	}

	respondJSON(w, http.StatusOK, s.svc.Overview(month))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listCategories(w, r)
	case http.MethodPost:
		s.addCategory(w, r)
	case http.MethodDelete:
		s.deleteCategory(w, r)
	default:
		methodNotAllowed(w, "GET, POST, DELETE")
	}
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	kind := core.Kind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		respondError(w, http.StatusUnprocessableEntity, core.ErrInvalidKind.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.svc.Categories(kind))
}

func (s *Server) addCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	kind := core.Kind(req.Kind)
	if !kind.Valid() {
		respondError(w, http.StatusUnprocessableEntity, core.ErrInvalidKind.Error())
		return
	}

	if err := s.svc.AddCategory(r.Context(), kind, req.Name, req.Icon); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.svc.Categories(kind))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	kind := core.Kind(req.Kind)
	if !kind.Valid() {
		respondError(w, http.StatusUnprocessableEntity, core.ErrInvalidKind.Error())
		return
	}

	if err := s.svc.DeleteCategory(r.Context(), kind, req.Name); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	data, err := s.svc.Export(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	filename := "budget-export-" + s.now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := s.svc.Import(r.Context(), body); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	// Persistence failures are warnings, not request failures: memory
	// stays authoritative either way.
	if err := s.svc.Save(r.Context()); err != nil {
		respondJSON(w, http.StatusOK, saveResponse{Persisted: false, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, saveResponse{Persisted: true})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if s.analyzer == nil {
		respondError(w, http.StatusServiceUnavailable, "analysis is not configured")
		return
	}

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	summary := analysis.BuildSummary(s.svc.Transactions(report.Query{}), s.svc.Balance(), s.now())
	text, err := s.analyzer.Analyze(r.Context(), summary, req.Question)
	if err != nil {
		if errors.Is(err, analysis.ErrNothingToAnalyze) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Analysis failed", "error", err)
		respondError(w, http.StatusBadGateway, "analysis failed")
		return
	}
	respondJSON(w, http.StatusOK, analysisResponse{Analysis: text})
}
