package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
)

// Runner executes one pipeline run end to end. Every outcome is a report;
// failures come back embedded as error details, never as a returned error.
type Runner interface {
	Run(ctx context.Context, req domain.RunRequest) *domain.RunReport
}

// Handlers bundles the HTTP endpoints with their dependencies.
type Handlers struct {
	runner Runner
	audit  ports.AuditTrail
	logger *slog.Logger
}

func NewHandlers(runner Runner, audit ports.AuditTrail, logger *slog.Logger) *Handlers {
	return &Handlers{
		runner: runner,
		audit:  audit,
		logger: logger,
	}
}

// auditListResponse wraps the report list so the payload stays an object and
// can grow a cursor later without breaking clients.
type auditListResponse struct {
	Reports []*domain.ComplianceReport `json:"reports"`
	Count   int                        `json:"count"`
}

// CreateRun executes a pipeline run synchronously. An empty body is accepted
// and runs the default dataset at the default compliance level. The full
// report is returned either way: 200 on SUCCESS, 502 on FAILURE.
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req domain.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	report := h.runner.Run(r.Context(), req)

	AddLogField(r.Context(), "execution_id", report.ExecutionID)
	status := http.StatusOK
	if report.Status == domain.ReportStatusFailure {
		status = http.StatusBadGateway
		if report.ErrorDetails != nil {
			AddLogField(r.Context(), "error", report.ErrorDetails.ErrorMessage)
		}
	}

	writeJSON(w, status, report)
}

// ListAudit returns every audit report in insertion order.
func (h *Handlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	reports, err := h.audit.List(r.Context())
	if err != nil {
		AddError(r.Context(), err)
		http.Error(w, "Failed to read audit trail", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []*domain.ComplianceReport{}
	}

	writeJSON(w, http.StatusOK, auditListResponse{Reports: reports, Count: len(reports)})
}

// GetAudit returns a single audit report by ID.
func (h *Handlers) GetAudit(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "auditID")

	report, err := h.audit.Get(r.Context(), auditID)
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}
		AddError(r.Context(), err)
		http.Error(w, "Failed to read audit trail", http.StatusInternalServerError)
		return
	}

	AddLogField(r.Context(), "audit_id", auditID)
	writeJSON(w, http.StatusOK, report)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
