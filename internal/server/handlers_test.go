package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/storage/memory"
)

// stubRunner returns a canned report and records the request it was given.
type stubRunner struct {
	report *domain.RunReport
	got    domain.RunRequest
}

func (s *stubRunner) Run(ctx context.Context, req domain.RunRequest) *domain.RunReport {
	s.got = req
	return s.report
}

func successReport() *domain.RunReport {
	return &domain.RunReport{
		Status:           domain.ReportStatusSuccess,
		ExecutionID:      "exec_20240301103000",
		ProcessingTime:   "1.25 seconds",
		ComplianceStatus: domain.CompliancePassed,
		AuditTrailID:     "audit_20240301103001",
	}
}

func failureReport() *domain.RunReport {
	return &domain.RunReport{
		Status:           domain.ReportStatusFailure,
		ExecutionID:      "exec_20240301103000",
		ComplianceStatus: domain.ComplianceUnknown,
		ErrorDetails: &domain.FailureDetail{
			ErrorType:    "StageError:timeout",
			ErrorMessage: "stage analysis failed: downstream timeout",
			ExecutionID:  "exec_20240301103000",
			Timestamp:    time.Date(2024, 3, 1, 10, 30, 5, 0, time.UTC),
			Severity:     domain.SeverityHigh,
		},
	}
}

func testReport(auditID string) *domain.ComplianceReport {
	return &domain.ComplianceReport{
		AuditID:          auditID,
		Timestamp:        time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		StandardsChecked: []string{"SOX"},
		Results:          []domain.StandardResult{{Standard: "SOX", Status: domain.StandardCompliant}},
		Status:           domain.CompliancePassed,
	}
}

func newTestRouter(t *testing.T, runner Runner, trail *memory.Trail) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if trail == nil {
		trail = memory.New()
	}
	return NewRouter(logger, NewHandlers(runner, trail, logger))
}

func TestCreateRun_Success(t *testing.T) {
	runner := &stubRunner{report: successReport()}
	router := newTestRouter(t, runner, nil)

	body := bytes.NewBufferString(`{"dataset_id": "custom_dataset", "compliance_level": "sox", "analysis_type": "risk"}`)
	req := httptest.NewRequest("POST", "/v1/runs", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var report domain.RunReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if report.Status != domain.ReportStatusSuccess {
		t.Errorf("status = %q, want %q", report.Status, domain.ReportStatusSuccess)
	}
	if report.ExecutionID != "exec_20240301103000" {
		t.Errorf("execution_id = %q, want %q", report.ExecutionID, "exec_20240301103000")
	}

	// Request fields must reach the runner untouched
	if runner.got.DatasetID != "custom_dataset" {
		t.Errorf("dataset_id = %q, want %q", runner.got.DatasetID, "custom_dataset")
	}
	if runner.got.ComplianceLevel != "sox" {
		t.Errorf("compliance_level = %q, want %q", runner.got.ComplianceLevel, "sox")
	}
	if runner.got.AnalysisType != "risk" {
		t.Errorf("analysis_type = %q, want %q", runner.got.AnalysisType, "risk")
	}
}

func TestCreateRun_EmptyBody(t *testing.T) {
	runner := &stubRunner{report: successReport()}
	router := newTestRouter(t, runner, nil)

	req := httptest.NewRequest("POST", "/v1/runs", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// Empty body means defaults; the runner fills them in
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if runner.got != (domain.RunRequest{}) {
		t.Errorf("Expected zero-value request for empty body, got %+v", runner.got)
	}
}

func TestCreateRun_Failure(t *testing.T) {
	runner := &stubRunner{report: failureReport()}
	router := newTestRouter(t, runner, nil)

	req := httptest.NewRequest("POST", "/v1/runs", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected status %d, got %d", http.StatusBadGateway, rec.Code)
	}

	var report domain.RunReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if report.Status != domain.ReportStatusFailure {
		t.Errorf("status = %q, want %q", report.Status, domain.ReportStatusFailure)
	}
	if report.ErrorDetails == nil {
		t.Fatal("Expected error_details in failure report")
	}
	if report.ErrorDetails.ErrorType != "StageError:timeout" {
		t.Errorf("error_type = %q, want %q", report.ErrorDetails.ErrorType, "StageError:timeout")
	}
	if report.ComplianceStatus != domain.ComplianceUnknown {
		t.Errorf("compliance_status = %q, want %q", report.ComplianceStatus, domain.ComplianceUnknown)
	}
}

func TestCreateRun_MalformedBody(t *testing.T) {
	runner := &stubRunner{report: successReport()}
	router := newTestRouter(t, runner, nil)

	req := httptest.NewRequest("POST", "/v1/runs", bytes.NewBufferString(`{not json`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if runner.got != (domain.RunRequest{}) {
		t.Error("Runner should not be called for malformed body")
	}
}

func TestListAudit(t *testing.T) {
	trail := memory.New()
	ctx := context.Background()
	if err := trail.Append(ctx, testReport("audit_a")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := trail.Append(ctx, testReport("audit_b")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	router := newTestRouter(t, &stubRunner{report: successReport()}, trail)

	req := httptest.NewRequest("GET", "/v1/audit", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp auditListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	if resp.Reports[0].AuditID != "audit_a" || resp.Reports[1].AuditID != "audit_b" {
		t.Errorf("Expected insertion order [audit_a audit_b], got [%s %s]",
			resp.Reports[0].AuditID, resp.Reports[1].AuditID)
	}
}

func TestListAudit_Empty(t *testing.T) {
	router := newTestRouter(t, &stubRunner{report: successReport()}, nil)

	req := httptest.NewRequest("GET", "/v1/audit", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	// An empty trail must serialize as an empty array, not null
	if !strings.Contains(rec.Body.String(), `"reports":[]`) {
		t.Errorf("Expected empty reports array, got: %s", rec.Body.String())
	}
}

func TestGetAudit(t *testing.T) {
	trail := memory.New()
	if err := trail.Append(context.Background(), testReport("audit_xyz")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	router := newTestRouter(t, &stubRunner{report: successReport()}, trail)

	req := httptest.NewRequest("GET", "/v1/audit/audit_xyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var report domain.ComplianceReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if report.AuditID != "audit_xyz" {
		t.Errorf("audit_id = %q, want %q", report.AuditID, "audit_xyz")
	}
}

func TestGetAudit_NotFound(t *testing.T) {
	router := newTestRouter(t, &stubRunner{report: successReport()}, nil)

	req := httptest.NewRequest("GET", "/v1/audit/no_such_id", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &stubRunner{report: successReport()}, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Expected liveness body, got: %s", rec.Body.String())
	}
}

func TestRouter_SetsRequestID(t *testing.T) {
	router := newTestRouter(t, &stubRunner{report: successReport()}, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header on every response")
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t, &stubRunner{report: successReport()}, nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
}
