// Package handler exposes the audit over HTTP as JSON.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"go.uber.org/zap"
)

// Runner runs one audit. *usecase.Auditor satisfies it.
type Runner interface {
	Run(ctx context.Context, username string) (*domain.AuditResult, error)
}

type (
	ErrorResponse struct {
		Error ErrorDetail `json:"error"`
	}

	ErrorDetail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
)

// AuditHandler serves audit requests.
type AuditHandler struct {
	runner  Runner
	timeout time.Duration
	logger  *zap.Logger
}

// NewAuditHandler creates an AuditHandler. A positive timeout bounds each audit.
func NewAuditHandler(runner Runner, timeout time.Duration, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{runner: runner, timeout: timeout, logger: logger}
}

// NewRouter mounts the health check and the audit endpoint.
func NewRouter(h *AuditHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/audit/{username}", h.GetAudit)
	r.Get("/api/audit/", h.GetAudit)
	r.Get("/api/audit", h.GetAudit)
	return r
}

// GetAudit runs an audit for the username in the path.
func (h *AuditHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	logger := h.logger.With(
		zap.String("username", username),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.runner.Run(ctx, username)
	if err != nil {
		status, code := statusFor(err)
		logger.Warn("audit failed", zap.Int("status", status), zap.Error(err))
		h.writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
		return
	}

	h.writeJSON(w, http.StatusOK, result)
	logger.Info("audit returned",
		zap.Int("total_prs", result.TotalPRs),
		zap.String("verdict", string(result.Verdict)))
}

// statusFor maps audit failures to an HTTP status and a stable error code.
// An expired audit deadline wins over the fetch failure it surfaces as.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, domain.ErrEmptyUsername):
		return http.StatusBadRequest, "EMPTY_USERNAME"
	case errors.Is(err, domain.ErrInvalidUsername):
		return http.StatusBadRequest, "INVALID_USERNAME"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, domain.ErrNoPullRequests):
		return http.StatusNotFound, "NO_PULL_REQUESTS"
	case errors.Is(err, domain.ErrNoSizeData):
		return http.StatusNotFound, "NO_SIZE_DATA"
	case errors.Is(err, domain.ErrFetchFailed):
		return http.StatusBadGateway, "FETCH_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func (h *AuditHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}
