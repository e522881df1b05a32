package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

const retryAfterSeconds = 1

// statusFor maps an error kind to the HTTP status the API answers with.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUpstream:
		return http.StatusBadGateway
	case domain.KindConfiguration, domain.KindConcurrentModification:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError answers with the status and body derived from err.
// Internal errors are logged and their text is not sent to the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	msg := err.Error()
	if kind == domain.KindInternal {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	} else if status >= http.StatusInternalServerError {
		slog.WarnContext(r.Context(), "request failed", "path", r.URL.Path, "kind", kind, "error", err)
	}

	// transient: the ledger gave up after its single retry
	if kind == domain.KindConcurrentModification {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}

	writeError(w, status, string(kind), msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
