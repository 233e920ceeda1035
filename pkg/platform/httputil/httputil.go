// Package httputil centralises JSON response writing and request decoding
// for the HTTP transport.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "coppice/pkg/domain-errors"
)

// WriteJSON writes a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a coded domain error onto an HTTP error response.
// Internal errors omit the description so infrastructure detail never
// reaches clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := statusFor(code)

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes a JSON request body into T, writing a bad-request
// response (and returning ok=false) on malformed input.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request decode failed", "request_id", requestID, "error", err)
		}
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body"))
		var zero T
		return zero, false
	}
	return req, true
}
