package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dukerupert/folio/internal/domain"
)

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	return domain.RequestIDFromContext(ctx)
}

// respondWithError writes a JSON error for failures raised inside
// middleware. Handlers use handler.ErrorResponse instead; this copy exists
// because handler imports middleware.
func respondWithError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	attrs := []any{
		"code", code,
		"status", status,
	}
	if reqID := GetRequestID(r.Context()); reqID != "" {
		attrs = append(attrs, "request_id", reqID)
	}
	GetLogger(r.Context()).Info("middleware error", attrs...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
