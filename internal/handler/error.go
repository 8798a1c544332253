package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/middleware"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ErrorResponse writes an error response. Validation errors become a 400
// with per-field messages; other errors use their domain code.
//
// Internal errors are logged with full detail and answered with a generic
// message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsValidationError(err) {
		ValidationErrorResponse(w, r, err)
		return
	}

	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	message := domain.ErrorMessage(err)

	logger := middleware.GetLogger(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"code", code,
			"op", domain.ErrorOp(err),
			"error", err,
		)
	} else {
		logger.Debug("request rejected",
			"code", code,
			"op", domain.ErrorOp(err),
			"error", err,
		)
	}

	writeError(w, r, status, errorDetail{Code: code, Message: message})
}

// ValidationErrorResponse writes a 400 with per-field messages. Errors
// that are not validation errors fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fields := domain.GetValidationFields(err)
	if fields == nil {
		ErrorResponse(w, r, err)
		return
	}

	message := "Please correct the highlighted fields"
	if len(fields) == 1 {
		for _, msg := range fields {
			message = msg
		}
	}

	writeError(w, r, http.StatusBadRequest, errorDetail{
		Code:    domain.EINVALID,
		Message: message,
		Fields:  fields,
	})
}

// NotFoundResponse writes a 404 response.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, errorDetail{Code: domain.ENOTFOUND, Message: "Not found"})
}

// UnauthorizedResponse writes a 401 response.
func UnauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, errorDetail{Code: domain.EUNAUTHORIZED, Message: "Please log in to continue"})
}

// ForbiddenResponse writes a 403 response.
func ForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusForbidden, errorDetail{Code: domain.EFORBIDDEN, Message: "Forbidden"})
}

// InternalErrorResponse logs err and writes a generic 500 response.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		middleware.GetLogger(r.Context()).Error("internal error", "error", err)
	}
	writeError(w, r, http.StatusInternalServerError, errorDetail{
		Code:    domain.EINTERNAL,
		Message: domain.ErrorMessage(domain.Internal(err, "", "")),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail errorDetail) {
	detail.RequestID = middleware.GetRequestID(r.Context())

	if !acceptsJSON(r) && acceptsPlainText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(detail.Message + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: detail}); err != nil {
		slog.Default().Error("failed to encode error response", "error", err)
	}
}

// acceptsJSON reports whether the client asked for or sent JSON.
func acceptsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasSuffix(r.URL.Path, ".json")
}

// acceptsPlainText reports whether the client explicitly prefers a
// non-JSON representation, such as a browser address bar.
func acceptsPlainText(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "text/plain")
}
