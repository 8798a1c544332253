// Package api is the HTTP client for the bookstore REST API.
//
// Every call takes a context and, for authenticated endpoints, the bearer
// token to attach. Callers decide which token is current; the client keeps
// no session state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Observer receives one observation per completed request.
// status is 0 when no response was received.
type Observer interface {
	ObserveAPIRequest(endpoint string, status int, elapsed time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables throttling
	Burst      int
	HTTPClient *http.Client
	Logger     *slog.Logger
	Observer   Observer
}

// Client talks to the bookstore API.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	observer Observer
}

// New creates a client for the API rooted at opts.BaseURL.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		http:     httpClient,
		limiter:  limiter,
		logger:   logger.With(slog.String("component", "api")),
		observer: opts.Observer,
	}
}

// request describes one call.
type request struct {
	op       string // domain op for errors, e.g. "api.cart.get"
	endpoint string // metrics label
	method   string
	path     string
	token    string
	body     any
}

// do performs the request and decodes a 2xx JSON body into out (when out
// is non-nil). Non-2xx responses become coded domain errors wrapping a
// *StatusError.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Unavailable(err, r.op, "Request was cancelled")
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return domain.Internal(err, r.op, "failed to encode request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return domain.Internal(err, r.op, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	requestID := domain.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(r.endpoint, 0, time.Since(start))
		c.logger.Warn("bookstore API unreachable",
			"op", r.op,
			"method", r.method,
			"path", r.path,
			"request_id", requestID,
			"error", err,
		)
		return domain.Unavailable(err, r.op, "Bookstore is unreachable. Please try again later.")
	}
	defer resp.Body.Close()
	c.observe(r.endpoint, resp.StatusCode, time.Since(start))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Unavailable(err, r.op, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := newStatusError(resp.StatusCode, payload)
		c.logger.Debug("bookstore API returned error",
			"op", r.op,
			"status", resp.StatusCode,
			"message", statusErr.Message,
			"request_id", requestID,
		)
		return statusErr.toDomain(r.op)
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return domain.WrapError(err, domain.EUNAVAILABLE, r.op, "Bookstore returned an unreadable response")
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveAPIRequest(endpoint, status, elapsed)
	}
}

// StatusError is a non-2xx response from the API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bookstore API returned %d: %s", e.StatusCode, e.Message)
}

// newStatusError extracts the server's message from a {message, error}
// body, falling back to the status text.
func newStatusError(status int, payload []byte) *StatusError {
	var body struct {
		Message string          `json:"message"`
		Detail  string          `json:"detail"`
		Error   json.RawMessage `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(payload, &body); err == nil {
		switch {
		case body.Message != "":
			msg = body.Message
		case body.Detail != "":
			msg = body.Detail
		default:
			msg = errorText(body.Error)
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &StatusError{StatusCode: status, Message: msg}
}

// errorText flattens an "error" value, which the server sends as a string,
// a list of strings or a map of field to messages, into one message.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, " ")
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) == nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if msg := errorText(fields[k]); msg != "" {
				return msg
			}
		}
	}
	return ""
}

func (e *StatusError) toDomain(op string) error {
	code := domain.EUNAVAILABLE
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = domain.EINVALID
	case http.StatusUnauthorized, http.StatusForbidden:
		code = domain.EUNAUTHORIZED
	case http.StatusNotFound:
		code = domain.ENOTFOUND
	case http.StatusConflict:
		code = domain.ECONFLICT
	case http.StatusTooManyRequests:
		code = domain.ERATELIMIT
	}
	return domain.WrapError(e, code, op, e.Message)
}

// StatusCode returns the HTTP status of a failed call, or 0 when the
// failure was not an HTTP response.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
