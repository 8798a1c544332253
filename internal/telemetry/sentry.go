package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/folio/internal"
	"github.com/dukerupert/folio/internal/domain"
	"github.com/getsentry/sentry-go"
)

// Reporter sends errors to an error tracker.
// Safe to call with a nil error; implementations drop it.
type Reporter interface {
	CaptureError(ctx context.Context, err error, extras map[string]any)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) CaptureError(context.Context, error, map[string]any) {}

// SentryReporter reports through a dedicated Sentry hub.
type SentryReporter struct {
	hub    *sentry.Hub
	logger *slog.Logger
}

// NewReporter returns a SentryReporter when Sentry is enabled and a DSN is
// configured, otherwise a NopReporter. The cleanup function flushes pending
// events and should be called on shutdown.
func NewReporter(cfg internal.SentryConfig, logger *slog.Logger) (Reporter, func(), error) {
	if !cfg.Enabled {
		logger.Info("Sentry disabled (SENTRY_ENABLED=false or DSN not configured)")
		return NopReporter{}, func() {}, nil
	}

	if cfg.DSN == "" {
		logger.Warn("Sentry DSN not configured, disabling error tracking")
		return NopReporter{}, func() {}, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  sampleRate,
		Debug:       cfg.Debug,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// Expected outcomes are not worth an event.
			if hint != nil && hint.OriginalException != nil && expected(hint.OriginalException) {
				return nil
			}
			return event
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	logger.Info("Sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)

	hub := sentry.NewHub(client, sentry.NewScope())
	r := &SentryReporter{hub: hub, logger: logger}
	cleanup := func() {
		hub.Flush(2 * time.Second)
	}
	return r, cleanup, nil
}

// expected reports whether err is a user-facing outcome rather than a fault.
func expected(err error) bool {
	if domain.IsValidationError(err) {
		return true
	}
	switch domain.ErrorCode(err) {
	case domain.EINVALID, domain.ENOTFOUND, domain.EUNAUTHORIZED, domain.ECONFLICT:
		return true
	}
	return false
}

// CaptureError captures an error with extras, tagged with the request id
// when the context carries one.
func (r *SentryReporter) CaptureError(ctx context.Context, err error, extras map[string]any) {
	if err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = r.hub
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if id := domain.RequestIDFromContext(ctx); id != "" {
			scope.SetTag("request_id", id)
		}
		if op := domain.ErrorOp(err); op != "" {
			scope.SetTag("op", op)
		}
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		hub.CaptureException(err)
	})
}

// Middleware captures panics with request context and answers 500. It
// attaches a per-request hub so CaptureError picks up the request.
func (r *SentryReporter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hub := r.hub.Clone()
		hub.Scope().SetRequest(req)
		ctx := sentry.SetHubOnContext(req.Context(), hub)

		defer func() {
			if err := recover(); err != nil {
				hub.RecoverWithContext(ctx, err)
				hub.Flush(2 * time.Second)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
