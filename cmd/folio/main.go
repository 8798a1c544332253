package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/folio/internal"
	"github.com/dukerupert/folio/internal/address"
	"github.com/dukerupert/folio/internal/api"
	"github.com/dukerupert/folio/internal/catalog"
	"github.com/dukerupert/folio/internal/crypto"
	"github.com/dukerupert/folio/internal/handler/storefront"
	"github.com/dukerupert/folio/internal/localcart"
	"github.com/dukerupert/folio/internal/middleware"
	"github.com/dukerupert/folio/internal/router"
	"github.com/dukerupert/folio/internal/routes"
	"github.com/dukerupert/folio/internal/service"
	"github.com/dukerupert/folio/internal/session"
	"github.com/dukerupert/folio/internal/storage"
	"github.com/dukerupert/folio/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Error reporting
	reporter, flush, err := telemetry.NewReporter(cfg.Sentry, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flush()

	// Metrics share one registry with the /metrics handler
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := middleware.NewMetrics(cfg.Metrics.Namespace, registry)
	cartMetrics := telemetry.NewCartMetrics(cfg.Metrics.Namespace, registry)

	// Durable device state: cart, credentials, addresses
	logger.Info("Initializing storage...", "provider", cfg.Storage.Provider)
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Bookstore API client
	client := api.New(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Logger:    logger,
		Observer:  cartMetrics,
	})
	logger.Info("Bookstore API configured", "base_url", cfg.API.BaseURL)

	// Session, catalog and cart
	var trackerOpts []session.Option
	if cfg.Storage.TokenKey != "" {
		key, err := crypto.DecodeKeyBase64(cfg.Storage.TokenKey)
		if err != nil {
			return fmt.Errorf("token encryption key: %w", err)
		}
		enc, err := crypto.NewAESEncryptor(key)
		if err != nil {
			return fmt.Errorf("token encryptor: %w", err)
		}
		trackerOpts = append(trackerOpts, session.WithEncryptor(enc))
		logger.Info("Stored credentials are encrypted")
	}
	tracker := session.NewTracker(store, client, logger, trackerOpts...)
	books := catalog.NewCache(client, logger)

	local := service.NewLocalBackend(localcart.NewStore(store, logger))
	remote := service.NewRemoteBackend(client, tracker, local, cartMetrics, logger)
	cartService := service.NewCartService(service.CartDeps{
		Local:    local,
		Remote:   remote,
		Sessions: tracker,
		Catalog:  books,
		Metrics:  cartMetrics,
		Reporter: reporter,
		Logger:   logger,
	})

	accountService := service.NewAccountService(tracker, client, cartService, cartMetrics, logger)
	addressBook := service.NewAddressBook(store, tracker, address.NewBasicValidator(), logger)
	orderService := service.NewOrderService(client, tracker, cartService, logger)
	checkoutService := service.NewCheckoutService(tracker, cartService, addressBook, cartMetrics, logger)

	// Startup: load the catalog, then resume any stored session and its cart
	if err := books.Initialize(ctx); err != nil {
		logger.Warn("Catalog unavailable at startup, will retry on demand", "error", err)
	}
	if user, err := accountService.Restore(ctx); err == nil && user != nil {
		logger.Info("Session restored", "user_id", user.ID)
	}

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	authLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())

	chain := []router.Middleware{
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		router.Recovery(logger),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		router.Logger(logger),
	}
	if sentryReporter, ok := reporter.(*telemetry.SentryReporter); ok {
		chain = append(chain, sentryReporter.Middleware)
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(chain...)

	routes.RegisterStorefrontRoutes(r, routes.StorefrontDeps{
		BookHandler:     storefront.NewBookHandler(books),
		CartHandler:     storefront.NewCartHandler(cartService),
		AccountHandler:  storefront.NewAccountHandler(accountService, cartService),
		AddressHandler:  storefront.NewAddressHandler(addressBook),
		CheckoutHandler: storefront.NewCheckoutHandler(checkoutService),
		OrderHandler:    storefront.NewOrderHandler(orderService),
		Sessions:        tracker,
		AuthLimit:       authLimiter.Middleware,
	})

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Metrics: httpMetrics.Handler(),
		Health: func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		},
	})

	// CORS wraps the whole router so preflight requests never reach the mux
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.CORS(cfg.AllowedOrigins)(r),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting storefront server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down storefront server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
