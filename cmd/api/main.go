package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/greatgold/storefront/internal/handlers"
	"github.com/greatgold/storefront/internal/payments"
	"github.com/greatgold/storefront/internal/platform/config"
	"github.com/greatgold/storefront/internal/platform/cors"
	"github.com/greatgold/storefront/internal/platform/observability"
	"github.com/greatgold/storefront/internal/services"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("configuration is incomplete; refusing to start", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	paymentsLogger := logger.Named("payments")
	gateway, err := payments.NewStripeGateway(payments.StripeGatewayConfig{
		APIKey: cfg.Stripe.SecretKey,
		Logger: func(ctx context.Context, event string, fields map[string]any) {
			zFields := make([]zap.Field, 0, len(fields)+1)
			zFields = append(zFields, zap.String("event", event))
			for k, v := range fields {
				zFields = append(zFields, zap.Any(k, v))
			}
			paymentsLogger.Debug("stripe log", zFields...)
		},
	})
	if err != nil {
		logger.Fatal("failed to initialise stripe gateway", zap.Error(err))
	}

	checkoutLogger := logger.Named("checkout")
	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Gateway:  gateway,
		Currency: cfg.Stripe.Currency,
		Logger: func(ctx context.Context, event string, fields map[string]any) {
			zFields := make([]zap.Field, 0, len(fields)+1)
			zFields = append(zFields, zap.String("event", event))
			for k, v := range fields {
				zFields = append(zFields, zap.Any(k, v))
			}
			checkoutLogger.Debug("checkout log", zFields...)
		},
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	checkoutHandlers := handlers.NewCheckoutHandlers(checkoutService)
	healthHandlers := handlers.NewHealthHandlers(cfg.Environment)

	middlewares := []func(http.Handler) http.Handler{
		cors.Middleware(cfg.CORS.AllowedOrigins),
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
	)

	listener, port, err := listenWithRetry(logger, cfg.Server.Port, cfg.Server.BindRetries)
	if err != nil {
		logger.Fatal("failed to bind listen address", zap.Error(err))
	}

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.Int("port", port), zap.String("env", cfg.Environment))
	go func() {
		serverLogger.Info("storefront api listening")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// listenWithRetry binds the first free port starting at the configured one,
// moving up one port per attempt until the retry budget is spent.
func listenWithRetry(logger *zap.Logger, port, retries int) (net.Listener, int, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		candidate := port + attempt
		listener, err := net.Listen("tcp", ":"+strconv.Itoa(candidate))
		if err == nil {
			if attempt > 0 {
				logger.Warn("configured port busy; using fallback",
					zap.Int("configured", port),
					zap.Int("port", candidate),
				)
			}
			return listener, candidate, nil
		}
		lastErr = err
		logger.Warn("port unavailable", zap.Int("port", candidate), zap.Error(err))
	}
	return nil, 0, fmt.Errorf("no free port in range %d-%d: %w", port, port+retries, lastErr)
}
