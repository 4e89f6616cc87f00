package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	appLogger "github.com/FACorreiaa/go-account-api/app/logger"
	"github.com/FACorreiaa/go-account-api/app/observability/metrics"
	"github.com/FACorreiaa/go-account-api/app/tracer"
	"github.com/FACorreiaa/go-account-api/config"
	"github.com/FACorreiaa/go-account-api/internal/container"
)

const serviceName = "go-account-api"

func main() {
	promoteEmail, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// Use standard log until slog is configured, in case godotenv fails
	if err = godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.New(os.Getenv("APP_ENV"), os.Stdout)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = run(ctx, &cfg, logger, promoteEmail); err != nil {
		logger.Error("Application exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}

// parseFlags returns the --promote-admin email, empty when the server should run.
func parseFlags(args []string) (string, error) {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	promoteEmail := fs.String("promote-admin", "", "grant admin rights to the account with this email and exit")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return *promoteEmail, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, promoteEmail string) error {
	metricsHandler, shutdownTelemetry, err := tracer.InitTracingAndMetrics(serviceName)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Error("Telemetry shutdown failed", slog.Any("error", err))
		}
	}()
	metrics.InitAppMetrics()

	c, err := container.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}
	defer c.Close()

	if promoteEmail != "" {
		if err = c.PromoteAdmin(ctx, promoteEmail); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		logger.Info("User promoted to admin", slog.String("email", promoteEmail))
		return nil
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:      newHandler(c, logger, cfg.Server.Timeout),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metricsHandler)
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Handlers.Prometheus.Port),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting metrics server", slog.String("address", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

// newHandler wraps the API routes in the server-wide middleware stack.
func newHandler(c *container.Container, logger *slog.Logger, timeout time.Duration) http.Handler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Mount("/", c.Router())

	return otelhttp.NewHandler(r, serviceName)
}
