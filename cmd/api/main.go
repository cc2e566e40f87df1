// Package main is the entry point for the HiveWatch API server.
//
// It loads the configuration, connects to PostgreSQL and AWS, wires the
// repositories, assessment engine and handlers into the core chassis, and
// serves requests.
//
// Inside AWS Lambda the router is served through a function URL; everywhere
// else it runs as a standard HTTP server on the configured port with
// graceful shutdown on SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambdaurl"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"

	"hivewatch/internal/api/handlers"
	"hivewatch/internal/assessment"
	"hivewatch/internal/auth"
	"hivewatch/internal/config"
	"hivewatch/internal/core"
	"hivewatch/internal/db"
	notifcore "hivewatch/internal/notifications/core"
	"hivewatch/internal/queue"
	"hivewatch/internal/reassess"
	"hivewatch/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// apiMetrics is what the API records: request telemetry for the chassis and
// assessment outcomes for the recorder.
type apiMetrics interface {
	core.MetricsCollector
	notifcore.AssessmentMetrics
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(config.ProviderFromEnv())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	logger.Info("hivewatch API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	awsCfg, err := cfg.AWS.LoadAWS(ctx)
	if err != nil {
		pool.Close()
		return err
	}

	var metrics apiMetrics = notifcore.NopMetrics{}
	if cfg.Observability.EnableMetrics {
		metrics = notifcore.NewCloudWatchAssessmentMetrics(
			cloudwatch.NewFromConfig(awsCfg),
			cfg.Observability.MetricNamespace,
			types.NewSlogLogger(logger),
		)
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		pool.Close()
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Closers = append(srv.Closers, func() error {
		pool.Close()
		return nil
	})

	apiKeys := db.NewAPIKeyRepository(pool)
	hasher := auth.BcryptHasher{Cost: cfg.Security.BcryptCost}

	srv.Authenticator = auth.NewAPIKeyAuthenticator(apiKeys, hasher, types.RealClock{}, logger)
	srv.IdempotencyStore = db.NewIdempotencyRepository(pool)
	srv.Metrics = metrics
	srv.HealthProbes = append(srv.HealthProbes, core.NewDatabaseProbe(pool))

	registerRoutes(srv, pool, sqs.NewFromConfig(awsCfg), metrics, hasher)
	srv.MountRoutes()

	if isLambdaEnvironment() {
		return runLambda(srv, logger)
	}
	return runHTTPServer(srv, cfg, logger)
}

// registerRoutes builds the domain handlers and hands them to the server.
func registerRoutes(srv *core.Server, pool db.DBTX, sqsClient queue.SQSSender, metrics notifcore.AssessmentMetrics, hasher auth.Hasher) {
	cfg := srv.Config
	logger := srv.Logger
	clock := types.RealClock{}

	apiaries := db.NewApiaryRepository(pool)
	hives := db.NewHiveRepository(pool)
	inspections := db.NewInspectionRepository(pool)
	assessments := db.NewAssessmentRepository(pool)
	apiKeys := db.NewAPIKeyRepository(pool)

	analyzer := assessment.NewAnalyzer(logger)
	recorder := reassess.NewRecorder(
		assessments,
		hives,
		queue.NewAlertPublisher(sqsClient, cfg.AWS, logger),
		metrics,
		clock,
		logger,
	)
	trigger := queue.NewReassessTrigger(sqsClient, cfg.AWS, clock, logger)
	depth := cfg.Reassess.HistoryDepth

	registrars := []interface {
		RegisterRoutes(r chi.Router, scope handlers.ScopeMiddleware)
	}{
		handlers.NewApiaryHandler(apiaries, srv.Validator, logger),
		handlers.NewHiveHandler(hives, apiaries, srv.Validator, logger),
		handlers.NewInspectionHandler(hives, apiaries, inspections, analyzer, recorder, depth, srv.Validator, clock, logger),
		handlers.NewAssessmentHandler(hives, apiaries, inspections, assessments, analyzer, trigger, depth, srv.Validator, clock, logger),
		handlers.NewAPIKeyHandler(apiKeys, hasher, srv.Validator, clock, logger),
	}
	for _, h := range registrars {
		srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, func(r chi.Router) {
			h.RegisterRoutes(r, srv.RequireScope)
		})
	}
}

// isLambdaEnvironment reports whether the process runs inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runLambda serves the router behind a Lambda function URL. lambdaurl.Start
// does not return while the runtime is healthy.
func runLambda(srv *core.Server, logger *slog.Logger) error {
	logger.Info("serving through Lambda function URL")
	lambdaurl.Start(srv.Handler())
	return srv.Shutdown(context.Background())
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}
