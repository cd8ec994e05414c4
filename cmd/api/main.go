package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"

	"github.com/nyashahama/stroke-risk-backend/internal/api"
	"github.com/nyashahama/stroke-risk-backend/internal/config"
	"github.com/nyashahama/stroke-risk-backend/internal/db"
	"github.com/nyashahama/stroke-risk-backend/internal/email"
	"github.com/nyashahama/stroke-risk-backend/internal/metrics"
	"github.com/nyashahama/stroke-risk-backend/internal/narrative"
	"github.com/nyashahama/stroke-risk-backend/internal/rpc"
	"github.com/nyashahama/stroke-risk-backend/internal/store"
	"github.com/nyashahama/stroke-risk-backend/internal/worker"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Database ──────────────────────────────────────────────────────────────
	pool, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	if cfg.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(migrateCtx, pool)
		cancel()
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema applied")
	}

	st := store.New(pool)

	// ── Metrics ───────────────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// ── Narratives ────────────────────────────────────────────────────────────
	// Anthropic is primary, DeepSeek the fallback. With neither key set the
	// worker finalises assessments without a narrative.
	narrator := buildNarrator(cfg, logger)

	// ── Email (Resend) ────────────────────────────────────────────────────────
	var mailer email.Sender = email.Noop{}
	if cfg.ResendAPIKey != "" {
		mailer = email.NewResendClient(cfg.ResendAPIKey, cfg.EmailFromAddr, cfg.EmailFromName, cfg.BaseURL)
	} else {
		logger.Info("email: RESEND_API_KEY not set, delivery emails disabled")
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	job := worker.NewJob(st, narrator, mailer, m, logger)
	runner := worker.NewRunner(job, st.Q(), st, worker.RunnerConfig{
		Workers:      cfg.WorkerCount,
		PollInterval: cfg.PollInterval,
		JobTimeout:   cfg.JobTimeout,
		MaxRetries:   cfg.MaxRetries,
	}, m, logger)

	// ── HTTP ──────────────────────────────────────────────────────────────────
	handler := api.NewServer(st, runner, m, api.Config{
		Env:              cfg.Env,
		BatchMaxRecords:  cfg.BatchMaxRecords,
		BatchConcurrency: cfg.BatchConcurrency,
	}, logger)

	httpSrv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// ── gRPC ──────────────────────────────────────────────────────────────────
	grpcSrv, healthSrv := rpc.NewServer(rpc.NewService(m, logger), logger)

	// ── Listener ──────────────────────────────────────────────────────────────
	// One port: gRPC is recognised by its content-type, everything else is HTTP.
	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	mux := cmux.New(lis)
	grpcL := mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := mux.Match(cmux.Any())

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(workerDone)
	}()

	serverErr := make(chan error, 3)
	go func() {
		if err := grpcSrv.Serve(grpcL); err != nil && !errors.Is(err, grpc.ErrServerStopped) && !isClosed(err) {
			serverErr <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		if err := httpSrv.Serve(httpL); err != nil && !errors.Is(err, http.ErrServerClosed) && !isClosed(err) {
			serverErr <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := mux.Serve(); err != nil && !isClosed(err) {
			serverErr <- fmt.Errorf("cmux: %w", err)
		}
	}()
	logger.Info("server listening", "addr", lis.Addr().String(), "protocols", "http,grpc")

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return err
	}

	healthSrv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcSrv.GracefulStop()
	_ = lis.Close()

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("worker did not stop before the shutdown deadline")
	}

	logger.Info("shutdown complete")
	return nil
}

func buildNarrator(cfg *config.Config, logger *slog.Logger) narrative.Narrator {
	var primary, secondary narrative.Narrator
	if cfg.AnthropicAPIKey != "" {
		primary = narrative.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}
	if cfg.DeepSeekAPIKey != "" {
		secondary = narrative.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel)
	}

	switch {
	case primary != nil && secondary != nil:
		logger.Info("narrative: using Anthropic with DeepSeek fallback")
		return narrative.NewFallback(primary, secondary, logger)
	case primary != nil:
		logger.Info("narrative: using Anthropic only")
		return primary
	case secondary != nil:
		logger.Info("narrative: using DeepSeek only")
		return secondary
	}
	logger.Info("narrative: no provider configured, narratives disabled")
	return nil
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, cmux.ErrListenerClosed)
}

// openDB opens and tunes the connection pool and checks the database is
// reachable before anything else starts.
func openDB(dsn string) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}
