// Command taskauth-server serves the task tracker API with bearer
// credentials and a revocation ledger.
//
//	taskauth-server -c taskauth.yaml --env-file .env --addr :8080
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/taskauth"
	"github.com/MrEthical07/taskauth/internal/accounts"
	"github.com/MrEthical07/taskauth/internal/config"
	"github.com/MrEthical07/taskauth/internal/httpapi"
	"github.com/MrEthical07/taskauth/internal/logging"
	"github.com/MrEthical07/taskauth/internal/rate"
	"github.com/MrEthical07/taskauth/internal/tasks"
	otelexport "github.com/MrEthical07/taskauth/metrics/export/otel"
	promexport "github.com/MrEthical07/taskauth/metrics/export/prometheus"
	"github.com/MrEthical07/taskauth/password"
	"go.opentelemetry.io/otel"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskauth-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags, err := config.ParseFlags("taskauth-server", args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(flags.Sources())
	if err != nil {
		return err
	}
	flags.Apply(cfg)

	log, err := logging.New(os.Stdout, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	engine, err := taskauth.New().
		WithConfig(cfg.Engine()).
		WithRevocationStore(st.ledger).
		WithAuditSink(taskauth.NewSlogSink(log.Slog().With("component", "audit"))).
		WithLogger(log.Slog().With("component", "engine")).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	report := engine.SecurityReport()
	log.Info(ctx, "security posture", "security", report)
	for _, w := range report.Warnings {
		log.Warn(ctx, "security posture", "warning", w)
	}

	if cfg.Metrics.OTel {
		mp, err := newMeterProvider(os.Stdout, cfg.Metrics.OTelInterval)
		if err != nil {
			return err
		}
		otel.SetMeterProvider(mp)
		defer func() {
			if err := shutdownMeterProvider(mp, cfg.HTTP.ShutdownTimeout); err != nil {
				log.Warn(context.Background(), "meter provider shutdown", "error", err)
			}
		}()

		exp, err := otelexport.NewExporter(mp.Meter(meterName), engine)
		if err != nil {
			return fmt.Errorf("otel exporter: %w", err)
		}
		defer func() { _ = exp.Close() }()
	}

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return err
	}
	accts, err := accounts.NewService(st.users, hasher)
	if err != nil {
		return err
	}

	deps := httpapi.Deps{
		Engine:   engine,
		Accounts: accts,
		Tasks:    tasks.NewService(st.tasks),
		Logger:   log.With("component", "http"),
		Ping:     st.Ping,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = promexport.NewExporter(engine).Handler()
	}
	if cfg.RateLimitActive() {
		deps.Limiter = rate.New(st.redis, cfg.Redis.Prefix+":rl")
		deps.Lockout = rate.NewLockout(st.redis, cfg.Redis.Prefix+":rl", cfg.RateLimit.Lockout())
	} else {
		log.Warn(ctx, "rate limiting disabled", "reason", "no redis configured")
	}

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go engine.RunSweeper(sweepCtx)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.New(deps).Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.HTTP.Addr,
			"records", cfg.Store.Records, "ledger", cfg.Store.Ledger)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
