// @title        Sync Service API
// @version      1.0
// @description  Attendance device polling engine — pulls rosters and punch
// @description  events off networked terminals and reconciles them into the
// @description  identity graph.
// @host         localhost:8080
// @BasePath     /
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/arc-self/sync-service/internal/config"
	"github.com/arc-self/sync-service/internal/db"
	"github.com/arc-self/sync-service/internal/deviceclient"
	"github.com/arc-self/sync-service/internal/eventstream"
	"github.com/arc-self/sync-service/internal/exporter"
	"github.com/arc-self/sync-service/internal/fetcher"
	"github.com/arc-self/sync-service/internal/httpapi"
	"github.com/arc-self/sync-service/internal/httpmw"
	"github.com/arc-self/sync-service/internal/jobs"
	"github.com/arc-self/sync-service/internal/lock"
	"github.com/arc-self/sync-service/internal/model"
	"github.com/arc-self/sync-service/internal/natsbus"
	"github.com/arc-self/sync-service/internal/pollrun"
	"github.com/arc-self/sync-service/internal/scheduler"
	"github.com/arc-self/sync-service/internal/telemetry"
	"github.com/arc-self/sync-service/internal/workerpool"
)

func main() {
	// ── Structured Logger ──────────────────────────────────────────────────
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// ── OpenTelemetry Tracer ───────────────────────────────────────────────
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), "sync-service", otelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
			logger.Info("OTel tracer initialized", zap.String("endpoint", otelEndpoint))
		}

		mp, err := telemetry.InitMeterProvider(context.Background(), "sync-service", otelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel meter provider", zap.Error(err))
		} else {
			defer mp.Shutdown(context.Background())
		}
	}

	// ── Vault Secret Loading ───────────────────────────────────────────────
	vaultAddr := os.Getenv("VAULT_ADDR")
	if vaultAddr == "" {
		vaultAddr = "http://localhost:8200"
	}
	vaultToken := os.Getenv("VAULT_TOKEN")
	if vaultToken == "" {
		vaultToken = "root"
	}
	secretPath := os.Getenv("VAULT_SECRET_PATH")
	if secretPath == "" {
		secretPath = "secret/data/arc-self/sync-service"
	}

	vaultManager, err := config.NewSecretManager(vaultAddr, vaultToken)
	if err != nil {
		logger.Fatal("Vault connection failed", zap.Error(err))
	}
	conn, err := vaultManager.LoadConnectionStrings(secretPath)
	if err != nil {
		logger.Fatal("Failed to load secrets from Vault", zap.Error(err))
	}

	pgURL := conn.PGURL
	endDBURI := conn.EndDBURI
	natsURL := conn.NATSURL

	// ── Runtime Configuration ──────────────────────────────────────────────
	runtime := config.LoadRuntime()

	// ── Database Connection Pools (OTel-instrumented) ──────────────────────
	poolCfg, err := pgxpool.ParseConfig(pgURL)
	if err != nil {
		logger.Fatal("failed to parse PG_URL", zap.Error(err))
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()
	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		logger.Fatal("operational database connection failed", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("connected to operational database (OTel-instrumented)")

	endCfg, err := pgxpool.ParseConfig(endDBURI)
	if err != nil {
		logger.Fatal("failed to parse END_DB_URI", zap.Error(err))
	}
	endCfg.ConnConfig.Tracer = otelpgx.NewTracer()
	endPool, err := pgxpool.NewWithConfig(context.Background(), endCfg)
	if err != nil {
		logger.Fatal("end database connection failed", zap.Error(err))
	}
	defer endPool.Close()
	logger.Info("connected to end database (OTel-instrumented)")

	querier := db.New(pool)

	// ── NATS Event Bus ──────────────────────────────────────────────────────
	bus, err := natsbus.Connect(natsURL, logger)
	if err != nil {
		logger.Fatal("NATS connection failed", zap.Error(err))
	}
	defer bus.Close()

	if err := bus.ProvisionStream(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	hub := eventstream.NewHub(logger)
	if err := hub.Subscribe(bus); err != nil {
		logger.Fatal("failed to subscribe event stream hub to NATS", zap.Error(err))
	}

	// ── Device Capability, Locking, Fetching ────────────────────────────────
	locks := lock.NewRegistry(runtime.AccessLockDir, runtime.AccessLockStaleSeconds, runtime.AccessLockTimeout)

	// The real terminal-protocol client is out of scope for this service; the
	// simulator below stands in until a capability adapter is wired in from
	// deployment-specific configuration.
	client := deviceclient.NewSimulator(map[string]deviceclient.Fixture{})

	fetch := fetcher.New(client, pool, locks, fetcher.Config{
		ConnectTimeout:            runtime.ConnectTimeout,
		LockTimeout:               runtime.AccessLockTimeout,
		LockStaleSeconds:          runtime.AccessLockStaleSeconds,
		PruneMissingDeviceUsers:   runtime.PruneMissingDeviceUsers,
		AutoCreateUserinfo:        runtime.AutoCreateUserinfo,
		AllowInsertRawBadge:       runtime.AllowInsertRawBadge,
		AutoCreateUsersFromBadges: runtime.AutoCreateUsersFromBadges,
		UnmappedCSVDir:            runtime.SchedulerLogDir,
	}, logger)

	dispatcher := workerpool.New(runtime.MaxPollWorkers)

	// ── Jobs, Exporter, Scheduler ────────────────────────────────────────────
	registry := jobs.NewRegistry(logger)

	exp := exporter.New(querier, endPool, exporter.Config{
		BatchSize:        runtime.ExportBatchSize,
		LookbackDays:     runtime.ExportLookbackDays,
		TargetTable:      runtime.EndTargetTable,
		LogOffsetMinutes: runtime.ExportLogOffsetMinutes,
	}, logger)

	startExport := func(ctx context.Context) {
		if _, err := registry.StartExport(ctx, func(ctx context.Context, rec *jobs.Record) ([]any, error) {
			result, err := exp.Run(ctx)
			return []any{result}, err
		}); err != nil {
			logger.Warn("export-after-poll skipped", zap.Error(err))
		}
	}

	runner := pollrun.New(querier, dispatcher, fetch, runtime.SchedulerLogDir, logger, bus, runtime.ExportAfterPoll, startExport)

	pollAll := func(ctx context.Context) model.RunSummary { return runner.RunAll(ctx) }
	pollBranch := func(ctx context.Context, branchID int64) model.RunSummary { return runner.RunBranch(ctx, branchID) }

	sched := scheduler.New(
		func(ctx context.Context) { pollAll(ctx) },
		pollrun.PruneJobs(registry, runtime.JobTTLSeconds),
		logger,
	)

	// ── HTTP Server ────────────────────────────────────────────────────────
	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware("sync-service"))
	e.Use(httpmw.NullToEmptyArray())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request",
				zap.String("URI", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	httpapi.RegisterRoutes(e, httpapi.Deps{
		Registry:        registry,
		Scheduler:       sched,
		Exporter:        exp,
		Hub:             hub,
		Logger:          logger,
		DefaultInterval: runtime.PollInterval,
		PollAll:         pollAll,
		PollBranch:      pollBranch,
	})

	go func() {
		logger.Info("sync-service HTTP server listening on :8080")
		if err := e.Start(":8080"); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failure", zap.Error(err))
		}
	}()

	// ── Graceful Shutdown ──────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("initiating graceful shutdown")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Echo shutdown error", zap.Error(err))
	}
	logger.Info("sync-service shut down cleanly")
}
