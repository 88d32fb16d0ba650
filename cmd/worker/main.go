package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airadmin/config"
	"github.com/Domenick1991/airadmin/internal/cache"
	"github.com/Domenick1991/airadmin/internal/kafka"
	"github.com/Domenick1991/airadmin/internal/logger"
	"github.com/Domenick1991/airadmin/internal/metrics"
	"github.com/Domenick1991/airadmin/internal/repository"
	"github.com/Domenick1991/airadmin/internal/service/airports"
	"github.com/Domenick1991/airadmin/internal/service/users"
	"github.com/Domenick1991/airadmin/internal/worker"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	pool, err := repository.NewPool(ctx, cfg.Database)
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool, cfg.Database.Schema); err != nil {
		zl.Fatal("apply migrations", zap.Error(err))
	}

	redisCache := cache.NewRedisCache(
		cfg.Redis,
		time.Duration(cfg.Admin.SessionTTLMinutes)*time.Minute,
		time.Duration(cfg.Admin.SummaryCacheTTLSeconds)*time.Second,
	)
	defer func() { _ = redisCache.Close() }()

	airportService := airports.NewAirportService(
		repository.NewAirportRepository(pool),
		repository.NewFlightRepository(pool),
		airports.WithCache(redisCache),
		airports.WithLogger(zl.Named("airports")),
	)

	if cfg.Worker.RehashLegacyPasswords {
		userService := users.NewUserService(
			repository.NewUserRepository(pool),
			repository.NewUserRoleRepository(pool),
			users.WithLogger(zl.Named("users")),
		)
		if err := worker.RehashPasswords(ctx, userService, zl); err != nil {
			zl.Error("rehash legacy passwords", zap.Error(err))
		}
	}

	metricsSrv := &http.Server{
		Addr:              cfg.Worker.MetricsAddress,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("metrics server stopped", zap.Error(err))
		}
	}()

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.AuditTopic, zl.Named("kafka"))
		defer func() { _ = consumer.Close() }()

		recorder := worker.NewAuditRecorder(repository.NewAuditRepository(pool), zl.Named("audit"))
		go recorder.Run(ctx, consumer)
	} else {
		zl.Warn("no kafka brokers configured, audit consumer disabled")
	}

	zl.Info("worker started",
		zap.Int("summary_refresh_minutes", cfg.Worker.SummaryRefreshMinutes),
		zap.String("metrics", cfg.Worker.MetricsAddress))

	worker.RefreshSummaryEvery(ctx, time.Duration(cfg.Worker.SummaryRefreshMinutes)*time.Minute, airportService, zl)

	zl.Info("shutting down worker")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown metrics server", zap.Error(err))
	}
}
