package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airadmin/config"
	"github.com/Domenick1991/airadmin/internal/bootstrap"
	"github.com/Domenick1991/airadmin/internal/cache"
	"github.com/Domenick1991/airadmin/internal/kafka"
	"github.com/Domenick1991/airadmin/internal/logger"
	"github.com/Domenick1991/airadmin/internal/repository"
	"github.com/Domenick1991/airadmin/internal/service/airports"
	"github.com/Domenick1991/airadmin/internal/service/users"
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

	checks := map[string]bootstrap.Check{
		"postgres": pool.Ping,
		"redis":    redisCache.Ping,
	}

	airportOpts := []airports.Option{
		airports.WithCache(redisCache),
		airports.WithLogger(zl.Named("airports")),
		airports.WithPageSize(cfg.Admin.PageSize),
	}
	userOpts := []users.Option{
		users.WithLogger(zl.Named("users")),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, zl.Named("kafka"))
		defer func() { _ = producer.Close() }()

		airportOpts = append(airportOpts, airports.WithProducer(producer))
		userOpts = append(userOpts, users.WithProducer(producer))
		checks["kafka"] = producer.CheckConnection
	} else {
		zl.Warn("no kafka brokers configured, audit events are disabled")
	}

	airportService := airports.NewAirportService(
		repository.NewAirportRepository(pool),
		repository.NewFlightRepository(pool),
		airportOpts...,
	)
	userService := users.NewUserService(
		repository.NewUserRepository(pool),
		repository.NewUserRoleRepository(pool),
		userOpts...,
	)

	if err := bootstrap.Run(ctx, cfg, bootstrap.Services{
		Airports: airportService,
		Users:    userService,
		Sessions: redisCache,
		Audit:    repository.NewAuditRepository(pool),
		Checks:   checks,
	}, zl); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
