package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/gateway"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/provider/amadeus"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
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

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		zl.Fatal("init telemetry", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			zl.Warn("flush traces", zap.Error(err))
		}
	}()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			zl.Fatal("apply schema", zap.Error(err))
		}
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Provider.CacheTTL)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		zl.Warn("redis unavailable, offer cache and booking locks will fail open", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
	defer producer.Close()
	checkCtx, cancelCheck := context.WithTimeout(ctx, 5*time.Second)
	if err := producer.CheckConnection(checkCtx); err != nil {
		zl.Warn("kafka unavailable, booking events will be dropped", zap.Error(err))
	}
	cancelCheck()

	amadeusClient := amadeus.NewClient(cfg.Provider, zl)
	flightService := flights.NewFlightService(
		repository.NewSearchRepository(pool),
		zl,
		[]flights.OfferProvider{amadeusClient},
		flights.WithOfferCache(redisCache),
	)

	gwCfg := gateway.DefaultSimulatedConfig()
	gwCfg.ConfirmLatency = cfg.Booking.ConfirmationLatency
	gwCfg.CancelLatency = cfg.Booking.CancellationLatency
	gwCfg.CancelFailureRate = cfg.Booking.CancellationFailureRate()
	gw := gateway.NewSimulatedGateway(gwCfg)

	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		flightService,
		gw,
		booking.WithLocker(redisCache, cfg.Booking.LockTTL),
		booking.WithProducer(producer, cfg.Kafka.BookingEventsTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithStrictAvailability(cfg.Booking.StrictAvailability),
		booking.WithExternalTimeout(cfg.Booking.ExternalCallTimeout),
		booking.WithDefaultPageSize(cfg.Booking.DefaultPageSize),
		booking.WithLocation(cfg.Booking.Location()),
		booking.WithLogger(zl),
	)

	if err := bootstrap.Run(ctx, cfg, zl, flightService, bookingService); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
