package main // Entry point package

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-reservation/internal/cache"
	"github.com/iliyamo/travel-reservation/internal/cancellation"
	"github.com/iliyamo/travel-reservation/internal/config"
	"github.com/iliyamo/travel-reservation/internal/database"
	"github.com/iliyamo/travel-reservation/internal/events"
	"github.com/iliyamo/travel-reservation/internal/handler"
	"github.com/iliyamo/travel-reservation/internal/logger"
	"github.com/iliyamo/travel-reservation/internal/metrics"
	"github.com/iliyamo/travel-reservation/internal/middleware"
	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/queue"
	"github.com/iliyamo/travel-reservation/internal/repository"
	"github.com/iliyamo/travel-reservation/internal/repository/memory"
	"github.com/iliyamo/travel-reservation/internal/reservation"
	"github.com/iliyamo/travel-reservation/internal/router"
	"github.com/iliyamo/travel-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.Env)

	if err := run(cfg); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func run(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	cacheCfg := config.LoadCacheConfig()

	evCfg := config.LoadEventsConfig()
	publisher, err := events.New(events.Options{
		Broker:      evCfg.Broker,
		RabbitMQURL: evCfg.RabbitMQURL,
		Queue:       evCfg.Queue,
		KafkaBroker: evCfg.KafkaBrokers,
		KafkaTopic:  evCfg.KafkaTopic,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logrus.WithError(err).Warn("closing event publisher failed")
		}
	}()

	policy := cancellation.NewPolicy(cfg.CancellationFlatFee)
	for rt, fee := range cfg.CancellationFlatFeeByType {
		policy.FlatFeeByType[model.ResourceType(rt)] = fee
	}
	opts := []reservation.Option{reservation.WithPublisher(publisher)}
	if cacheCfg.AvailabilityEnabled && rdb != nil {
		opts = append(opts, reservation.WithAvailabilityCache(cache.NewAvailability(rdb, cacheCfg.AvailabilityTTL)))
	}
	engine := reservation.New(store, reservation.Config{
		ServiceFee:      cfg.ServiceFee,
		Policy:          policy,
		DefaultCurrency: cfg.DefaultCurrency,
		MaxStayNights:   cfg.MaxStayNights,
	}, opts...)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog())
	e.Use(metrics.Middleware)

	router.RegisterRoutes(e)
	h := handler.NewBookingHandler(engine, cache.NewIdempotency(rdb, cacheCfg.IdempotencyTTL))
	router.RegisterBooking(e, h, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	var workers []service.Runner
	if evCfg.ConsumerEnabled && evCfg.Broker == events.BrokerRabbitMQ {
		workers = append(workers, &queue.Consumer{
			URL:   evCfg.RabbitMQURL,
			Queue: evCfg.Queue,
			Log:   queue.NewBookingLog(evCfg.ConsumerLogPath),
		})
	}

	logrus.WithFields(logrus.Fields{"env": cfg.Env, "store": cfg.StoreDriver, "events": evCfg.Broker}).Info("reservation engine ready")
	return service.New(":"+cfg.Port, e, workers...).Run(ctx)
}

// openStore returns the configured store and a func releasing it.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		s := memory.New(cfg.LockWaitTimeout)
		if cfg.CatalogFile != "" {
			if err := s.LoadCatalogFile(cfg.CatalogFile); err != nil {
				return nil, nil, err
			}
		}
		return s, func() {}, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mysql: %w", err)
	}
	if err := database.CreateTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("creating tables: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("closing database failed")
		}
	}
	return repository.NewMySQLStore(db, cfg.LockWaitTimeout), closeDB, nil
}
