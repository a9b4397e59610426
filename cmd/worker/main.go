package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mouryay/slotbooking/config"
	"github.com/mouryay/slotbooking/internal/cache"
	"github.com/mouryay/slotbooking/internal/kafka"
	"github.com/mouryay/slotbooking/internal/logger"
	"github.com/mouryay/slotbooking/internal/notify"
	"github.com/mouryay/slotbooking/internal/repository"
	"github.com/mouryay/slotbooking/internal/service/booking"
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

	zl := logger.New(cfg.Env)
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, time.Duration(cfg.Booking.SlotsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	slotRepo := repository.NewSlotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool, slotRepo)
	bookingService := booking.NewBookingService(
		bookingRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.HoldWindowMinutes)*time.Minute,
		time.Duration(cfg.Booking.PaymentWindowMinutes)*time.Minute,
		zl,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	notifier := notify.NewNotifier(zl)

	go func() {
		if err := consumer.Consume(ctx, notifier.Notify); err != nil {
			zl.Warn("consumer stopped", zap.Error(err))
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.SweepIntervalSeconds) * time.Second)
	defer sweepTicker.Stop()

	zl.Info("hold expiration sweeper started",
		zap.Int("interval_seconds", cfg.Worker.SweepIntervalSeconds))

	for {
		select {
		case <-sweepTicker.C:
			count, err := bookingService.SweepExpiredHolds(ctx)
			if err != nil {
				// Nothing to compensate, the next tick retries.
				zl.Error("sweep expired holds", zap.Error(err))
				continue
			}
			if count > 0 {
				zl.Info("expired holds reclaimed", zap.Int("count", count))
			}
		case <-ctx.Done():
			zl.Info("worker shutting down")
			return
		}
	}
}
