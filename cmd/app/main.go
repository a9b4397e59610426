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
	"github.com/mouryay/slotbooking/internal/bootstrap"
	"github.com/mouryay/slotbooking/internal/cache"
	"github.com/mouryay/slotbooking/internal/kafka"
	"github.com/mouryay/slotbooking/internal/logger"
	"github.com/mouryay/slotbooking/internal/migrate"
	"github.com/mouryay/slotbooking/internal/repository"
	"github.com/mouryay/slotbooking/internal/service/booking"
	"github.com/mouryay/slotbooking/internal/service/slots"
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

	migrator, err := migrate.NewMigrator(pool, cfg.Database.MigrationsPath)
	if err != nil {
		zl.Fatal("init migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		zl.Fatal("run migrations", zap.Error(err))
	}
	migrator.Close()

	redisCache := cache.NewRedisCache(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, time.Duration(cfg.Booking.SlotsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	slotRepo := repository.NewSlotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool, slotRepo)

	slotService := slots.NewSlotService(slotRepo, redisCache)
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

	if err := bootstrap.Run(ctx, cfg, slotService, bookingService, zl); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
