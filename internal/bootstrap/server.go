package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mouryay/slotbooking/api"
	"github.com/mouryay/slotbooking/config"
	"github.com/mouryay/slotbooking/internal/service/booking"
	"github.com/mouryay/slotbooking/internal/service/slots"
	"go.uber.org/zap"
)

// Run starts the HTTP API and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, slotSvc slots.SlotUseCase, bookingSvc booking.BookingUseCase, logger *zap.Logger) error {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	slotHandler := api.NewSlotHandler(slotSvc)
	bookingHandler := api.NewBookingHandler(bookingSvc)

	slotHandler.Register(router.Group("/slots"))
	bookingHandler.Register(router.Group("/bookings"))
	bookingHandler.RegisterUserRoutes(router.Group("/users"))
	bookingHandler.RegisterAdminRoutes(router.Group("/admin"))

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logger.Info("http server started", zap.String("address", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
