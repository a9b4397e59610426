package notify

import (
	"context"

	"github.com/mouryay/slotbooking/internal/kafka"
	"go.uber.org/zap"
)

// Notifier fans booking events out to the delivery channels (push, email).
// Delivery itself lives outside this service; here the event is only handed
// off and logged.
type Notifier struct {
	logger *zap.Logger
}

func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, event kafka.BookingEvent) error {
	n.logger.Info("booking notification",
		zap.String("type", event.Type),
		zap.String("booking_id", event.BookingID),
		zap.String("requester_id", event.RequesterID),
		zap.String("responder_id", event.ResponderID))
	return nil
}
