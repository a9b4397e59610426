package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mouryay/slotbooking/internal/domain"
	"github.com/mouryay/slotbooking/internal/kafka"
	"github.com/mouryay/slotbooking/internal/repository"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateHold(ctx context.Context, input CreateHoldInput) (*domain.Booking, error)
	MarkAwaitingPayment(ctx context.Context, bookingID, paymentIntentID string) (*domain.Booking, error)
	Confirm(ctx context.Context, bookingID string, paymentIntentID, sessionID *string) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID, canceledBy string, reason *string) (*domain.Booking, error)
	Fail(ctx context.Context, bookingID string, reason *string) (*domain.Booking, error)
	SweepExpiredHolds(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListForUser(ctx context.Context, userID string, status *domain.BookingStatus) ([]domain.Booking, error)
	ListUpcoming(ctx context.Context, userID string) ([]domain.Booking, error)
}

// Cache invalidates availability listings once a slot changes hands.
type Cache interface {
	InvalidateSlots(ctx context.Context, responderID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	holdWindow         time.Duration
	paymentWindow      time.Duration
	now                func() time.Time
	logger             *zap.Logger
}

type CreateHoldInput struct {
	RequesterID      string    `json:"requester_id"`
	ResponderID      string    `json:"responder_id"`
	SlotID           string    `json:"slot_id"`
	ScheduledStart   time.Time `json:"scheduled_start"`
	ScheduledEnd     time.Time `json:"scheduled_end"`
	DurationMinutes  int       `json:"duration_minutes"`
	Timezone         string    `json:"timezone"`
	PriceCents       int64     `json:"price_cents"`
	Currency         string    `json:"currency"`
	PlatformFeeCents int64     `json:"platform_fee_cents"`
	PayoutCents      int64     `json:"payout_cents"`
	HoldToken        string    `json:"hold_token"`
	Notes            string    `json:"notes"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithClock replaces the wall clock, so expiry math is testable without sleeps.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	holdWindow, paymentWindow time.Duration,
	logger *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:      bookings,
		cache:         cache,
		producer:      producer,
		eventsTopic:   eventsTopic,
		holdWindow:    holdWindow,
		paymentWindow: paymentWindow,
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateHold reserves a slot for the requester. Idempotent by hold token: a
// repeated token returns the existing booking without touching the slot again.
func (s *BookingService) CreateHold(ctx context.Context, input CreateHoldInput) (*domain.Booking, error) {
	if err := validateCreateHold(input); err != nil {
		return nil, err
	}

	existing, err := s.bookings.GetByHoldToken(ctx, input.HoldToken)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	deadline := s.now().Add(s.holdWindow)
	slotID := input.SlotID
	booking := &domain.Booking{
		ID:               uuid.NewString(),
		RequesterID:      input.RequesterID,
		ResponderID:      input.ResponderID,
		SlotID:           &slotID,
		ScheduledStart:   input.ScheduledStart,
		ScheduledEnd:     input.ScheduledEnd,
		DurationMinutes:  input.DurationMinutes,
		Timezone:         input.Timezone,
		PriceCents:       input.PriceCents,
		Currency:         input.Currency,
		PlatformFeeCents: input.PlatformFeeCents,
		PayoutCents:      input.PayoutCents,
		HoldDeadline:     &deadline,
		HoldToken:        input.HoldToken,
		Notes:            input.Notes,
	}

	if err := s.bookings.CreateHeld(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateHoldToken) {
			// Lost the insert race to a retry carrying the same token.
			return s.bookings.GetByHoldToken(ctx, input.HoldToken)
		}
		return nil, err
	}

	s.invalidateSlots(ctx, booking.ResponderID)
	s.publish(ctx, kafka.EventBookingHeld, booking)
	return booking, nil
}

func validateCreateHold(input CreateHoldInput) error {
	if input.HoldToken == "" {
		return fmt.Errorf("%w: hold token is required", domain.ErrValidation)
	}
	if input.RequesterID == "" || input.ResponderID == "" {
		return fmt.Errorf("%w: requester and responder are required", domain.ErrValidation)
	}
	if input.SlotID == "" {
		return fmt.Errorf("%w: slot is required", domain.ErrValidation)
	}
	if input.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
	}
	if input.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	return nil
}

// MarkAwaitingPayment records the payment intent and stretches the hold to the
// payment window, tolerating external payment-UI latency.
func (s *BookingService) MarkAwaitingPayment(ctx context.Context, bookingID, paymentIntentID string) (*domain.Booking, error) {
	if paymentIntentID == "" {
		return nil, fmt.Errorf("%w: payment intent id is required", domain.ErrValidation)
	}

	deadline := s.now().Add(s.paymentWindow)
	updated, err := s.bookings.MarkAwaitingPayment(ctx, bookingID, paymentIntentID, deadline)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingAwaitingPayment, updated)
	return updated, nil
}

// Confirm finalizes the booking after a successful payment (or immediately for
// a free session). A second confirm fails with an invalid transition.
func (s *BookingService) Confirm(ctx context.Context, bookingID string, paymentIntentID, sessionID *string) (*domain.Booking, error) {
	updated, err := s.bookings.Confirm(ctx, bookingID, paymentIntentID, sessionID)
	if err != nil {
		return nil, err
	}

	s.invalidateSlots(ctx, updated.ResponderID)
	s.publish(ctx, kafka.EventBookingConfirmed, updated)
	return updated, nil
}

func (s *BookingService) Cancel(ctx context.Context, bookingID, canceledBy string, reason *string) (*domain.Booking, error) {
	if canceledBy == "" {
		return nil, fmt.Errorf("%w: canceled_by is required", domain.ErrValidation)
	}

	updated, err := s.bookings.Cancel(ctx, bookingID, canceledBy, reason, s.now())
	if err != nil {
		return nil, err
	}

	s.invalidateSlots(ctx, updated.ResponderID)
	s.publish(ctx, kafka.EventBookingCanceled, updated)
	return updated, nil
}

// Fail records an irrecoverable payment failure reported by the payment
// processor. The slot always goes back to the pool.
func (s *BookingService) Fail(ctx context.Context, bookingID string, reason *string) (*domain.Booking, error) {
	updated, err := s.bookings.Fail(ctx, bookingID, reason)
	if err != nil {
		return nil, err
	}

	s.invalidateSlots(ctx, updated.ResponderID)
	s.publish(ctx, kafka.EventBookingFailed, updated)
	return updated, nil
}

// SweepExpiredHolds reclaims every overdue hold in one transaction and
// publishes the expiry events only after that transaction committed.
func (s *BookingService) SweepExpiredHolds(ctx context.Context) (int, error) {
	expired, err := s.bookings.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, err
	}

	for i := range expired {
		s.invalidateSlots(ctx, expired[i].ResponderID)
		s.publish(ctx, kafka.EventBookingExpired, &expired[i])
	}
	return len(expired), nil
}

func (s *BookingService) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) ListForUser(ctx context.Context, userID string, status *domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookings.ListForUser(ctx, userID, status)
}

func (s *BookingService) ListUpcoming(ctx context.Context, userID string) ([]domain.Booking, error) {
	return s.bookings.ListUpcoming(ctx, userID, s.now())
}

func (s *BookingService) invalidateSlots(ctx context.Context, responderID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSlots(ctx, responderID); err != nil {
		s.logger.Warn("invalidate slot cache", zap.String("responder_id", responderID), zap.Error(err))
	}
}

// publish runs strictly after the transition committed. A publish failure is
// logged for operational follow-up and never turns a committed transition
// into a reported error.
func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}

	event := eventFor(eventType, b)
	if err := s.producer.Publish(ctx, s.eventsTopic, b.ID, event); err != nil {
		s.logger.Warn("publish booking event",
			zap.String("type", eventType), zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.ID, event); err != nil {
			s.logger.Warn("publish booking notification",
				zap.String("type", eventType), zap.String("booking_id", b.ID), zap.Error(err))
		}
	}
}

func eventFor(eventType string, b *domain.Booking) kafka.BookingEvent {
	event := kafka.BookingEvent{
		Type:      eventType,
		BookingID: b.ID,
		Status:    string(b.Status),
	}

	switch eventType {
	case kafka.EventBookingHeld:
		if b.SlotID != nil {
			event.SlotID = *b.SlotID
		}
		event.RequesterID = b.RequesterID
		event.ResponderID = b.ResponderID
		event.HeldUntil = b.HoldDeadline
	case kafka.EventBookingAwaitingPayment:
		if b.PaymentIntentID != nil {
			event.PaymentIntentID = *b.PaymentIntentID
		}
	case kafka.EventBookingConfirmed:
		event.RequesterID = b.RequesterID
		event.ResponderID = b.ResponderID
		if b.SessionID != nil {
			event.SessionID = *b.SessionID
		}
		start := b.ScheduledStart
		event.ScheduledStart = &start
	case kafka.EventBookingCanceled:
		event.RequesterID = b.RequesterID
		event.ResponderID = b.ResponderID
		if b.CanceledBy != nil {
			event.CanceledBy = *b.CanceledBy
		}
		if b.CancelReason != nil {
			event.Reason = *b.CancelReason
		}
	case kafka.EventBookingFailed:
		event.RequesterID = b.RequesterID
		event.ResponderID = b.ResponderID
		if b.CancelReason != nil {
			event.Reason = *b.CancelReason
		}
	case kafka.EventBookingExpired:
		event.RequesterID = b.RequesterID
		event.ResponderID = b.ResponderID
	}
	return event
}

var _ BookingUseCase = (*BookingService)(nil)
