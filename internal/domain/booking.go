package domain

import "time"

type BookingStatus string

const (
	BookingStatusHeld            BookingStatus = "held"
	BookingStatusAwaitingPayment BookingStatus = "awaiting_payment"
	BookingStatusConfirmed       BookingStatus = "confirmed"
	BookingStatusCanceled        BookingStatus = "canceled"
	BookingStatusCompleted       BookingStatus = "completed"
	BookingStatusNoShow          BookingStatus = "no_show"
	BookingStatusFailed          BookingStatus = "failed"
	BookingStatusExpired         BookingStatus = "expired"
)

// transitions is the full booking state machine. Terminal statuses have no
// outbound edges; any edge absent here must be rejected without mutating state.
var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusHeld: {
		BookingStatusAwaitingPayment,
		BookingStatusConfirmed,
		BookingStatusExpired,
		BookingStatusFailed,
		BookingStatusCanceled,
	},
	BookingStatusAwaitingPayment: {
		BookingStatusConfirmed,
		BookingStatusFailed,
		BookingStatusExpired,
		BookingStatusCanceled,
	},
	BookingStatusConfirmed: {
		BookingStatusCanceled,
		BookingStatusCompleted,
		BookingStatusNoShow,
	},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EnsureTransition returns ErrInvalidTransition when from -> to is not a
// valid edge of the state machine.
func EnsureTransition(from, to BookingStatus) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// IsTerminal reports whether a booking in this status is immutable.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCanceled, BookingStatusCompleted, BookingStatusNoShow,
		BookingStatusFailed, BookingStatusExpired:
		return true
	}
	return false
}

// Booking is a reservation between a requester and a responder. While
// non-terminal it is the sole owner of its slot; on cancellation, failure or
// expiry the slot reverts to available.
type Booking struct {
	ID               string
	RequesterID      string
	ResponderID      string
	SlotID           *string
	SessionID        *string
	ScheduledStart   time.Time
	ScheduledEnd     time.Time
	DurationMinutes  int
	Timezone         string
	PriceCents       int64
	Currency         string
	PlatformFeeCents int64
	PayoutCents      int64
	Status           BookingStatus
	PaymentIntentID  *string
	CanceledAt       *time.Time
	CanceledBy       *string
	CancelReason     *string
	HoldDeadline     *time.Time
	HoldToken        string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsFree reports whether this booking needs no payment step.
func (b *Booking) IsFree() bool {
	return b.PriceCents == 0
}
