package kafka

import "time"

// Event types, one per committed booking transition.
const (
	EventBookingHeld            = "booking:held"
	EventBookingAwaitingPayment = "booking:awaiting_payment"
	EventBookingConfirmed       = "booking:confirmed"
	EventBookingCanceled        = "booking:canceled"
	EventBookingFailed          = "booking:failed"
	EventBookingExpired         = "booking:expired"
)

// BookingEvent is the JSON payload published to the booking events topic.
// Fields not relevant to a given event type are omitted.
type BookingEvent struct {
	Type            string     `json:"type"`
	BookingID       string     `json:"booking_id"`
	SlotID          string     `json:"slot_id,omitempty"`
	RequesterID     string     `json:"requester_id,omitempty"`
	ResponderID     string     `json:"responder_id,omitempty"`
	SessionID       string     `json:"session_id,omitempty"`
	PaymentIntentID string     `json:"payment_intent_id,omitempty"`
	CanceledBy      string     `json:"canceled_by,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	HeldUntil       *time.Time `json:"held_until,omitempty"`
	ScheduledStart  *time.Time `json:"scheduled_start,omitempty"`
	Status          string     `json:"status,omitempty"`
}
