package domain

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusHeld      SlotStatus = "held"
	SlotStatusConfirmed SlotStatus = "confirmed"
)

// Slot is a responder's offered time window, the unit of mutual exclusion.
// Slots are created by availability generation elsewhere; here they are only
// transitioned between available, held and confirmed.
type Slot struct {
	ID              string
	ResponderID     string
	StartTime       time.Time
	EndTime         time.Time
	Timezone        string
	DurationMinutes int
	PriceCents      int64
	IsFree          bool
	Status          SlotStatus
	HoldDeadline    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
