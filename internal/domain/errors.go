package domain

import "errors"

var (
	// ErrNotFound means the booking or slot id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlotConflict means the slot was not available at lock time;
	// the caller should retry with a different slot.
	ErrSlotConflict = errors.New("slot is not available")

	// ErrInvalidTransition means the requested status change is not
	// permitted from the booking's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation means the input was malformed.
	ErrValidation = errors.New("invalid input")
)
