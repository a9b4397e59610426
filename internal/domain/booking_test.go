package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_ValidEdges(t *testing.T) {
	valid := []struct {
		from BookingStatus
		to   BookingStatus
	}{
		{BookingStatusHeld, BookingStatusAwaitingPayment},
		{BookingStatusHeld, BookingStatusConfirmed},
		{BookingStatusHeld, BookingStatusExpired},
		{BookingStatusHeld, BookingStatusFailed},
		{BookingStatusHeld, BookingStatusCanceled},
		{BookingStatusAwaitingPayment, BookingStatusConfirmed},
		{BookingStatusAwaitingPayment, BookingStatusFailed},
		{BookingStatusAwaitingPayment, BookingStatusExpired},
		{BookingStatusAwaitingPayment, BookingStatusCanceled},
		{BookingStatusConfirmed, BookingStatusCanceled},
		{BookingStatusConfirmed, BookingStatusCompleted},
		{BookingStatusConfirmed, BookingStatusNoShow},
	}

	for _, tc := range valid {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
		assert.NoError(t, EnsureTransition(tc.from, tc.to))
	}
}

func TestCanTransition_TerminalStatusesHaveNoOutboundEdges(t *testing.T) {
	terminals := []BookingStatus{
		BookingStatusCanceled,
		BookingStatusCompleted,
		BookingStatusNoShow,
		BookingStatusFailed,
		BookingStatusExpired,
	}
	all := []BookingStatus{
		BookingStatusHeld,
		BookingStatusAwaitingPayment,
		BookingStatusConfirmed,
		BookingStatusCanceled,
		BookingStatusCompleted,
		BookingStatusNoShow,
		BookingStatusFailed,
		BookingStatusExpired,
	}

	for _, from := range terminals {
		assert.True(t, from.IsTerminal())
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s is terminal, %s -> %s must be rejected", from, from, to)
		}
	}
}

func TestCanTransition_InvalidEdges(t *testing.T) {
	invalid := []struct {
		from BookingStatus
		to   BookingStatus
	}{
		{BookingStatusHeld, BookingStatusCompleted},
		{BookingStatusHeld, BookingStatusNoShow},
		{BookingStatusAwaitingPayment, BookingStatusCompleted},
		{BookingStatusAwaitingPayment, BookingStatusNoShow},
		{BookingStatusConfirmed, BookingStatusHeld},
		{BookingStatusConfirmed, BookingStatusAwaitingPayment},
		{BookingStatusConfirmed, BookingStatusExpired},
		{BookingStatusConfirmed, BookingStatusFailed},
		{BookingStatusConfirmed, BookingStatusConfirmed},
	}

	for _, tc := range invalid {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s must be rejected", tc.from, tc.to)
		assert.ErrorIs(t, EnsureTransition(tc.from, tc.to), ErrInvalidTransition)
	}
}

func TestBooking_IsFree(t *testing.T) {
	free := &Booking{PriceCents: 0}
	paid := &Booking{PriceCents: 5000}

	assert.True(t, free.IsFree())
	assert.False(t, paid.IsFree())
}
