package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mouryay/slotbooking/internal/domain"
	"github.com/mouryay/slotbooking/internal/service/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateHold(ctx context.Context, input booking.CreateHoldInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) MarkAwaitingPayment(ctx context.Context, bookingID, paymentIntentID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Confirm(ctx context.Context, bookingID string, paymentIntentID, sessionID *string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, paymentIntentID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, bookingID, canceledBy string, reason *string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, canceledBy, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Fail(ctx context.Context, bookingID string, reason *string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) SweepExpiredHolds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingUseCase) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListForUser(ctx context.Context, userID string, status *domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListUpcoming(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func heldBooking() *domain.Booking {
	slotID := "slot-42"
	deadline := time.Date(2026, 3, 14, 10, 15, 0, 0, time.UTC)
	return &domain.Booking{
		ID:              "b-1",
		RequesterID:     "user-1",
		ResponderID:     "expert-9",
		SlotID:          &slotID,
		ScheduledStart:  time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		ScheduledEnd:    time.Date(2026, 3, 15, 11, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Timezone:        "UTC",
		PriceCents:      5000,
		Currency:        "usd",
		Status:          domain.BookingStatusHeld,
		HoldDeadline:    &deadline,
		HoldToken:       "tok-1",
	}
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := booking.CreateHoldInput{
		RequesterID:     "user-1",
		ResponderID:     "expert-9",
		SlotID:          "slot-42",
		ScheduledStart:  time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		ScheduledEnd:    time.Date(2026, 3, 15, 11, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Timezone:        "UTC",
		PriceCents:      5000,
		Currency:        "usd",
		HoldToken:       "tok-1",
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateHold", c.Request.Context(), input).Return(heldBooking(), nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "b-1", response.ID)
	assert.Equal(t, string(domain.BookingStatusHeld), response.Status)
	assert.Equal(t, "tok-1", response.HoldToken)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_SlotConflict(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(booking.CreateHoldInput{SlotID: "slot-42", HoldToken: "tok-1"})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateHold", c.Request.Context(), mock.Anything).Return(nil, domain.ErrSlotConflict)

	handler.create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "slot_conflict")
}

func TestBookingHandler_markAwaitingPayment(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b-1"}}
	body, _ := json.Marshal(awaitingPaymentRequest{PaymentIntentID: "pi_123"})
	c.Request = httptest.NewRequest("POST", "/bookings/b-1/awaiting-payment", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	updated := heldBooking()
	updated.Status = domain.BookingStatusAwaitingPayment
	pi := "pi_123"
	updated.PaymentIntentID = &pi

	mockService.On("MarkAwaitingPayment", c.Request.Context(), "b-1", "pi_123").Return(updated, nil)

	handler.markAwaitingPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, string(domain.BookingStatusAwaitingPayment), response.Status)
	assert.Equal(t, "pi_123", *response.PaymentIntentID)
}

func TestBookingHandler_confirm(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b-1"}}
	pi := "pi_123"
	sess := "sess_1"
	body, _ := json.Marshal(confirmRequest{PaymentIntentID: &pi, SessionID: &sess})
	c.Request = httptest.NewRequest("POST", "/bookings/b-1/confirm", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	updated := heldBooking()
	updated.Status = domain.BookingStatusConfirmed
	updated.HoldDeadline = nil
	updated.SessionID = &sess

	mockService.On("Confirm", c.Request.Context(), "b-1", &pi, &sess).Return(updated, nil)

	handler.confirm(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, string(domain.BookingStatusConfirmed), response.Status)
	assert.Nil(t, response.HoldDeadline)
	assert.Equal(t, "sess_1", *response.SessionID)
}

func TestBookingHandler_confirm_InvalidTransition(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b-1"}}
	c.Request = httptest.NewRequest("POST", "/bookings/b-1/confirm", nil)

	mockService.On("Confirm", c.Request.Context(), "b-1", (*string)(nil), (*string)(nil)).Return(nil, domain.ErrInvalidTransition)

	handler.confirm(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_transition")
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b-1"}}
	reason := "schedule conflict"
	body, _ := json.Marshal(cancelRequest{CanceledBy: "user-1", Reason: &reason})
	c.Request = httptest.NewRequest("POST", "/bookings/b-1/cancel", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	updated := heldBooking()
	updated.Status = domain.BookingStatusCanceled
	by := "user-1"
	updated.CanceledBy = &by
	updated.CancelReason = &reason

	mockService.On("Cancel", c.Request.Context(), "b-1", "user-1", &reason).Return(updated, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, string(domain.BookingStatusCanceled), response.Status)
	assert.Equal(t, "user-1", *response.CanceledBy)
	assert.Equal(t, "schedule conflict", *response.CancelReason)
}

func TestBookingHandler_get_NotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Request = httptest.NewRequest("GET", "/bookings/missing", nil)

	mockService.On("GetByID", c.Request.Context(), "missing").Return(nil, domain.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestBookingHandler_listForUser_WithStatusFilter(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "user-1"}}
	c.Request = httptest.NewRequest("GET", "/users/user-1/bookings?status=confirmed", nil)

	confirmed := domain.BookingStatusConfirmed
	mockService.On("ListForUser", c.Request.Context(), "user-1", &confirmed).Return([]domain.Booking{*heldBooking()}, nil)

	handler.listForUser(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_sweepExpired(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("POST", "/admin/sweep-expired", nil)

	mockService.On("SweepExpiredHolds", c.Request.Context()).Return(3, nil)

	handler.sweepExpired(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"expired": 3}`, w.Body.String())
}
