package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mouryay/slotbooking/internal/domain"
	"github.com/mouryay/slotbooking/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type awaitingPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

type confirmRequest struct {
	PaymentIntentID *string `json:"payment_intent_id"`
	SessionID       *string `json:"session_id"`
}

type cancelRequest struct {
	CanceledBy string  `json:"canceled_by"`
	Reason     *string `json:"reason"`
}

type failRequest struct {
	Reason *string `json:"reason"`
}

type bookingResponse struct {
	ID              string  `json:"id"`
	RequesterID     string  `json:"requester_id"`
	ResponderID     string  `json:"responder_id"`
	SlotID          *string `json:"slot_id,omitempty"`
	SessionID       *string `json:"session_id,omitempty"`
	ScheduledStart  string  `json:"scheduled_start"`
	ScheduledEnd    string  `json:"scheduled_end"`
	DurationMinutes int     `json:"duration_minutes"`
	Timezone        string  `json:"timezone"`
	PriceCents      int64   `json:"price_cents"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	PaymentIntentID *string `json:"payment_intent_id,omitempty"`
	CanceledAt      *string `json:"canceled_at,omitempty"`
	CanceledBy      *string `json:"canceled_by,omitempty"`
	CancelReason    *string `json:"cancel_reason,omitempty"`
	HoldDeadline    *string `json:"hold_deadline,omitempty"`
	HoldToken       string  `json:"hold_token"`
	Notes           string  `json:"notes,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/awaiting-payment", h.markAwaitingPayment)
	router.POST("/:id/confirm", h.confirm)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/fail", h.fail)
}

// RegisterUserRoutes mounts the per-user booking listings.
func (h *BookingHandler) RegisterUserRoutes(router *gin.RouterGroup) {
	router.GET("/:id/bookings", h.listForUser)
	router.GET("/:id/bookings/upcoming", h.listUpcoming)
}

// RegisterAdminRoutes mounts the manual sweep trigger.
func (h *BookingHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.POST("/sweep-expired", h.sweepExpired)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateHoldInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_input", "error": err.Error()})
		return
	}

	b, err := h.service.CreateHold(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) markAwaitingPayment(c *gin.Context) {
	var req awaitingPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_input", "error": err.Error()})
		return
	}

	b, err := h.service.MarkAwaitingPayment(c.Request.Context(), c.Param("id"), req.PaymentIntentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) confirm(c *gin.Context) {
	var req confirmRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_input", "error": err.Error()})
			return
		}
	}

	b, err := h.service.Confirm(c.Request.Context(), c.Param("id"), req.PaymentIntentID, req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_input", "error": err.Error()})
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req.CanceledBy, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) fail(c *gin.Context) {
	var req failRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_input", "error": err.Error()})
			return
		}
	}

	b, err := h.service.Fail(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) listForUser(c *gin.Context) {
	var status *domain.BookingStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.BookingStatus(raw)
		status = &s
	}

	list, err := h.service.ListForUser(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(list))
}

func (h *BookingHandler) listUpcoming(c *gin.Context) {
	list, err := h.service.ListUpcoming(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(list))
}

func (h *BookingHandler) sweepExpired(c *gin.Context) {
	count, err := h.service.SweepExpiredHolds(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": count})
}

func toBookingResponses(list []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toBookingResponse(&list[i]))
	}
	return out
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:              b.ID,
		RequesterID:     b.RequesterID,
		ResponderID:     b.ResponderID,
		SlotID:          b.SlotID,
		SessionID:       b.SessionID,
		ScheduledStart:  b.ScheduledStart.Format(time.RFC3339),
		ScheduledEnd:    b.ScheduledEnd.Format(time.RFC3339),
		DurationMinutes: b.DurationMinutes,
		Timezone:        b.Timezone,
		PriceCents:      b.PriceCents,
		Currency:        b.Currency,
		Status:          string(b.Status),
		PaymentIntentID: b.PaymentIntentID,
		CanceledBy:      b.CanceledBy,
		CancelReason:    b.CancelReason,
		HoldToken:       b.HoldToken,
		Notes:           b.Notes,
	}
	if b.CanceledAt != nil {
		v := b.CanceledAt.Format(time.RFC3339)
		resp.CanceledAt = &v
	}
	if b.HoldDeadline != nil {
		v := b.HoldDeadline.Format(time.RFC3339)
		resp.HoldDeadline = &v
	}
	return resp
}
