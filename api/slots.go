package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mouryay/slotbooking/internal/domain"
	"github.com/mouryay/slotbooking/internal/service/slots"
)

type SlotHandler struct {
	service slots.SlotUseCase
}

type slotResponse struct {
	ID              string  `json:"id"`
	ResponderID     string  `json:"responder_id"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Timezone        string  `json:"timezone"`
	DurationMinutes int     `json:"duration_minutes"`
	PriceCents      int64   `json:"price_cents"`
	IsFree          bool    `json:"is_free"`
	Status          string  `json:"status"`
	HoldDeadline    *string `json:"hold_deadline,omitempty"`
}

func NewSlotHandler(service slots.SlotUseCase) *SlotHandler {
	return &SlotHandler{service: service}
}

func (h *SlotHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
}

func (h *SlotHandler) list(c *gin.Context) {
	responderID := c.Query("responder_id")
	if responderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_input", "error": "responder_id is required"})
		return
	}

	from, err := parseTimeParam(c.Query("from"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_input", "error": "invalid from timestamp"})
		return
	}
	to, err := parseTimeParam(c.Query("to"), from.AddDate(0, 0, 14))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_input", "error": "invalid to timestamp"})
		return
	}

	list, err := h.service.ListAvailable(c.Request.Context(), responderID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]slotResponse, 0, len(list))
	for i := range list {
		out = append(out, toSlotResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *SlotHandler) get(c *gin.Context) {
	slot, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSlotResponse(slot))
}

func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func toSlotResponse(s *domain.Slot) slotResponse {
	resp := slotResponse{
		ID:              s.ID,
		ResponderID:     s.ResponderID,
		StartTime:       s.StartTime.Format(time.RFC3339),
		EndTime:         s.EndTime.Format(time.RFC3339),
		Timezone:        s.Timezone,
		DurationMinutes: s.DurationMinutes,
		PriceCents:      s.PriceCents,
		IsFree:          s.IsFree,
		Status:          string(s.Status),
	}
	if s.HoldDeadline != nil {
		deadline := s.HoldDeadline.Format(time.RFC3339)
		resp.HoldDeadline = &deadline
	}
	return resp
}
