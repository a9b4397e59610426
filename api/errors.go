package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mouryay/slotbooking/internal/domain"
)

// writeError maps the domain error taxonomy onto HTTP. The code field lets
// clients branch: conflict means retry with a different slot, invalid
// transition means the action is no longer valid.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.Is(err, domain.ErrSlotConflict):
		c.JSON(http.StatusConflict, gin.H{"code": "slot_conflict", "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_transition", "error": err.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_input", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": "internal error"})
	}
}
