// internal/interfaces/http/handlers/tick.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/ticker"
)

// TickHandler exposes the simulation tick to the external scheduler
type TickHandler struct {
	ticker *ticker.Ticker
}

// NewTickHandler creates a new tick handler
func NewTickHandler(t *ticker.Ticker) *TickHandler {
	return &TickHandler{ticker: t}
}

// Run advances the simulation by one tick
func (h *TickHandler) Run(c *gin.Context) {
	if err := h.ticker.RunTick(c.Request.Context()); err != nil {
		if errors.Is(err, ticker.ErrTickInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tick failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tick completed"})
}
