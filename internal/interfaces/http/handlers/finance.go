// internal/interfaces/http/handlers/finance.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/interfaces/http/middleware"
)

// FinanceHandler handles financial ledger endpoints
type FinanceHandler struct {
	finance *finance.Service
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(financeService *finance.Service) *FinanceHandler {
	return &FinanceHandler{finance: financeService}
}

// ListEntries returns the company's ledger, newest first
func (h *FinanceHandler) ListEntries(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	entries, err := h.finance.ListEntries(companyID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ledger entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
