// internal/interfaces/http/handlers/production.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/domain/production"
	"github.com/your-org/factory-backend/internal/interfaces/http/middleware"
)

// ProductionHandler handles production order endpoints
type ProductionHandler struct {
	production *production.Service
}

// NewProductionHandler creates a new production handler
func NewProductionHandler(productionService *production.Service) *ProductionHandler {
	return &ProductionHandler{production: productionService}
}

// Start begins a new production run
func (h *ProductionHandler) Start(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		MachineID uint `json:"machine_id" binding:"required"`
		ProductID uint `json:"product_id" binding:"required"`
		Quantity  int  `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	order, err := h.production.Start(companyID, req.MachineID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, machine.ErrMachineNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, production.ErrInvalidQuantity),
			errors.Is(err, production.ErrProductNotResearched),
			errors.Is(err, production.ErrProductNotSupported):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, production.ErrMachineUnavailable),
			errors.Is(err, production.ErrNoEmployeeAssigned),
			errors.Is(err, inventory.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start production"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Production started successfully",
		"data":    order,
	})
}

// Cancel aborts a running order
func (h *ProductionHandler) Cancel(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.production.Cancel(companyID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, production.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, production.ErrOrderNotInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel production"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Production cancelled",
		"data":    order,
	})
}

// Get returns one order
func (h *ProductionHandler) Get(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.production.Get(companyID, orderID)
	if err != nil {
		if errors.Is(err, production.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// Progress returns the completion percentage of an order
func (h *ProductionHandler) Progress(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	progress, err := h.production.Progress(companyID, orderID)
	if err != nil {
		if errors.Is(err, production.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch progress"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"order_id": orderID,
			"progress": progress,
		},
	})
}

// List returns the company's orders
func (h *ProductionHandler) List(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var status *production.Status
	if value := c.Query("status"); value != "" {
		s := production.Status(value)
		status = &s
	}

	orders, err := h.production.List(companyID, status, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}
