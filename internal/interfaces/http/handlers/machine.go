// internal/interfaces/http/handlers/machine.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/interfaces/http/middleware"
)

// MachineHandler handles machine lifecycle endpoints
type MachineHandler struct {
	machines *machine.Service
}

// NewMachineHandler creates a new machine handler
func NewMachineHandler(machines *machine.Service) *MachineHandler {
	return &MachineHandler{machines: machines}
}

// List returns the company's machines
func (h *MachineHandler) List(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	machines, err := h.machines.List(companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list machines"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": machines})
}

// Get returns one machine
func (h *MachineHandler) Get(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	machineID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	found, err := h.machines.Get(companyID, machineID)
	if err != nil {
		if errors.Is(err, machine.ErrMachineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch machine"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": found})
}

// Setup buys a machine instance from a template
func (h *MachineHandler) Setup(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		MachineTemplateID uint `json:"machine_template_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	created, err := h.machines.Setup(companyID, req.MachineTemplateID)
	if err != nil {
		switch {
		case errors.Is(err, machine.ErrTemplateCannotBeSetUp):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, finance.ErrInsufficientFunds):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set up machine"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Machine set up successfully",
		"data":    created,
	})
}

// AssignEmployee attaches an operator to a machine
func (h *MachineHandler) AssignEmployee(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	machineID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		EmployeeID uint `json:"employee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	updated, err := h.machines.AssignEmployee(companyID, machineID, req.EmployeeID)
	if err != nil {
		switch {
		case errors.Is(err, machine.ErrMachineNotFound), errors.Is(err, machine.ErrEmployeeNotAssignable):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, machine.ErrMachineNotInactive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign employee"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Employee assigned successfully",
		"data":    updated,
	})
}

// Sell retires a machine and credits the resale value
func (h *MachineHandler) Sell(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	machineID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sold, err := h.machines.Sell(companyID, machineID)
	if err != nil {
		switch {
		case errors.Is(err, machine.ErrMachineNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, machine.ErrMachineNotSellable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sell machine"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Machine sold successfully",
		"data":    sold,
	})
}

// StartMaintenance puts a machine into maintenance
func (h *MachineHandler) StartMaintenance(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	machineID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	maintenance, err := h.machines.StartMaintenance(companyID, machineID)
	if err != nil {
		switch {
		case errors.Is(err, machine.ErrMachineNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, machine.ErrMaintenanceNotAllowed),
			errors.Is(err, machine.ErrMaintenanceInProgress),
			errors.Is(err, finance.ErrInsufficientFunds):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start maintenance"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Maintenance started successfully",
		"data":    maintenance,
	})
}

// parseIDParam reads a positive integer path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
		return 0, false
	}
	return uint(value), true
}
