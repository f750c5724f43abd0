// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// InventoryHandler handles stock level and movement endpoints
type InventoryHandler struct {
	db        *gorm.DB
	inventory *inventory.Service
	catalog   *catalog.Service
	finance   *finance.Service
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(db *gorm.DB, inventoryService *inventory.Service, catalogService *catalog.Service, financeService *finance.Service) *InventoryHandler {
	return &InventoryHandler{
		db:        db,
		inventory: inventoryService,
		catalog:   catalogService,
		finance:   financeService,
	}
}

// Balances returns the company's stock levels
func (h *InventoryHandler) Balances(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	balances, err := h.inventory.ListBalances(companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stock balances"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": balances})
}

// Movements returns the company's stock movement history
func (h *InventoryHandler) Movements(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var productID *uint
	if value := c.Query("product_id"); value != "" {
		parsed, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id parameter"})
			return
		}
		id := uint(parsed)
		productID = &id
	}

	movements, err := h.inventory.ListMovements(companyID, productID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stock movements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": movements})
}

// Sell ships finished goods at catalog price: debits stock FIFO and credits
// the company in one transaction
func (h *InventoryHandler) Sell(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
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

	product, err := h.catalog.GetProduct(req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	var entry *finance.LedgerEntry
	err = h.db.Transaction(func(tx *gorm.DB) error {
		revenue := product.UnitPrice * int64(req.Quantity)
		entry, err = h.finance.CreditTx(tx, companyID, revenue, finance.ReasonGoodsSale,
			finance.Reference{Kind: finance.RefNone})
		if err != nil {
			return err
		}

		return h.inventory.DebitExactTx(tx, companyID, product.ID, req.Quantity,
			inventory.Reference{Kind: inventory.RefSale, ID: entry.ID})
	})
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sell goods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Goods sold successfully",
		"data":    entry,
	})
}

// Purchase buys raw materials at catalog price: charges the company and
// credits a new stock lot in one transaction
func (h *InventoryHandler) Purchase(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
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

	product, err := h.catalog.GetProduct(req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	var movement *inventory.StockMovement
	err = h.db.Transaction(func(tx *gorm.DB) error {
		cost := product.UnitPrice * int64(req.Quantity)
		entry, err := h.finance.ChargeTx(tx, companyID, cost, finance.ReasonMaterialValue,
			finance.Reference{Kind: finance.RefNone})
		if err != nil {
			return err
		}

		movement, err = h.inventory.CreditTx(tx, companyID, product.ID, req.Quantity,
			inventory.Reference{Kind: inventory.RefPurchase, ID: entry.ID})
		return err
	})
	if err != nil {
		if errors.Is(err, finance.ErrInsufficientFunds) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purchase materials"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Materials purchased successfully",
		"data":    movement,
	})
}
