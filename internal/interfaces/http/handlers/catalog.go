// internal/interfaces/http/handlers/catalog.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/interfaces/http/middleware"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
)

// CatalogHandler handles catalog lookup endpoints
type CatalogHandler struct {
	catalog *catalog.Service
	clock   *simulation.Clock
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *catalog.Service, clock *simulation.Clock) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalogService,
		clock:   clock,
	}
}

// ListProducts returns the product catalog
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

// GetProduct returns one product with its recipe
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

// ListTemplates returns the machine template catalog
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	templates, err := h.catalog.ListTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list machine templates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": templates})
}

// ListEmployees returns the company's workforce
func (h *CatalogHandler) ListEmployees(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	employees, err := h.catalog.ListEmployees(companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list employees"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": employees})
}

// UnlockProduct marks a product as researched for the company
func (h *CatalogHandler) UnlockProduct(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if _, err := h.catalog.GetProduct(req.ProductID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	if err := h.catalog.UnlockProduct(companyID, req.ProductID, h.clock.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlock product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product unlocked successfully"})
}
