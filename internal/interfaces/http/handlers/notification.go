// internal/interfaces/http/handlers/notification.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/interfaces/http/middleware"
)

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	notifications *notification.Service
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notificationService}
}

// List returns the company's notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	notifications, err := h.notifications.List(companyID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notifications})
}
