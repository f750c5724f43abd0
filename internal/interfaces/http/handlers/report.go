// internal/interfaces/http/handlers/report.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/interfaces/http/middleware"
	"github.com/your-org/factory-backend/internal/pkg/report"
)

// ReportHandler handles PDF report endpoints
type ReportHandler struct {
	reports *report.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *report.Service) *ReportHandler {
	return &ReportHandler{reports: reportService}
}

// Operations streams the company operations report as a PDF
func (h *ReportHandler) Operations(c *gin.Context) {
	companyID, exists := middleware.GetCompanyIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	pdf, err := h.reports.GenerateOperationsReport(companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	filename := fmt.Sprintf("operations-report-%d.pdf", companyID)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", pdf.Bytes())
}
