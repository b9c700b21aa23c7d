package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fieldops/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type ReportsController struct {
	reports *services.ReportService
}

func NewReportsController(reports *services.ReportService) *ReportsController {
	return &ReportsController{reports: reports}
}

// GetSummary returns aggregate job statistics. The optional "days" query
// param limits the window by creation time; omitted or 0 means all time.
func (rc *ReportsController) GetSummary(c *gin.Context) {
	actor := currentActor(c)

	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid days parameter"})
			return
		}
		days = parsed
	}

	summary, err := rc.reports.Summary(actor.CompanyID, days, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}
