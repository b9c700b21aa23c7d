package controllers

import (
	"errors"
	"net/http"

	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/services"
	"github.com/fieldops/backend/internal/store"
	"github.com/gin-gonic/gin"
)

// currentActor builds the service-layer actor from the auth middleware's
// context values.
func currentActor(c *gin.Context) services.Actor {
	return services.Actor{
		UID:          c.GetString("user_email"),
		Name:         c.GetString("full_name"),
		Role:         models.UserRole(c.GetString("user_role")),
		CompanyID:    c.GetString("company_id"),
		TechnicianID: c.GetString("technician_id"),
	}
}

// respondServiceError converts the service error taxonomy into HTTP
// responses. Every failure is surfaced; nothing propagates silently.
func respondServiceError(c *gin.Context, err error) {
	var (
		validation *services.ValidationError
		transition *services.InvalidTransitionError
		planLimit  *services.PlanLimitExceeded
		capacity   *services.CapacityError
		storeWrite *services.StoreWriteFailure
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validation.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": transition.Error()})
	case errors.As(err, &planLimit):
		c.JSON(http.StatusPaymentRequired, gin.H{"success": false, "error": planLimit.Error(), "upgrade": true})
	case errors.As(err, &capacity):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": capacity.Error()})
	case errors.Is(err, store.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Job not found"})
	case errors.As(err, &storeWrite):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Failed to save changes, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Unexpected error"})
	}
}
