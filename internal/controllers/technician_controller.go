package controllers

import (
	"net/http"

	"github.com/fieldops/backend/internal/logger"
	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TechnicianController manages the company roster. Adding a technician is
// gated by the subscription plan and also provisions a portal login for the
// tech so they can use the mobile routes.
type TechnicianController struct {
	db   *gorm.DB
	gate services.PlanLimitGate
}

func NewTechnicianController(db *gorm.DB, gate services.PlanLimitGate) *TechnicianController {
	return &TechnicianController{db: db, gate: gate}
}

type CreateTechnicianRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

type UpdateTechnicianRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Status *string `json:"status"`
}

func (tc *TechnicianController) GetTechnicians(c *gin.Context) {
	actor := currentActor(c)

	var techs []models.Technician
	err := tc.db.Where("company_id = ?", actor.CompanyID).
		Order("name asc").
		Find(&techs).Error
	if err != nil {
		logger.Error("Failed to list technicians", map[string]interface{}{
			"company_id": actor.CompanyID,
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch technicians"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": techs, "count": len(techs)})
}

func (tc *TechnicianController) CreateTechnician(c *gin.Context) {
	var req CreateTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	actor := currentActor(c)

	ok, plan, err := tc.gate.CanAddTechnician(actor.CompanyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to check plan limits"})
		return
	}
	if !ok {
		respondServiceError(c, &services.PlanLimitExceeded{
			Resource: "technicians",
			Limit:    plan.MaxTechnicians,
		})
		return
	}

	var existing models.User
	if err := tc.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "A user with this email already exists"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to process password"})
		return
	}

	tech := models.Technician{
		ID:        uuid.NewString(),
		CompanyID: actor.CompanyID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Status:    models.TechAvailable,
	}
	user := models.User{
		Email:     req.Email,
		Password:  string(hashed),
		FullName:  req.Name,
		Role:      models.RoleTech,
		CompanyID: actor.CompanyID,
	}

	err = tc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tech).Error; err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		logger.Error("Failed to create technician", map[string]interface{}{
			"company_id": actor.CompanyID,
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create technician"})
		return
	}

	logger.Info("Technician added", map[string]interface{}{
		"technician_id": tech.ID,
		"company_id":    actor.CompanyID,
	})
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": tech})
}

func (tc *TechnicianController) UpdateTechnician(c *gin.Context) {
	var req UpdateTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	actor := currentActor(c)

	var tech models.Technician
	err := tc.db.Where("id = ? AND company_id = ?", c.Param("id"), actor.CompanyID).
		First(&tech).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Technician not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Status != nil {
		status := models.TechnicianStatus(*req.Status)
		if !models.ValidTechnicianStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid technician status"})
			return
		}
		updates["status"] = status
	}
	if len(updates) > 0 {
		if err := tc.db.Model(&tech).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update technician"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": tech})
}

// DeleteTechnician removes a technician from the roster. Jobs already
// assigned to them keep the assignment; the dispatcher reassigns via the
// board.
func (tc *TechnicianController) DeleteTechnician(c *gin.Context) {
	actor := currentActor(c)

	var tech models.Technician
	err := tc.db.Where("id = ? AND company_id = ?", c.Param("id"), actor.CompanyID).
		First(&tech).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Technician not found"})
		return
	}

	err = tc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&tech).Error; err != nil {
			return err
		}
		// Drop the portal login alongside the roster entry.
		return tx.Where("email = ? AND company_id = ? AND role = ?",
			tech.Email, actor.CompanyID, models.RoleTech).
			Delete(&models.User{}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete technician"})
		return
	}

	logger.Info("Technician removed", map[string]interface{}{
		"technician_id": tech.ID,
		"company_id":    actor.CompanyID,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Technician deleted"})
}
