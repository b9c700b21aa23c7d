package controllers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// TechController is the mobile technician portal's API: assigned jobs, the
// forward-only status path, field artifacts, and the elapsed-time tracker.
type TechController struct {
	tech *services.TechService
}

func NewTechController(tech *services.TechService) *TechController {
	return &TechController{tech: tech}
}

func (tc *TechController) GetMyJobs(c *gin.Context) {
	actor := currentActor(c)

	jobs, err := tc.tech.ActiveJobs(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": jobs, "count": len(jobs)})
}

func (tc *TechController) GetJob(c *gin.Context) {
	actor := currentActor(c)

	job, err := tc.tech.GetJob(actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": job})
}

type TechStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (tc *TechController) UpdateStatus(c *gin.Context) {
	var req TechStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	actor := currentActor(c)

	job, err := tc.tech.UpdateStatus(actor, c.Param("id"), models.JobStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": job})
}

func (tc *TechController) UploadPhoto(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file uploaded"})
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Only JPG and PNG images are supported"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read upload"})
		return
	}
	defer src.Close()

	actor := currentActor(c)

	job, err := tc.tech.AddPhoto(actor, c.Param("id"), file.Filename, src)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": job})
}

func (tc *TechController) UploadSignature(c *gin.Context) {
	file, err := c.FormFile("signature")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file uploaded"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read upload"})
		return
	}
	defer src.Close()

	actor := currentActor(c)

	job, err := tc.tech.SetSignature(actor, c.Param("id"), file.Filename, src)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": job})
}

type TechNotesRequest struct {
	Notes string `json:"notes"`
}

func (tc *TechController) UpdateNotes(c *gin.Context) {
	var req TechNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	actor := currentActor(c)

	job, err := tc.tech.SetTechNotes(actor, c.Param("id"), req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": job})
}

func (tc *TechController) StartTimer(c *gin.Context) {
	tc.timerOp(c, tc.tech.Timers().Start)
}

func (tc *TechController) PauseTimer(c *gin.Context) {
	tc.timerOp(c, tc.tech.Timers().Pause)
}

func (tc *TechController) ResetTimer(c *gin.Context) {
	tc.timerOp(c, tc.tech.Timers().Reset)
}

func (tc *TechController) timerOp(c *gin.Context, op func(services.Actor, string) (*models.JobTimer, error)) {
	actor := currentActor(c)

	// Ownership check: the timer belongs to a job this technician holds.
	if _, err := tc.tech.GetJob(actor, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	timer, err := op(actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"running":        timer.Running(),
			"elapsedSeconds": timer.Elapsed(time.Now()),
		},
	})
}

func (tc *TechController) GetTimer(c *gin.Context) {
	actor := currentActor(c)

	if _, err := tc.tech.GetJob(actor, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	elapsed, err := tc.tech.Timers().Elapsed(actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"elapsedSeconds": elapsed}})
}
