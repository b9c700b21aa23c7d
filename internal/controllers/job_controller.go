package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/services"
	"github.com/fieldops/backend/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type JobController struct {
	db   *gorm.DB
	jobs *services.JobService
}

func NewJobController(db *gorm.DB, jobs *services.JobService) *JobController {
	return &JobController{db: db, jobs: jobs}
}

type CreateJobRequest struct {
	CustomerName  string `json:"customerName" binding:"required"`
	CustomerPhone string `json:"customerPhone" binding:"required"`
	Address       string `json:"address" binding:"required"`
	JobType       string `json:"jobType" binding:"required"`
	Priority      string `json:"priority" binding:"required"`
	AssignedTo    string `json:"assignedTo"`
	ScheduledDate string `json:"scheduledDate"`
	ScheduledTime string `json:"scheduledTime"`
	Notes         string `json:"notes"`
}

type UpdateJobRequest struct {
	CustomerName  *string `json:"customerName"`
	CustomerPhone *string `json:"customerPhone"`
	Address       *string `json:"address"`
	JobType       *string `json:"jobType"`
	Priority      *string `json:"priority"`
	AssignedTo    *string `json:"assignedTo"`
	ScheduledDate *string `json:"scheduledDate"`
	ScheduledTime *string `json:"scheduledTime"`
	Notes         *string `json:"notes"`
	Status        *string `json:"status"`
}

// parseSchedule combines a date and optional time into one timestamp. A date
// without a time gets the default 9 AM slot.
func parseSchedule(date, timeOfDay string) (*time.Time, error) {
	if date == "" {
		return nil, nil
	}
	if timeOfDay == "" {
		timeOfDay = "09:00"
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", fmt.Sprintf("%sT%s", date, timeOfDay), time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (jc *JobController) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	actor := currentActor(c)

	scheduled, err := parseSchedule(req.ScheduledDate, req.ScheduledTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid scheduled date or time"})
		return
	}

	assignedToName := ""
	if req.AssignedTo != "" {
		var tech models.Technician
		if err := jc.db.Where("company_id = ? AND id = ?", actor.CompanyID, req.AssignedTo).First(&tech).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown technician"})
			return
		}
		assignedToName = tech.Name
	}

	job, err := jc.jobs.CreateJob(actor, services.CreateJobInput{
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		Address:           req.Address,
		JobType:           models.JobType(req.JobType),
		Priority:          models.JobPriority(req.Priority),
		ScheduledDateTime: scheduled,
		AssignedTo:        req.AssignedTo,
		AssignedToName:    assignedToName,
		Notes:             req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": job})
}

func (jc *JobController) GetJobs(c *gin.Context) {
	actor := currentActor(c)

	q := store.JobQuery{
		Status:     models.JobStatus(c.Query("status")),
		AssignedTo: c.Query("assignedTo"),
	}

	jobs, err := jc.jobs.ListJobs(actor.CompanyID, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Remaining filters run over the in-memory list, same as the board.
	filtered := services.ApplyFilters(jobs, services.Filters{
		Search:    c.Query("search"),
		Priority:  models.JobPriority(c.Query("priority")),
		JobType:   models.JobType(c.Query("jobType")),
		DateRange: services.DateRange(c.Query("dateRange")),
	}, time.Now())

	c.JSON(http.StatusOK, gin.H{"success": true, "data": filtered, "count": len(filtered)})
}

func (jc *JobController) GetJob(c *gin.Context) {
	actor := currentActor(c)

	job, err := jc.jobs.GetJob(actor.CompanyID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": job})
}

func (jc *JobController) UpdateJob(c *gin.Context) {
	var req UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	actor := currentActor(c)

	patch := services.JobPatch{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		Notes:         req.Notes,
	}
	if req.JobType != nil {
		jt := models.JobType(*req.JobType)
		patch.JobType = &jt
	}
	if req.Priority != nil {
		p := models.JobPriority(*req.Priority)
		patch.Priority = &p
	}
	if req.Status != nil {
		s := models.JobStatus(*req.Status)
		patch.Status = &s
	}
	if req.ScheduledDate != nil {
		t := ""
		if req.ScheduledTime != nil {
			t = *req.ScheduledTime
		}
		scheduled, err := parseSchedule(*req.ScheduledDate, t)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid scheduled date or time"})
			return
		}
		patch.ScheduledSet = true
		patch.ScheduledDateTime = scheduled
	}
	if req.AssignedTo != nil {
		patch.AssignedTo = req.AssignedTo
		name := ""
		if *req.AssignedTo != "" {
			var tech models.Technician
			if err := jc.db.Where("company_id = ? AND id = ?", actor.CompanyID, *req.AssignedTo).First(&tech).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown technician"})
				return
			}
			name = tech.Name
		}
		patch.AssignedToName = &name
	}

	job, err := jc.jobs.ApplyEdit(actor, c.Param("id"), patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": job})
}

func (jc *JobController) DeleteJob(c *gin.Context) {
	actor := currentActor(c)

	if err := jc.jobs.DeleteJob(actor, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Job deleted"})
}
