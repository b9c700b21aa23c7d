package models

import (
	"time"

	"github.com/lib/pq"
)

type JobStatus string

const (
	JobStatusUnassigned JobStatus = "unassigned"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusEnRoute    JobStatus = "en_route"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

type JobType string

const (
	JobTypeInstallation JobType = "installation"
	JobTypeRepair       JobType = "repair"
	JobTypeMaintenance  JobType = "maintenance"
	JobTypeInspection   JobType = "inspection"
	JobTypeEmergency    JobType = "emergency"
)

type JobPriority string

const (
	PriorityLow    JobPriority = "low"
	PriorityMedium JobPriority = "medium"
	PriorityHigh   JobPriority = "high"
)

// MaxJobPhotos caps the number of field photos a technician may attach.
const MaxJobPhotos = 5

type Job struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	CompanyID string `json:"companyId" gorm:"size:36;not null;index"`

	CustomerName  string `json:"customerName" gorm:"not null"`
	CustomerPhone string `json:"customerPhone" gorm:"not null"`
	Address       string `json:"address" gorm:"not null"`

	JobType  JobType     `json:"jobType" gorm:"not null"`
	Priority JobPriority `json:"priority" gorm:"not null"`

	ScheduledDateTime *time.Time `json:"scheduledDateTime"`

	// AssignedTo and AssignedToName are denormalized together; both empty
	// means unassigned.
	AssignedTo     string `json:"assignedTo" gorm:"size:36;index"`
	AssignedToName string `json:"assignedToName"`

	Status JobStatus `json:"status" gorm:"not null;default:'unassigned';index"`

	Notes     string `json:"notes" gorm:"type:text"`
	TechNotes string `json:"techNotes" gorm:"type:text"`

	Photos    pq.StringArray `json:"photos" gorm:"type:text[]"`
	Signature *string        `json:"signature"`

	// JobDuration is the accumulated timer seconds at the moment the job
	// reached completed.
	JobDuration *int64 `json:"jobDuration"`

	ActivityLog ActivityLog `json:"activityLog" gorm:"type:jsonb"`

	CreatedBy   string     `json:"createdBy" gorm:"size:36"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	EnRouteAt   *time.Time `json:"enRouteAt"`
	StartedAt   *time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

func (Job) TableName() string {
	return "jobs"
}

// Assigned reports whether the job has a technician attached.
func (j *Job) Assigned() bool {
	return j.AssignedTo != ""
}

// ValidJobType reports whether t is one of the known job types.
func ValidJobType(t JobType) bool {
	switch t {
	case JobTypeInstallation, JobTypeRepair, JobTypeMaintenance, JobTypeInspection, JobTypeEmergency:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p JobPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known job statuses.
func ValidStatus(s JobStatus) bool {
	switch s {
	case JobStatusUnassigned, JobStatusScheduled, JobStatusEnRoute,
		JobStatusInProgress, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}
