package services

import (
	"strings"

	"github.com/fieldops/backend/internal/models"
)

// technicianFlow is the strictly forward technician transition table:
// scheduled -> en_route -> in_progress -> completed.
var technicianFlow = map[models.JobStatus]models.JobStatus{
	models.JobStatusScheduled:  models.JobStatusEnRoute,
	models.JobStatusEnRoute:    models.JobStatusInProgress,
	models.JobStatusInProgress: models.JobStatusCompleted,
}

// NextTechnicianStatus returns the only status a technician may advance the
// job to from its current status.
func NextTechnicianStatus(from models.JobStatus) (models.JobStatus, bool) {
	to, ok := technicianFlow[from]
	return to, ok
}

// ValidateTechnicianTransition checks the transition table and, for
// completion, the field-artifact preconditions. It never mutates the job; a
// non-nil error means the caller must leave the job unchanged and surface
// the message as a blocking validation.
func ValidateTechnicianTransition(job *models.Job, to models.JobStatus) error {
	allowed, ok := technicianFlow[job.Status]
	if !ok || allowed != to {
		return &InvalidTransitionError{From: string(job.Status), To: string(to)}
	}

	if to == models.JobStatusCompleted {
		return validateCompletion(job)
	}
	return nil
}

// validateCompletion enforces the completion preconditions: at least one
// photo, a captured signature, and non-blank technician notes.
func validateCompletion(job *models.Job) error {
	if len(job.Photos) == 0 {
		return &InvalidTransitionError{
			From:    string(job.Status),
			To:      string(models.JobStatusCompleted),
			Message: "Please upload at least one photo before completing",
		}
	}
	if job.Signature == nil || *job.Signature == "" {
		return &InvalidTransitionError{
			From:    string(job.Status),
			To:      string(models.JobStatusCompleted),
			Message: "Please capture the customer signature before completing",
		}
	}
	if strings.TrimSpace(job.TechNotes) == "" {
		return &InvalidTransitionError{
			From:    string(job.Status),
			To:      string(models.JobStatusCompleted),
			Message: "Please add work notes before completing",
		}
	}
	return nil
}
