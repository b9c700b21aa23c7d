package services

import (
	"io"
	"time"

	"github.com/fieldops/backend/internal/logger"
	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/store"
)

// TechService is the restricted write surface exposed to technicians: their
// own assigned jobs only, the forward-only transition table, and the
// photo/signature/notes artifacts. Everything else stays dispatcher-only.
type TechService struct {
	store  store.JobStore
	timers *TimerService
	blobs  BlobStorage
}

func NewTechService(st store.JobStore, timers *TimerService, blobs BlobStorage) *TechService {
	return &TechService{store: st, timers: timers, blobs: blobs}
}

// ActiveJobs lists the technician's assigned, not-yet-completed jobs ordered
// by scheduled time.
func (s *TechService) ActiveJobs(actor Actor) ([]models.Job, error) {
	return s.store.List(actor.CompanyID, store.JobQuery{
		AssignedTo:       actor.TechnicianID,
		AssignedToName:   actor.Name,
		ActiveOnly:       true,
		OrderByScheduled: true,
	})
}

// visibleJob loads a job the technician is allowed to touch. Jobs assigned
// to someone else look exactly like missing jobs.
func (s *TechService) visibleJob(actor Actor, jobID string) (*models.Job, error) {
	job, err := s.store.Get(actor.CompanyID, jobID)
	if err != nil {
		return nil, err
	}
	byID := actor.TechnicianID != "" && job.AssignedTo == actor.TechnicianID
	byName := actor.Name != "" && job.AssignedToName == actor.Name
	if !byID && !byName {
		return nil, store.ErrJobNotFound
	}
	return job, nil
}

func (s *TechService) GetJob(actor Actor, jobID string) (*models.Job, error) {
	return s.visibleJob(actor, jobID)
}

// UpdateStatus drives the technician transition table. Entering in_progress
// starts the elapsed timer; completing validates the artifact preconditions,
// stops the timer, and records its value as the job duration.
func (s *TechService) UpdateStatus(actor Actor, jobID string, to models.JobStatus) (*models.Job, error) {
	job, err := s.visibleJob(actor, jobID)
	if err != nil {
		return nil, err
	}

	if err := ValidateTechnicianTransition(job, to); err != nil {
		return nil, err
	}

	now := time.Now()
	fields := map[string]interface{}{"status": to}
	stampStatusTimes(job, to, now, fields)

	if to == models.JobStatusCompleted {
		duration, err := s.timers.Elapsed(actor, jobID)
		if err != nil {
			logger.Warn("Timer reconciliation failed, recording zero duration", map[string]interface{}{
				"jobID": jobID,
				"error": err.Error(),
			})
			duration = 0
		}
		fields["job_duration"] = duration
	}

	entry := models.ActivityEntry{
		Type:      models.ActivityStatusChanged,
		Field:     "status",
		OldValue:  string(job.Status),
		NewValue:  string(to),
		UserName:  actor.displayName(),
		Timestamp: now,
	}

	if err := s.store.Update(actor.CompanyID, jobID, fields, []models.ActivityEntry{entry}); err != nil {
		if err == store.ErrJobNotFound {
			return nil, err
		}
		return nil, &StoreWriteFailure{Op: "technician status update", Err: err}
	}

	// Timer side effects run only once the status write has committed: a
	// failed write must leave the timer state exactly as it was.
	switch to {
	case models.JobStatusInProgress:
		if _, err := s.timers.Start(actor, jobID); err != nil {
			logger.Warn("Failed to start timer", map[string]interface{}{
				"jobID": jobID,
				"error": err.Error(),
			})
		}
	case models.JobStatusCompleted:
		if err := s.timers.discard(actor, jobID); err != nil {
			logger.Warn("Failed to clear timer state", map[string]interface{}{
				"jobID": jobID,
				"error": err.Error(),
			})
		}
	}

	return s.store.Get(actor.CompanyID, jobID)
}

// AddPhoto uploads a field photo and appends its URL. The capacity check
// runs before any bytes are uploaded; the sixth photo is rejected outright.
func (s *TechService) AddPhoto(actor Actor, jobID, filename string, r io.Reader) (*models.Job, error) {
	job, err := s.visibleJob(actor, jobID)
	if err != nil {
		return nil, err
	}
	if len(job.Photos) >= models.MaxJobPhotos {
		return nil, &CapacityError{Resource: "photo", Max: models.MaxJobPhotos}
	}

	url, err := s.blobs.Upload(filename, r)
	if err != nil {
		return nil, &StoreWriteFailure{Op: "photo upload", Err: err}
	}

	entry := models.ActivityEntry{
		Type:      models.ActivityPhotoAdded,
		Field:     "photos",
		NewValue:  url,
		UserName:  actor.displayName(),
		Timestamp: time.Now(),
	}
	if err := s.store.AppendPhoto(actor.CompanyID, jobID, url, entry); err != nil {
		if err == store.ErrJobNotFound {
			return nil, err
		}
		return nil, &StoreWriteFailure{Op: "photo append", Err: err}
	}

	return s.store.Get(actor.CompanyID, jobID)
}

// SetSignature uploads the customer signature and stores its URL, replacing
// any previous capture.
func (s *TechService) SetSignature(actor Actor, jobID, filename string, r io.Reader) (*models.Job, error) {
	if _, err := s.visibleJob(actor, jobID); err != nil {
		return nil, err
	}

	url, err := s.blobs.Upload(filename, r)
	if err != nil {
		return nil, &StoreWriteFailure{Op: "signature upload", Err: err}
	}

	entry := models.ActivityEntry{
		Type:      models.ActivitySignatureAdded,
		Field:     "signature",
		NewValue:  url,
		UserName:  actor.displayName(),
		Timestamp: time.Now(),
	}
	err = s.store.Update(actor.CompanyID, jobID, map[string]interface{}{"signature": url}, []models.ActivityEntry{entry})
	if err != nil {
		if err == store.ErrJobNotFound {
			return nil, err
		}
		return nil, &StoreWriteFailure{Op: "signature update", Err: err}
	}

	return s.store.Get(actor.CompanyID, jobID)
}

// SetTechNotes replaces the technician's work notes.
func (s *TechService) SetTechNotes(actor Actor, jobID, notes string) (*models.Job, error) {
	job, err := s.visibleJob(actor, jobID)
	if err != nil {
		return nil, err
	}
	if job.TechNotes == notes {
		return job, nil
	}

	entry := models.ActivityEntry{
		Type:      models.ActivityNoteAdded,
		Field:     "tech notes",
		OldValue:  orPlaceholder(job.TechNotes, "(none)"),
		NewValue:  orPlaceholder(notes, "(removed)"),
		UserName:  actor.displayName(),
		Timestamp: time.Now(),
	}
	err = s.store.Update(actor.CompanyID, jobID, map[string]interface{}{"tech_notes": notes}, []models.ActivityEntry{entry})
	if err != nil {
		if err == store.ErrJobNotFound {
			return nil, err
		}
		return nil, &StoreWriteFailure{Op: "notes update", Err: err}
	}

	return s.store.Get(actor.CompanyID, jobID)
}

// Timers exposes the technician's timer operations.
func (s *TechService) Timers() *TimerService {
	return s.timers
}
