package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldops/backend/internal/logger"
	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/store"
	"github.com/google/uuid"
)

// Actor identifies who is performing an operation. Name is recorded on
// activity entries; Role gates which write paths are reachable.
type Actor struct {
	UID          string
	Name         string
	Role         models.UserRole
	CompanyID    string
	TechnicianID string
}

func (a Actor) displayName() string {
	if a.Name != "" {
		return a.Name
	}
	return "System"
}

// CreateJobInput carries the dispatcher's job-creation form.
type CreateJobInput struct {
	CustomerName      string
	CustomerPhone     string
	Address           string
	JobType           models.JobType
	Priority          models.JobPriority
	ScheduledDateTime *time.Time
	AssignedTo        string
	AssignedToName    string
	Notes             string
}

// JobPatch is a partial dispatcher edit. Nil pointers leave the field
// untouched. ScheduledSet distinguishes "clear the schedule" from "leave it
// alone".
type JobPatch struct {
	CustomerName      *string
	CustomerPhone     *string
	Address           *string
	JobType           *models.JobType
	Priority          *models.JobPriority
	ScheduledSet      bool
	ScheduledDateTime *time.Time
	AssignedTo        *string
	AssignedToName    *string
	Notes             *string
	Status            *models.JobStatus
}

// JobService owns the job entity: it validates every write against the
// invariants before the write reaches the store, and keeps the activity log
// in step with each save.
type JobService struct {
	store store.JobStore
	gate  PlanLimitGate
}

func NewJobService(st store.JobStore, gate PlanLimitGate) *JobService {
	return &JobService{store: st, gate: gate}
}

// CreateJob validates the input, consults the plan gate, and writes the new
// job with a single created activity entry. Status is scheduled when a
// technician was chosen, unassigned otherwise.
func (s *JobService) CreateJob(actor Actor, input CreateJobInput) (*models.Job, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	ok, plan, err := s.gate.CanCreateJob(actor.CompanyID)
	if err != nil {
		return nil, &StoreWriteFailure{Op: "plan check", Err: err}
	}
	if !ok {
		return nil, &PlanLimitExceeded{Resource: "monthly job", Limit: plan.MaxJobsPerMonth}
	}

	status := models.JobStatusUnassigned
	if input.AssignedTo != "" {
		status = models.JobStatusScheduled
	}

	now := time.Now()
	job := &models.Job{
		ID:                uuid.NewString(),
		CompanyID:         actor.CompanyID,
		CustomerName:      input.CustomerName,
		CustomerPhone:     input.CustomerPhone,
		Address:           input.Address,
		JobType:           input.JobType,
		Priority:          input.Priority,
		ScheduledDateTime: input.ScheduledDateTime,
		AssignedTo:        input.AssignedTo,
		AssignedToName:    input.AssignedToName,
		Status:            status,
		Notes:             input.Notes,
		Photos:            []string{},
		CreatedBy:         actor.UID,
		CreatedAt:         now,
		UpdatedAt:         now,
		ActivityLog: models.ActivityLog{{
			Type:      models.ActivityCreated,
			UserName:  actor.displayName(),
			Timestamp: now,
		}},
	}

	if err := s.store.Create(job); err != nil {
		return nil, &StoreWriteFailure{Op: "create job", Err: err}
	}

	logger.Info("Job created", map[string]interface{}{
		"jobID":     job.ID,
		"companyID": job.CompanyID,
		"status":    job.Status,
	})
	return job, nil
}

func validateCreate(input CreateJobInput) error {
	switch {
	case strings.TrimSpace(input.CustomerName) == "":
		return &ValidationError{Field: "customerName", Message: "customer name is required"}
	case strings.TrimSpace(input.CustomerPhone) == "":
		return &ValidationError{Field: "customerPhone", Message: "customer phone is required"}
	case strings.TrimSpace(input.Address) == "":
		return &ValidationError{Field: "address", Message: "address is required"}
	}
	if !models.ValidJobType(input.JobType) {
		return &ValidationError{Field: "jobType", Message: fmt.Sprintf("unknown job type %q", input.JobType)}
	}
	if !models.ValidPriority(input.Priority) {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", input.Priority)}
	}
	if input.AssignedTo == "" && input.AssignedToName != "" {
		return &ValidationError{Field: "assignedTo", Message: "assignedTo and assignedToName must be set together"}
	}
	return nil
}

func (s *JobService) GetJob(companyID, jobID string) (*models.Job, error) {
	return s.store.Get(companyID, jobID)
}

func (s *JobService) ListJobs(companyID string, q store.JobQuery) ([]models.Job, error) {
	return s.store.List(companyID, q)
}

// ApplyEdit performs a dispatcher edit: each changed field produces one diff
// activity entry, all appended in a single save. Assignment changes force the
// status consistent with the assignment. An edit that changes nothing still
// appends one generic updated entry, matching the historical behavior
// downstream consumers rely on.
func (s *JobService) ApplyEdit(actor Actor, jobID string, patch JobPatch) (*models.Job, error) {
	job, err := s.store.Get(actor.CompanyID, jobID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *patch.Status)}
	}
	if patch.JobType != nil && !models.ValidJobType(*patch.JobType) {
		return nil, &ValidationError{Field: "jobType", Message: fmt.Sprintf("unknown job type %q", *patch.JobType)}
	}
	if patch.Priority != nil && !models.ValidPriority(*patch.Priority) {
		return nil, &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", *patch.Priority)}
	}

	now := time.Now()
	userName := actor.displayName()
	fields := make(map[string]interface{})
	var entries []models.ActivityEntry

	addEntry := func(typ models.ActivityType, field, oldV, newV string) {
		entries = append(entries, models.ActivityEntry{
			Type:      typ,
			Field:     field,
			OldValue:  oldV,
			NewValue:  newV,
			UserName:  userName,
			Timestamp: now,
		})
	}

	if patch.CustomerName != nil && *patch.CustomerName != job.CustomerName {
		addEntry(models.ActivityUpdated, "customer name", job.CustomerName, *patch.CustomerName)
		fields["customer_name"] = *patch.CustomerName
	}
	if patch.CustomerPhone != nil && *patch.CustomerPhone != job.CustomerPhone {
		addEntry(models.ActivityUpdated, "phone number", job.CustomerPhone, *patch.CustomerPhone)
		fields["customer_phone"] = *patch.CustomerPhone
	}
	if patch.Address != nil && *patch.Address != job.Address {
		addEntry(models.ActivityUpdated, "address", job.Address, *patch.Address)
		fields["address"] = *patch.Address
	}
	if patch.JobType != nil && *patch.JobType != job.JobType {
		addEntry(models.ActivityUpdated, "job type", string(job.JobType), string(*patch.JobType))
		fields["job_type"] = *patch.JobType
	}
	if patch.Priority != nil && *patch.Priority != job.Priority {
		addEntry(models.ActivityUpdated, "priority", string(job.Priority), string(*patch.Priority))
		fields["priority"] = *patch.Priority
	}
	if patch.Notes != nil && *patch.Notes != job.Notes {
		addEntry(models.ActivityNoteAdded, "notes", orPlaceholder(job.Notes, "(none)"), orPlaceholder(*patch.Notes, "(removed)"))
		fields["notes"] = *patch.Notes
	}
	if patch.ScheduledSet && !sameTime(patch.ScheduledDateTime, job.ScheduledDateTime) {
		addEntry(models.ActivityUpdated, "scheduled time",
			formatSchedule(job.ScheduledDateTime), formatSchedule(patch.ScheduledDateTime))
		fields["scheduled_date_time"] = patch.ScheduledDateTime
	}

	// Resolve the target status: an explicit patch value first, then the
	// assignment coupling on top of it.
	newStatus := job.Status
	if patch.Status != nil {
		newStatus = *patch.Status
	}

	if patch.AssignedTo != nil && *patch.AssignedTo != job.AssignedTo {
		newName := ""
		if patch.AssignedToName != nil {
			newName = *patch.AssignedToName
		}
		addEntry(models.ActivityAssigned, "technician",
			orPlaceholder(job.AssignedToName, "Unassigned"), orPlaceholder(newName, "Unassigned"))
		fields["assigned_to"] = *patch.AssignedTo
		fields["assigned_to_name"] = newName

		if *patch.AssignedTo == "" {
			if newStatus != models.JobStatusCompleted {
				newStatus = models.JobStatusUnassigned
			}
		} else if newStatus == models.JobStatusUnassigned {
			newStatus = models.JobStatusScheduled
		}
	}

	if newStatus != job.Status {
		addEntry(models.ActivityStatusChanged, "status", string(job.Status), string(newStatus))
		fields["status"] = newStatus
		stampStatusTimes(job, newStatus, now, fields)
	}

	if len(entries) == 0 {
		addEntry(models.ActivityUpdated, "general", "", "")
	}

	if err := s.store.Update(actor.CompanyID, jobID, fields, entries); err != nil {
		if err == store.ErrJobNotFound {
			return nil, err
		}
		return nil, &StoreWriteFailure{Op: "update job", Err: err}
	}

	return s.store.Get(actor.CompanyID, jobID)
}

// OverrideStatus is the dispatcher's direct status write, used by the
// details form and the drag-and-drop handler. It deliberately skips the
// forward-only ordering the technician path enforces; the only guard is
// that a completed job cannot be cancelled.
func (s *JobService) OverrideStatus(actor Actor, jobID string, to models.JobStatus) error {
	if !models.ValidStatus(to) {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", to)}
	}

	job, err := s.store.Get(actor.CompanyID, jobID)
	if err != nil {
		return err
	}
	if job.Status == to {
		return nil
	}
	if job.Status == models.JobStatusCompleted && to == models.JobStatusCancelled {
		return &InvalidTransitionError{
			From:    string(job.Status),
			To:      string(to),
			Message: "a completed job cannot be cancelled",
		}
	}

	now := time.Now()
	fields := map[string]interface{}{"status": to}
	stampStatusTimes(job, to, now, fields)

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
			return err
		}
		return &StoreWriteFailure{Op: "status override", Err: err}
	}

	logger.Info("Job status overridden", map[string]interface{}{
		"jobID": jobID,
		"from":  job.Status,
		"to":    to,
		"actor": actor.UID,
	})
	return nil
}

// DeleteJob removes the job permanently. There is no soft delete.
func (s *JobService) DeleteJob(actor Actor, jobID string) error {
	if err := s.store.Delete(actor.CompanyID, jobID); err != nil {
		if err == store.ErrJobNotFound {
			return err
		}
		return &StoreWriteFailure{Op: "delete job", Err: err}
	}
	logger.Info("Job deleted", map[string]interface{}{
		"jobID": jobID,
		"actor": actor.UID,
	})
	return nil
}

// stampStatusTimes records the first time a job enters a milestone status.
func stampStatusTimes(job *models.Job, to models.JobStatus, now time.Time, fields map[string]interface{}) {
	switch to {
	case models.JobStatusEnRoute:
		if job.EnRouteAt == nil {
			fields["en_route_at"] = now
		}
	case models.JobStatusInProgress:
		if job.StartedAt == nil {
			fields["started_at"] = now
		}
	case models.JobStatusCompleted:
		if job.CompletedAt == nil {
			fields["completed_at"] = now
		}
	}
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func formatSchedule(t *time.Time) string {
	if t == nil {
		return "Not scheduled"
	}
	return t.Format("Jan 2 3:04 PM")
}
