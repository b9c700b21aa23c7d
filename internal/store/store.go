// Package store provides the persistence layer for company-scoped job
// records. It exposes a document-style contract: single-document writes with
// last-write-wins semantics, an atomic array-append primitive for the
// activity log and photos, and live query subscriptions that push a fresh
// snapshot whenever any writer mutates the collection.
package store

import (
	"errors"

	"github.com/fieldops/backend/internal/models"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrTimerNotFound = errors.New("timer not found")
)

// JobQuery filters and orders a company's job collection. The zero value
// returns every job ordered by creation time descending.
type JobQuery struct {
	Status         models.JobStatus
	AssignedTo     string
	AssignedToName string

	// ActiveOnly drops completed and cancelled jobs (technician job list).
	ActiveOnly bool

	// OrderByScheduled orders by scheduled time ascending instead of the
	// default creation time descending.
	OrderByScheduled bool
}

// Matches reports whether the job satisfies the query's filters. AssignedTo
// and AssignedToName are alternative identity keys: if both are set, either
// match suffices.
func (q JobQuery) Matches(j *models.Job) bool {
	if q.Status != "" && j.Status != q.Status {
		return false
	}
	if q.AssignedTo != "" || q.AssignedToName != "" {
		byID := q.AssignedTo != "" && j.AssignedTo == q.AssignedTo
		byName := q.AssignedToName != "" && j.AssignedToName == q.AssignedToName
		if !byID && !byName {
			return false
		}
	}
	if q.ActiveOnly && (j.Status == models.JobStatusCompleted || j.Status == models.JobStatusCancelled) {
		return false
	}
	return true
}

// JobStore is the job record collaborator. Update and AppendPhoto write the
// given activity entries in the same operation as the field update, so audit
// entries and field changes succeed or fail together.
type JobStore interface {
	Create(job *models.Job) error
	Get(companyID, jobID string) (*models.Job, error)
	List(companyID string, q JobQuery) ([]models.Job, error)
	Update(companyID, jobID string, fields map[string]interface{}, entries []models.ActivityEntry) error
	AppendPhoto(companyID, jobID, url string, entry models.ActivityEntry) error
	Delete(companyID, jobID string) error

	// Subscribe returns a channel that receives the current query result
	// whenever the company's collection changes, plus an initial snapshot.
	// The returned func cancels the subscription.
	Subscribe(companyID string, q JobQuery) (<-chan []models.Job, func())
}

// TimerStore persists per-technician elapsed-time state across sessions.
type TimerStore interface {
	GetTimer(companyID, jobID, technicianID string) (*models.JobTimer, error)
	SaveTimer(t *models.JobTimer) error
	DeleteTimer(companyID, jobID, technicianID string) error
}
