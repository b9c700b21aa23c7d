package services

import (
	"strings"
	"sync"
	"time"

	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/store"
)

// DateRange names the scheduling windows the board can filter on.
type DateRange string

const (
	DateRangeAll      DateRange = "all"
	DateRangeToday    DateRange = "today"
	DateRangeTomorrow DateRange = "tomorrow"
	DateRangeThisWeek DateRange = "thisWeek"
	DateRangeNextWeek DateRange = "nextWeek"
	DateRangeOverdue  DateRange = "overdue"
)

// Filters is the dispatcher's board filter state. Zero values (and "all")
// mean "no restriction". Filters compose as an intersection.
type Filters struct {
	TechnicianID string
	Search       string
	Priority     models.JobPriority
	JobType      models.JobType
	DateRange    DateRange
}

// BoardLanes is the column set of the dispatch board, in display order.
// En-route jobs get their own lane; cancelled jobs are not shown.
var BoardLanes = []models.JobStatus{
	models.JobStatusUnassigned,
	models.JobStatusScheduled,
	models.JobStatusEnRoute,
	models.JobStatusInProgress,
	models.JobStatusCompleted,
}

// Board is a status-keyed partition of the filtered job list. Lane contents
// preserve the incoming order.
type Board struct {
	Unassigned []models.Job `json:"unassigned"`
	Scheduled  []models.Job `json:"scheduled"`
	EnRoute    []models.Job `json:"en_route"`
	InProgress []models.Job `json:"in_progress"`
	Completed  []models.Job `json:"completed"`

	Counts map[models.JobStatus]int `json:"counts"`
	Total  int                      `json:"total"`
}

// ApplyFilters narrows jobs to those matching every active filter, in the
// order: technician, free-text search, priority, job type, date range. The
// input order is preserved. Pure; now anchors the date-range windows.
func ApplyFilters(jobs []models.Job, f Filters, now time.Time) []models.Job {
	filtered := jobs

	if f.TechnicianID != "" {
		filtered = keep(filtered, func(j *models.Job) bool {
			return j.AssignedTo == f.TechnicianID
		})
	}

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		filtered = keep(filtered, func(j *models.Job) bool {
			return strings.Contains(strings.ToLower(j.CustomerName), needle) ||
				strings.Contains(strings.ToLower(j.Address), needle) ||
				strings.Contains(strings.ToLower(j.CustomerPhone), needle)
		})
	}

	if f.Priority != "" {
		filtered = keep(filtered, func(j *models.Job) bool {
			return j.Priority == f.Priority
		})
	}

	if f.JobType != "" {
		filtered = keep(filtered, func(j *models.Job) bool {
			return j.JobType == f.JobType
		})
	}

	if f.DateRange != "" && f.DateRange != DateRangeAll {
		filtered = keep(filtered, func(j *models.Job) bool {
			return matchesDateRange(j, f.DateRange, now)
		})
	}

	return filtered
}

func keep(jobs []models.Job, pred func(*models.Job) bool) []models.Job {
	out := make([]models.Job, 0, len(jobs))
	for i := range jobs {
		if pred(&jobs[i]) {
			out = append(out, jobs[i])
		}
	}
	return out
}

func matchesDateRange(j *models.Job, r DateRange, now time.Time) bool {
	if j.ScheduledDateTime == nil {
		return false
	}
	sched := *j.ScheduledDateTime

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	// The week ends on Sunday; nextWeekStart is the following Monday at
	// midnight, so every bound below is an exclusive day boundary.
	nextWeekStart := today.AddDate(0, 0, 8-int(today.Weekday()))
	nextWeekEnd := nextWeekStart.AddDate(0, 0, 7)

	switch r {
	case DateRangeToday:
		return !sched.Before(today) && sched.Before(tomorrow)
	case DateRangeTomorrow:
		dayAfter := tomorrow.AddDate(0, 0, 1)
		return !sched.Before(tomorrow) && sched.Before(dayAfter)
	case DateRangeThisWeek:
		return !sched.Before(today) && sched.Before(nextWeekStart)
	case DateRangeNextWeek:
		return !sched.Before(nextWeekStart) && sched.Before(nextWeekEnd)
	case DateRangeOverdue:
		return sched.Before(today) && j.Status != models.JobStatusCompleted
	}
	return true
}

// PartitionLanes splits jobs into the board's five lanes, preserving order,
// and computes per-lane counts. Cancelled jobs are dropped from the view.
func PartitionLanes(jobs []models.Job) Board {
	b := Board{
		Unassigned: []models.Job{},
		Scheduled:  []models.Job{},
		EnRoute:    []models.Job{},
		InProgress: []models.Job{},
		Completed:  []models.Job{},
		Counts:     make(map[models.JobStatus]int, len(BoardLanes)),
	}

	for _, j := range jobs {
		switch j.Status {
		case models.JobStatusUnassigned:
			b.Unassigned = append(b.Unassigned, j)
		case models.JobStatusScheduled:
			b.Scheduled = append(b.Scheduled, j)
		case models.JobStatusEnRoute:
			b.EnRoute = append(b.EnRoute, j)
		case models.JobStatusInProgress:
			b.InProgress = append(b.InProgress, j)
		case models.JobStatusCompleted:
			b.Completed = append(b.Completed, j)
		default:
			continue
		}
		b.Counts[j.Status]++
		b.Total++
	}
	return b
}

// Lane returns the partitioned jobs for a status.
func (b *Board) Lane(status models.JobStatus) []models.Job {
	switch status {
	case models.JobStatusUnassigned:
		return b.Unassigned
	case models.JobStatusScheduled:
		return b.Scheduled
	case models.JobStatusEnRoute:
		return b.EnRoute
	case models.JobStatusInProgress:
		return b.InProgress
	case models.JobStatusCompleted:
		return b.Completed
	}
	return nil
}

// BoardProjector maintains the live board view for one company. The
// authoritative job list is mutated only by store pushes; optimistic drag
// moves live in a pending overlay that is confirmed or rolled back, never
// written into the authoritative list directly.
type BoardProjector struct {
	mu      sync.RWMutex
	jobs    []models.Job
	pending map[string]models.JobStatus

	changes chan struct{}
	cancel  func()
	once    sync.Once
}

func NewBoardProjector(st store.JobStore, companyID string) *BoardProjector {
	ch, cancel := st.Subscribe(companyID, store.JobQuery{})
	p := &BoardProjector{
		pending: make(map[string]models.JobStatus),
		changes: make(chan struct{}, 1),
		cancel:  cancel,
	}
	go p.consume(ch)
	return p
}

func (p *BoardProjector) consume(ch <-chan []models.Job) {
	for jobs := range ch {
		p.mu.Lock()
		p.jobs = jobs
		// A store push that already shows the staged status confirms the
		// optimistic move; the overlay entry is no longer needed.
		for id, staged := range p.pending {
			for i := range jobs {
				if jobs[i].ID == id && jobs[i].Status == staged {
					delete(p.pending, id)
					break
				}
			}
		}
		p.mu.Unlock()
		p.signal()
	}
}

func (p *BoardProjector) signal() {
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

// Changes signals whenever a store push lands; consumers re-read Snapshot.
func (p *BoardProjector) Changes() <-chan struct{} {
	return p.changes
}

// Snapshot applies the pending overlay, then the filters, then partitions
// into lanes.
func (p *BoardProjector) Snapshot(f Filters, now time.Time) Board {
	p.mu.RLock()
	jobs := make([]models.Job, len(p.jobs))
	copy(jobs, p.jobs)
	for i := range jobs {
		if staged, ok := p.pending[jobs[i].ID]; ok {
			jobs[i].Status = staged
		}
	}
	p.mu.RUnlock()

	return PartitionLanes(ApplyFilters(jobs, f, now))
}

// Jobs returns a copy of the authoritative list without the overlay.
func (p *BoardProjector) Jobs() []models.Job {
	p.mu.RLock()
	defer p.mu.RUnlock()
	jobs := make([]models.Job, len(p.jobs))
	copy(jobs, p.jobs)
	return jobs
}

// StageMove optimistically shows the job in the target lane while the write
// is in flight.
func (p *BoardProjector) StageMove(jobID string, to models.JobStatus) {
	p.mu.Lock()
	p.pending[jobID] = to
	p.mu.Unlock()
	p.signal()
}

// Rollback drops a staged move after a failed write; the job snaps back to
// its authoritative lane.
func (p *BoardProjector) Rollback(jobID string) {
	p.mu.Lock()
	delete(p.pending, jobID)
	p.mu.Unlock()
	p.signal()
}

// Close cancels the store subscription.
func (p *BoardProjector) Close() {
	p.once.Do(p.cancel)
}
