package store

import (
	"sort"
	"sync"
	"time"

	"github.com/fieldops/backend/internal/models"
)

// MemoryJobStore is an in-memory JobStore used by tests and local
// development. It mirrors the Postgres store's semantics, including the
// atomic activity-log append and live subscriptions, and can be told to fail
// its next write to exercise error paths.
type MemoryJobStore struct {
	mu      sync.Mutex
	jobs    []*models.Job
	hub     *hub
	nextErr error
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{hub: newHub()}
}

// FailNextWrite makes the next mutating call return err instead of writing.
func (s *MemoryJobStore) FailNextWrite(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextErr = err
}

func (s *MemoryJobStore) takeErr() error {
	err := s.nextErr
	s.nextErr = nil
	return err
}

func (s *MemoryJobStore) Create(job *models.Job) error {
	s.mu.Lock()
	if err := s.takeErr(); err != nil {
		s.mu.Unlock()
		return err
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.UpdatedAt = job.CreatedAt
	clone := *job
	s.jobs = append(s.jobs, &clone)
	companyID := job.CompanyID
	s.mu.Unlock()

	s.notify(companyID)
	return nil
}

func (s *MemoryJobStore) Get(companyID, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := s.find(companyID, jobID)
	if j == nil {
		return nil, ErrJobNotFound
	}
	clone := *j
	return &clone, nil
}

func (s *MemoryJobStore) List(companyID string, q JobQuery) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(companyID, q), nil
}

func (s *MemoryJobStore) list(companyID string, q JobQuery) []models.Job {
	var out []models.Job
	for _, j := range s.jobs {
		if j.CompanyID != companyID || !q.Matches(j) {
			continue
		}
		out = append(out, *j)
	}

	if q.OrderByScheduled {
		sort.SliceStable(out, func(a, b int) bool {
			sa, sb := out[a].ScheduledDateTime, out[b].ScheduledDateTime
			switch {
			case sa == nil:
				return false
			case sb == nil:
				return true
			default:
				return sa.Before(*sb)
			}
		})
	} else {
		sort.SliceStable(out, func(a, b int) bool {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		})
	}
	return out
}

func (s *MemoryJobStore) Update(companyID, jobID string, fields map[string]interface{}, entries []models.ActivityEntry) error {
	s.mu.Lock()
	if err := s.takeErr(); err != nil {
		s.mu.Unlock()
		return err
	}
	j := s.find(companyID, jobID)
	if j == nil {
		s.mu.Unlock()
		return ErrJobNotFound
	}
	for k, v := range fields {
		applyField(j, k, v)
	}
	j.ActivityLog = append(j.ActivityLog, entries...)
	j.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.notify(companyID)
	return nil
}

func (s *MemoryJobStore) AppendPhoto(companyID, jobID, url string, entry models.ActivityEntry) error {
	s.mu.Lock()
	if err := s.takeErr(); err != nil {
		s.mu.Unlock()
		return err
	}
	j := s.find(companyID, jobID)
	if j == nil {
		s.mu.Unlock()
		return ErrJobNotFound
	}
	j.Photos = append(j.Photos, url)
	j.ActivityLog = append(j.ActivityLog, entry)
	j.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.notify(companyID)
	return nil
}

func (s *MemoryJobStore) Delete(companyID, jobID string) error {
	s.mu.Lock()
	if err := s.takeErr(); err != nil {
		s.mu.Unlock()
		return err
	}
	for i, j := range s.jobs {
		if j.CompanyID == companyID && j.ID == jobID {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			s.mu.Unlock()
			s.notify(companyID)
			return nil
		}
	}
	s.mu.Unlock()
	return ErrJobNotFound
}

func (s *MemoryJobStore) Subscribe(companyID string, q JobQuery) (<-chan []models.Job, func()) {
	sub, cancel := s.hub.add(companyID, q)
	s.mu.Lock()
	snapshot := s.list(companyID, q)
	s.mu.Unlock()
	sub.push(snapshot)
	return sub.ch, cancel
}

func (s *MemoryJobStore) notify(companyID string) {
	s.hub.broadcast(companyID, s.List)
}

func (s *MemoryJobStore) find(companyID, jobID string) *models.Job {
	for _, j := range s.jobs {
		if j.CompanyID == companyID && j.ID == jobID {
			return j
		}
	}
	return nil
}

func applyField(j *models.Job, column string, value interface{}) {
	switch column {
	case "customer_name":
		j.CustomerName = value.(string)
	case "customer_phone":
		j.CustomerPhone = value.(string)
	case "address":
		j.Address = value.(string)
	case "job_type":
		j.JobType = value.(models.JobType)
	case "priority":
		j.Priority = value.(models.JobPriority)
	case "scheduled_date_time":
		j.ScheduledDateTime = toTimePtr(value)
	case "assigned_to":
		j.AssignedTo = value.(string)
	case "assigned_to_name":
		j.AssignedToName = value.(string)
	case "status":
		j.Status = value.(models.JobStatus)
	case "notes":
		j.Notes = value.(string)
	case "tech_notes":
		j.TechNotes = value.(string)
	case "signature":
		if v, ok := value.(*string); ok {
			j.Signature = v
		} else {
			sig := value.(string)
			j.Signature = &sig
		}
	case "job_duration":
		if v, ok := value.(*int64); ok {
			j.JobDuration = v
		} else {
			d := value.(int64)
			j.JobDuration = &d
		}
	case "en_route_at":
		j.EnRouteAt = toTimePtr(value)
	case "started_at":
		j.StartedAt = toTimePtr(value)
	case "completed_at":
		j.CompletedAt = toTimePtr(value)
	}
}

func toTimePtr(value interface{}) *time.Time {
	switch v := value.(type) {
	case nil:
		return nil
	case *time.Time:
		return v
	case time.Time:
		return &v
	}
	return nil
}

// MemoryTimerStore is the in-memory TimerStore counterpart.
type MemoryTimerStore struct {
	mu     sync.Mutex
	timers map[string]*models.JobTimer
	nextID uint
}

func NewMemoryTimerStore() *MemoryTimerStore {
	return &MemoryTimerStore{timers: make(map[string]*models.JobTimer)}
}

func timerKey(companyID, jobID, technicianID string) string {
	return companyID + "/" + jobID + "/" + technicianID
}

func (s *MemoryTimerStore) GetTimer(companyID, jobID, technicianID string) (*models.JobTimer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[timerKey(companyID, jobID, technicianID)]
	if !ok {
		return nil, ErrTimerNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *MemoryTimerStore) SaveTimer(t *models.JobTimer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		s.nextID++
		t.ID = s.nextID
	}
	t.UpdatedAt = time.Now()
	clone := *t
	s.timers[timerKey(t.CompanyID, t.JobID, t.TechnicianID)] = &clone
	return nil
}

func (s *MemoryTimerStore) DeleteTimer(companyID, jobID, technicianID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, timerKey(companyID, jobID, technicianID))
	return nil
}
