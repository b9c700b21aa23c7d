package services

import (
	"time"

	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/store"
)

// TimerService tracks per-job elapsed time for technicians. State is
// persisted on every change so a timer survives a session reload; each job's
// timer is independent of every other job's. The accumulated value only
// reaches the job record at completion, via TechService.
type TimerService struct {
	store store.TimerStore
}

func NewTimerService(st store.TimerStore) *TimerService {
	return &TimerService{store: st}
}

func (s *TimerService) get(actor Actor, jobID string) (*models.JobTimer, error) {
	t, err := s.store.GetTimer(actor.CompanyID, jobID, actor.TechnicianID)
	if err == store.ErrTimerNotFound {
		return &models.JobTimer{
			CompanyID:    actor.CompanyID,
			JobID:        jobID,
			TechnicianID: actor.TechnicianID,
		}, nil
	}
	return t, err
}

// Start begins or resumes the timer. Starting a running timer is a no-op.
func (s *TimerService) Start(actor Actor, jobID string) (*models.JobTimer, error) {
	t, err := s.get(actor, jobID)
	if err != nil {
		return nil, err
	}
	if t.Running() {
		return t, nil
	}
	now := time.Now()
	t.RunningSince = &now
	if err := s.store.SaveTimer(t); err != nil {
		return nil, &StoreWriteFailure{Op: "start timer", Err: err}
	}
	return t, nil
}

// Pause folds the running span into the accumulated total and stops.
func (s *TimerService) Pause(actor Actor, jobID string) (*models.JobTimer, error) {
	t, err := s.get(actor, jobID)
	if err != nil {
		return nil, err
	}
	if t.Running() {
		t.AccumulatedSeconds = t.Elapsed(time.Now())
		t.RunningSince = nil
		if err := s.store.SaveTimer(t); err != nil {
			return nil, &StoreWriteFailure{Op: "pause timer", Err: err}
		}
	}
	return t, nil
}

// Reset zeroes the timer without touching the job record.
func (s *TimerService) Reset(actor Actor, jobID string) (*models.JobTimer, error) {
	t, err := s.get(actor, jobID)
	if err != nil {
		return nil, err
	}
	t.AccumulatedSeconds = 0
	t.RunningSince = nil
	if err := s.store.SaveTimer(t); err != nil {
		return nil, &StoreWriteFailure{Op: "reset timer", Err: err}
	}
	return t, nil
}

// Elapsed returns the tracked seconds as of now.
func (s *TimerService) Elapsed(actor Actor, jobID string) (int64, error) {
	t, err := s.get(actor, jobID)
	if err != nil {
		return 0, err
	}
	return t.Elapsed(time.Now()), nil
}

// discard drops the timer state. Called only after the completed transition
// has been persisted, so a failed completion write keeps the accumulated
// time intact for the retry.
func (s *TimerService) discard(actor Actor, jobID string) error {
	return s.store.DeleteTimer(actor.CompanyID, jobID, actor.TechnicianID)
}
