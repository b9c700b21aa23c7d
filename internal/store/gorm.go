package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/backend/internal/models"
	"gorm.io/gorm"
)

// GormJobStore persists jobs in Postgres. Activity-log appends use jsonb
// concatenation and photo appends use array_append, so both are atomic with
// the field update they ride along with.
type GormJobStore struct {
	db  *gorm.DB
	hub *hub
}

func NewGormJobStore(db *gorm.DB) *GormJobStore {
	return &GormJobStore{db: db, hub: newHub()}
}

func (s *GormJobStore) Create(job *models.Job) error {
	if err := s.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	s.notify(job.CompanyID)
	return nil
}

func (s *GormJobStore) Get(companyID, jobID string) (*models.Job, error) {
	var job models.Job
	err := s.db.Where("company_id = ? AND id = ?", companyID, jobID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	return &job, nil
}

func (s *GormJobStore) List(companyID string, q JobQuery) ([]models.Job, error) {
	tx := s.db.Where("company_id = ?", companyID)

	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.AssignedTo != "" && q.AssignedToName != "" {
		tx = tx.Where("assigned_to = ? OR assigned_to_name = ?", q.AssignedTo, q.AssignedToName)
	} else if q.AssignedTo != "" {
		tx = tx.Where("assigned_to = ?", q.AssignedTo)
	} else if q.AssignedToName != "" {
		tx = tx.Where("assigned_to_name = ?", q.AssignedToName)
	}
	if q.ActiveOnly {
		tx = tx.Where("status NOT IN ?", []models.JobStatus{models.JobStatusCompleted, models.JobStatusCancelled})
	}

	if q.OrderByScheduled {
		tx = tx.Order("scheduled_date_time asc NULLS LAST")
	} else {
		tx = tx.Order("created_at desc")
	}

	var jobs []models.Job
	if err := tx.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (s *GormJobStore) Update(companyID, jobID string, fields map[string]interface{}, entries []models.ActivityEntry) error {
	updates := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now()

	if len(entries) > 0 {
		appended, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to encode activity entries: %w", err)
		}
		updates["activity_log"] = gorm.Expr("COALESCE(activity_log, '[]'::jsonb) || ?::jsonb", string(appended))
	}

	res := s.db.Model(&models.Job{}).
		Where("company_id = ? AND id = ?", companyID, jobID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	s.notify(companyID)
	return nil
}

func (s *GormJobStore) AppendPhoto(companyID, jobID, url string, entry models.ActivityEntry) error {
	appended, err := json.Marshal([]models.ActivityEntry{entry})
	if err != nil {
		return fmt.Errorf("failed to encode activity entry: %w", err)
	}

	res := s.db.Model(&models.Job{}).
		Where("company_id = ? AND id = ?", companyID, jobID).
		Updates(map[string]interface{}{
			"photos":       gorm.Expr("array_append(COALESCE(photos, '{}'), ?)", url),
			"activity_log": gorm.Expr("COALESCE(activity_log, '[]'::jsonb) || ?::jsonb", string(appended)),
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to append photo: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	s.notify(companyID)
	return nil
}

func (s *GormJobStore) Delete(companyID, jobID string) error {
	res := s.db.Where("company_id = ? AND id = ?", companyID, jobID).Delete(&models.Job{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	s.notify(companyID)
	return nil
}

func (s *GormJobStore) Subscribe(companyID string, q JobQuery) (<-chan []models.Job, func()) {
	sub, cancel := s.hub.add(companyID, q)
	if jobs, err := s.List(companyID, q); err == nil {
		sub.push(jobs)
	}
	return sub.ch, cancel
}

func (s *GormJobStore) notify(companyID string) {
	s.hub.broadcast(companyID, s.List)
}

// GormTimerStore persists technician timer state in Postgres.
type GormTimerStore struct {
	db *gorm.DB
}

func NewGormTimerStore(db *gorm.DB) *GormTimerStore {
	return &GormTimerStore{db: db}
}

func (s *GormTimerStore) GetTimer(companyID, jobID, technicianID string) (*models.JobTimer, error) {
	var t models.JobTimer
	err := s.db.Where("company_id = ? AND job_id = ? AND technician_id = ?", companyID, jobID, technicianID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTimerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load timer: %w", err)
	}
	return &t, nil
}

func (s *GormTimerStore) SaveTimer(t *models.JobTimer) error {
	if err := s.db.Save(t).Error; err != nil {
		return fmt.Errorf("failed to save timer: %w", err)
	}
	return nil
}

func (s *GormTimerStore) DeleteTimer(companyID, jobID, technicianID string) error {
	err := s.db.Where("company_id = ? AND job_id = ? AND technician_id = ?", companyID, jobID, technicianID).
		Delete(&models.JobTimer{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete timer: %w", err)
	}
	return nil
}
