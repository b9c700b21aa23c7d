package models

import "time"

// JobTimer is the persisted elapsed-time state for one technician working one
// job. Timers are independent per job; the accumulated value is reconciled
// into Job.JobDuration only when the job reaches completed.
type JobTimer struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	CompanyID          string     `json:"companyId" gorm:"size:36;not null;index:idx_timer_job"`
	JobID              string     `json:"jobId" gorm:"size:36;not null;index:idx_timer_job"`
	TechnicianID       string     `json:"technicianId" gorm:"size:36;not null;index:idx_timer_job"`
	AccumulatedSeconds int64      `json:"accumulatedSeconds" gorm:"not null;default:0"`
	RunningSince       *time.Time `json:"runningSince"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (JobTimer) TableName() string {
	return "job_timers"
}

// Running reports whether the timer is currently ticking.
func (t *JobTimer) Running() bool {
	return t.RunningSince != nil
}

// Elapsed returns the total tracked seconds as of now.
func (t *JobTimer) Elapsed(now time.Time) int64 {
	total := t.AccumulatedSeconds
	if t.RunningSince != nil {
		total += int64(now.Sub(*t.RunningSince).Seconds())
	}
	return total
}
