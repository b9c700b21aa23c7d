package services

import (
	"sort"
	"time"

	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/store"
)

// ReportSummary aggregates a company's jobs for the reports page.
type ReportSummary struct {
	Total          int                        `json:"total"`
	ByStatus       map[models.JobStatus]int   `json:"byStatus"`
	ByJobType      map[models.JobType]int     `json:"byJobType"`
	ByPriority     map[models.JobPriority]int `json:"byPriority"`
	CompletionRate int                        `json:"completionRate"`
	HighPriority   int                        `json:"highPriority"`
	Technicians    []TechPerformance          `json:"technicians"`
}

// TechPerformance is one technician's share of the summary.
type TechPerformance struct {
	TechnicianID string `json:"technicianId"`
	Name         string `json:"name"`
	Total        int    `json:"total"`
	Completed    int    `json:"completed"`
	InProgress   int    `json:"inProgress"`
}

// ReportService computes board-level statistics. DaysBack limits the window
// by creation time; zero means all time.
type ReportService struct {
	store store.JobStore
}

func NewReportService(st store.JobStore) *ReportService {
	return &ReportService{store: st}
}

func (s *ReportService) Summary(companyID string, daysBack int, now time.Time) (*ReportSummary, error) {
	jobs, err := s.store.List(companyID, store.JobQuery{})
	if err != nil {
		return nil, err
	}

	if daysBack > 0 {
		cutoff := now.AddDate(0, 0, -daysBack)
		jobs = keep(jobs, func(j *models.Job) bool {
			return !j.CreatedAt.Before(cutoff)
		})
	}

	summary := &ReportSummary{
		Total:      len(jobs),
		ByStatus:   make(map[models.JobStatus]int),
		ByJobType:  make(map[models.JobType]int),
		ByPriority: make(map[models.JobPriority]int),
	}
	perf := make(map[string]*TechPerformance)

	for i := range jobs {
		j := &jobs[i]
		summary.ByStatus[j.Status]++
		summary.ByJobType[j.JobType]++
		summary.ByPriority[j.Priority]++
		if j.Priority == models.PriorityHigh {
			summary.HighPriority++
		}

		if j.AssignedTo == "" {
			continue
		}
		p, ok := perf[j.AssignedTo]
		if !ok {
			p = &TechPerformance{TechnicianID: j.AssignedTo, Name: j.AssignedToName}
			perf[j.AssignedTo] = p
		}
		p.Total++
		switch j.Status {
		case models.JobStatusCompleted:
			p.Completed++
		case models.JobStatusInProgress, models.JobStatusEnRoute:
			p.InProgress++
		}
	}

	if summary.Total > 0 {
		summary.CompletionRate = summary.ByStatus[models.JobStatusCompleted] * 100 / summary.Total
	}

	summary.Technicians = make([]TechPerformance, 0, len(perf))
	for _, p := range perf {
		summary.Technicians = append(summary.Technicians, *p)
	}
	sort.Slice(summary.Technicians, func(a, b int) bool {
		return summary.Technicians[a].Total > summary.Technicians[b].Total
	})

	return summary, nil
}
