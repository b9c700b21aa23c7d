package services

import (
	"testing"
	"time"

	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/store"
)

func TestReportSummary(t *testing.T) {
	st := store.NewMemoryJobStore()
	now := time.Date(2026, time.September, 2, 12, 0, 0, 0, time.UTC)

	seed := []struct {
		id       string
		status   models.JobStatus
		priority models.JobPriority
		jobType  models.JobType
		tech     string
		techName string
		age      time.Duration
	}{
		{"j1", models.JobStatusCompleted, models.PriorityHigh, models.JobTypeRepair, "tech-1", "Marcus Webb", 24 * time.Hour},
		{"j2", models.JobStatusCompleted, models.PriorityMedium, models.JobTypeRepair, "tech-1", "Marcus Webb", 48 * time.Hour},
		{"j3", models.JobStatusInProgress, models.PriorityHigh, models.JobTypeInstallation, "tech-1", "Marcus Webb", time.Hour},
		{"j4", models.JobStatusEnRoute, models.PriorityLow, models.JobTypeMaintenance, "tech-2", "Priya Shah", time.Hour},
		{"j5", models.JobStatusUnassigned, models.PriorityHigh, models.JobTypeRepair, "", "", time.Hour},
		// Old job outside a 7-day window.
		{"j6", models.JobStatusCompleted, models.PriorityLow, models.JobTypeInspection, "tech-2", "Priya Shah", 30 * 24 * time.Hour},
	}
	for _, s := range seed {
		err := st.Create(&models.Job{
			ID: s.id, CompanyID: "co-1",
			CustomerName: "c", CustomerPhone: "p", Address: "a",
			Status: s.status, Priority: s.priority, JobType: s.jobType,
			AssignedTo: s.tech, AssignedToName: s.techName,
			CreatedAt: now.Add(-s.age),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	svc := NewReportService(st)

	// All time.
	sum, err := svc.Summary("co-1", 0, now)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Total != 6 {
		t.Errorf("Expected 6 jobs all time, got %d", sum.Total)
	}
	if sum.ByStatus[models.JobStatusCompleted] != 3 {
		t.Errorf("Expected 3 completed, got %d", sum.ByStatus[models.JobStatusCompleted])
	}
	if sum.CompletionRate != 50 {
		t.Errorf("Expected 50%% completion rate, got %d", sum.CompletionRate)
	}
	if sum.HighPriority != 3 {
		t.Errorf("Expected 3 high priority, got %d", sum.HighPriority)
	}

	// Technicians sorted by workload; en_route counts as in progress.
	if len(sum.Technicians) != 2 {
		t.Fatalf("Expected 2 technicians, got %d", len(sum.Technicians))
	}
	top := sum.Technicians[0]
	if top.TechnicianID != "tech-1" || top.Total != 3 || top.Completed != 2 || top.InProgress != 1 {
		t.Errorf("Unexpected top technician stats: %+v", top)
	}
	if sum.Technicians[1].InProgress != 1 {
		t.Errorf("Expected en_route counted as in progress, got %+v", sum.Technicians[1])
	}

	// 7-day window drops the old job.
	sum, err = svc.Summary("co-1", 7, now)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Total != 5 {
		t.Errorf("Expected 5 jobs in 7-day window, got %d", sum.Total)
	}

	// Foreign tenants see nothing.
	sum, err = svc.Summary("co-2", 0, now)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Total != 0 {
		t.Errorf("Expected empty summary for other company, got %d", sum.Total)
	}
}
