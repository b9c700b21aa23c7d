package services

import (
	"testing"
	"time"

	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/store"
)

// Wednesday, so the current week has days on both sides.
var boardNow = time.Date(2026, time.September, 2, 10, 30, 0, 0, time.UTC)

func schedJob(id string, status models.JobStatus, sched *time.Time) models.Job {
	return models.Job{
		ID:                id,
		CompanyID:         "co-1",
		CustomerName:      "Customer " + id,
		CustomerPhone:     "555-" + id,
		Address:           id + " Main St",
		JobType:           models.JobTypeRepair,
		Priority:          models.PriorityMedium,
		Status:            status,
		ScheduledDateTime: sched,
	}
}

func at(day int, hour int) *time.Time {
	t := time.Date(2026, time.September, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestApplyFiltersComposition(t *testing.T) {
	jobs := []models.Job{
		{ID: "a", CustomerName: "Grace Okafor", CustomerPhone: "555-0202", Address: "19 Birch St", AssignedTo: "tech-1", Priority: models.PriorityHigh, JobType: models.JobTypeRepair},
		{ID: "b", CustomerName: "Sam Altieri", CustomerPhone: "555-0203", Address: "7 Harbor Rd", AssignedTo: "tech-1", Priority: models.PriorityHigh, JobType: models.JobTypeInstallation},
		{ID: "c", CustomerName: "Grace Hopper", CustomerPhone: "555-0204", Address: "1 Navy Way", AssignedTo: "tech-2", Priority: models.PriorityHigh, JobType: models.JobTypeRepair},
		{ID: "d", CustomerName: "Lena Fischer", CustomerPhone: "555-0205", Address: "88 Summit Ave", AssignedTo: "tech-1", Priority: models.PriorityLow, JobType: models.JobTypeRepair},
	}

	got := ApplyFilters(jobs, Filters{
		TechnicianID: "tech-1",
		Search:       "grace",
		Priority:     models.PriorityHigh,
		JobType:      models.JobTypeRepair,
	}, boardNow)

	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("Expected only job a to survive all filters, got %+v", got)
	}

	// No filters: input unchanged, order preserved.
	all := ApplyFilters(jobs, Filters{}, boardNow)
	if len(all) != len(jobs) {
		t.Fatalf("Expected all %d jobs with empty filters, got %d", len(jobs), len(all))
	}
	for i := range all {
		if all[i].ID != jobs[i].ID {
			t.Errorf("Order not preserved at %d: %s != %s", i, all[i].ID, jobs[i].ID)
		}
	}
}

func TestApplyFiltersSearchFields(t *testing.T) {
	jobs := []models.Job{
		{ID: "a", CustomerName: "Grace Okafor", CustomerPhone: "555-0202", Address: "19 Birch St"},
		{ID: "b", CustomerName: "Sam Altieri", CustomerPhone: "555-0203", Address: "7 Harbor Rd"},
		{ID: "c", CustomerName: "Front Desk", CustomerPhone: "555-CALL", Address: "3 Plaza Ct"},
	}

	tests := []struct {
		search string
		want   string
	}{
		{"okafor", "a"},   // name, case-insensitive
		{"OKAFOR", "a"},
		{"harbor", "b"},   // address
		{"555-0202", "a"}, // phone, exact substring
		{"call", "c"},     // phone is case-insensitive too
		{"CALL", "c"},
	}

	for _, test := range tests {
		got := ApplyFilters(jobs, Filters{Search: test.search}, boardNow)
		if len(got) != 1 || got[0].ID != test.want {
			t.Errorf("Search %q: expected job %s, got %+v", test.search, test.want, got)
		}
	}
}

func TestMatchesDateRange(t *testing.T) {
	tests := []struct {
		name  string
		sched *time.Time
		state models.JobStatus
		rng   DateRange
		want  bool
	}{
		{"today morning", at(2, 8), models.JobStatusScheduled, DateRangeToday, true},
		{"today late", at(2, 23), models.JobStatusScheduled, DateRangeToday, true},
		{"yesterday is not today", at(1, 12), models.JobStatusScheduled, DateRangeToday, false},
		{"tomorrow", at(3, 9), models.JobStatusScheduled, DateRangeTomorrow, true},
		{"today is not tomorrow", at(2, 9), models.JobStatusScheduled, DateRangeTomorrow, false},
		{"sunday closes this week", at(6, 23), models.JobStatusScheduled, DateRangeThisWeek, true},
		{"next monday is next week", at(7, 8), models.JobStatusScheduled, DateRangeThisWeek, false},
		{"next monday in next week", at(7, 8), models.JobStatusScheduled, DateRangeNextWeek, true},
		{"past due open job", at(1, 9), models.JobStatusScheduled, DateRangeOverdue, true},
		{"past due completed job", at(1, 9), models.JobStatusCompleted, DateRangeOverdue, false},
		{"today is not overdue", at(2, 8), models.JobStatusScheduled, DateRangeOverdue, false},
		{"unscheduled never matches", nil, models.JobStatusUnassigned, DateRangeToday, false},
		{"unscheduled not overdue", nil, models.JobStatusUnassigned, DateRangeOverdue, false},
	}

	for _, test := range tests {
		j := schedJob("x", test.state, test.sched)
		got := matchesDateRange(&j, test.rng, boardNow)
		if got != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, got)
		}
	}
}

func TestPartitionLanes(t *testing.T) {
	jobs := []models.Job{
		schedJob("u1", models.JobStatusUnassigned, nil),
		schedJob("s1", models.JobStatusScheduled, at(2, 9)),
		schedJob("s2", models.JobStatusScheduled, at(2, 11)),
		schedJob("e1", models.JobStatusEnRoute, at(2, 9)),
		schedJob("p1", models.JobStatusInProgress, at(2, 9)),
		schedJob("c1", models.JobStatusCompleted, at(1, 9)),
		schedJob("x1", models.JobStatusCancelled, nil),
	}

	b := PartitionLanes(jobs)

	if len(b.Scheduled) != 2 || b.Scheduled[0].ID != "s1" || b.Scheduled[1].ID != "s2" {
		t.Errorf("Scheduled lane wrong: %+v", b.Scheduled)
	}
	if len(b.Unassigned) != 1 || len(b.EnRoute) != 1 || len(b.InProgress) != 1 || len(b.Completed) != 1 {
		t.Errorf("Lane sizes wrong: %d/%d/%d/%d", len(b.Unassigned), len(b.EnRoute), len(b.InProgress), len(b.Completed))
	}

	// Cancelled jobs are invisible everywhere, including the totals.
	if b.Total != 6 {
		t.Errorf("Expected total 6 (cancelled excluded), got %d", b.Total)
	}
	if b.Counts[models.JobStatusScheduled] != 2 || b.Counts[models.JobStatusCancelled] != 0 {
		t.Errorf("Counts wrong: %+v", b.Counts)
	}

	if lane := b.Lane(models.JobStatusEnRoute); len(lane) != 1 || lane[0].ID != "e1" {
		t.Errorf("Lane(en_route) wrong: %+v", lane)
	}
}

func waitForChange(t *testing.T, p *BoardProjector) {
	t.Helper()
	select {
	case <-p.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for projector update")
	}
}

func TestBoardProjectorFollowsStore(t *testing.T) {
	st := store.NewMemoryJobStore()
	svc := NewJobService(st, &StaticPlanGate{Plan: PlanByID("enterprise")})

	p := NewBoardProjector(st, "co-1")
	defer p.Close()
	waitForChange(t, p) // initial snapshot

	job, err := svc.CreateJob(dispatcher(), validInput())
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	waitForChange(t, p)

	b := p.Snapshot(Filters{}, boardNow)
	if len(b.Unassigned) != 1 || b.Unassigned[0].ID != job.ID {
		t.Fatalf("Expected job in unassigned lane, got %+v", b)
	}

	if err := svc.OverrideStatus(dispatcher(), job.ID, models.JobStatusScheduled); err != nil {
		t.Fatalf("OverrideStatus failed: %v", err)
	}
	waitForChange(t, p)

	b = p.Snapshot(Filters{}, boardNow)
	if len(b.Scheduled) != 1 || len(b.Unassigned) != 0 {
		t.Fatalf("Expected job in scheduled lane after push, got %+v", b)
	}
}

func TestBoardProjectorOverlay(t *testing.T) {
	st := store.NewMemoryJobStore()
	svc := NewJobService(st, &StaticPlanGate{Plan: PlanByID("enterprise")})

	job, err := svc.CreateJob(dispatcher(), validInput())
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	p := NewBoardProjector(st, "co-1")
	defer p.Close()
	waitForChange(t, p)

	// Staged move shows in the snapshot before any store write.
	p.StageMove(job.ID, models.JobStatusInProgress)
	b := p.Snapshot(Filters{}, boardNow)
	if len(b.InProgress) != 1 || len(b.Unassigned) != 0 {
		t.Fatalf("Expected staged job in in_progress lane, got %+v", b)
	}

	// The authoritative list is untouched by staging.
	if jobs := p.Jobs(); jobs[0].Status != models.JobStatusUnassigned {
		t.Errorf("Authoritative list mutated by staging: %s", jobs[0].Status)
	}

	// Rollback snaps the job back.
	p.Rollback(job.ID)
	b = p.Snapshot(Filters{}, boardNow)
	if len(b.Unassigned) != 1 || len(b.InProgress) != 0 {
		t.Fatalf("Expected job back in unassigned lane after rollback, got %+v", b)
	}
}
