package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/store"
)

func fieldTech() Actor {
	return Actor{
		UID:          "marcus@example.com",
		Name:         "Marcus Webb",
		Role:         models.RoleTech,
		CompanyID:    "co-1",
		TechnicianID: "tech-1",
	}
}

func newTechFixture(t *testing.T) (*TechService, *JobService, *store.MemoryJobStore, *store.MemoryTimerStore) {
	t.Helper()
	st := store.NewMemoryJobStore()
	ts := store.NewMemoryTimerStore()
	jobs := NewJobService(st, &StaticPlanGate{Plan: PlanByID("enterprise")})
	tech := NewTechService(st, NewTimerService(ts), NewMemoryStorage())
	return tech, jobs, st, ts
}

func createAssignedJob(t *testing.T, jobs *JobService) *models.Job {
	t.Helper()
	input := validInput()
	input.AssignedTo = "tech-1"
	input.AssignedToName = "Marcus Webb"
	job, err := jobs.CreateJob(dispatcher(), input)
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	return job
}

func TestActiveJobsScopedToTechnician(t *testing.T) {
	tech, jobs, _, _ := newTechFixture(t)

	mine := createAssignedJob(t, jobs)

	// Someone else's job and an unassigned job.
	other := validInput()
	other.AssignedTo = "tech-2"
	other.AssignedToName = "Priya Shah"
	if _, err := jobs.CreateJob(dispatcher(), other); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if _, err := jobs.CreateJob(dispatcher(), validInput()); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	active, err := tech.ActiveJobs(fieldTech())
	if err != nil {
		t.Fatalf("ActiveJobs failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != mine.ID {
		t.Fatalf("Expected only the technician's own job, got %+v", active)
	}

	// Completed jobs drop off the active list.
	if err := jobs.OverrideStatus(dispatcher(), mine.ID, models.JobStatusCompleted); err != nil {
		t.Fatalf("OverrideStatus failed: %v", err)
	}
	active, err = tech.ActiveJobs(fieldTech())
	if err != nil {
		t.Fatalf("ActiveJobs failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("Expected no active jobs after completion, got %d", len(active))
	}
}

func TestForeignJobLooksMissing(t *testing.T) {
	tech, jobs, _, _ := newTechFixture(t)

	other := validInput()
	other.AssignedTo = "tech-2"
	other.AssignedToName = "Priya Shah"
	job, err := jobs.CreateJob(dispatcher(), other)
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	if _, err := tech.GetJob(fieldTech(), job.ID); err != store.ErrJobNotFound {
		t.Errorf("Expected ErrJobNotFound for another technician's job, got %v", err)
	}
	if _, err := tech.UpdateStatus(fieldTech(), job.ID, models.JobStatusEnRoute); err != store.ErrJobNotFound {
		t.Errorf("Expected ErrJobNotFound on status write, got %v", err)
	}
	if _, err := tech.SetTechNotes(fieldTech(), job.ID, "peeking"); err != store.ErrJobNotFound {
		t.Errorf("Expected ErrJobNotFound on notes write, got %v", err)
	}
}

func TestTechnicianJobLifecycle(t *testing.T) {
	tech, jobs, _, _ := newTechFixture(t)
	actor := fieldTech()

	job := createAssignedJob(t, jobs)

	// scheduled -> en_route stamps the milestone.
	updated, err := tech.UpdateStatus(actor, job.ID, models.JobStatusEnRoute)
	if err != nil {
		t.Fatalf("UpdateStatus to en_route failed: %v", err)
	}
	if updated.Status != models.JobStatusEnRoute || updated.EnRouteAt == nil {
		t.Fatalf("Expected en_route with timestamp, got %+v", updated)
	}

	// en_route -> in_progress starts the timer.
	updated, err = tech.UpdateStatus(actor, job.ID, models.JobStatusInProgress)
	if err != nil {
		t.Fatalf("UpdateStatus to in_progress failed: %v", err)
	}
	if updated.StartedAt == nil {
		t.Error("Expected started_at timestamp")
	}
	timer, err := tech.Timers().Start(actor, job.ID)
	if err != nil {
		t.Fatalf("Timer lookup failed: %v", err)
	}
	if !timer.Running() {
		t.Error("Expected timer running after entering in_progress")
	}

	// Completion is blocked until every artifact is present.
	_, err = tech.UpdateStatus(actor, job.ID, models.JobStatusCompleted)
	if err == nil || !strings.Contains(err.Error(), "photo") {
		t.Fatalf("Expected photo precondition error, got %v", err)
	}

	if _, err := tech.AddPhoto(actor, job.ID, "before.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}
	_, err = tech.UpdateStatus(actor, job.ID, models.JobStatusCompleted)
	if err == nil || !strings.Contains(err.Error(), "signature") {
		t.Fatalf("Expected signature precondition error, got %v", err)
	}

	if _, err := tech.SetSignature(actor, job.ID, "sig.png", strings.NewReader("png")); err != nil {
		t.Fatalf("SetSignature failed: %v", err)
	}
	_, err = tech.UpdateStatus(actor, job.ID, models.JobStatusCompleted)
	if err == nil || !strings.Contains(err.Error(), "notes") {
		t.Fatalf("Expected notes precondition error, got %v", err)
	}

	if _, err := tech.SetTechNotes(actor, job.ID, "Replaced the valve"); err != nil {
		t.Fatalf("SetTechNotes failed: %v", err)
	}
	updated, err = tech.UpdateStatus(actor, job.ID, models.JobStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus to completed failed: %v", err)
	}
	if updated.Status != models.JobStatusCompleted || updated.CompletedAt == nil {
		t.Fatalf("Expected completed with timestamp, got %+v", updated)
	}
	if updated.JobDuration == nil {
		t.Fatal("Expected job duration recorded at completion")
	}

	// The timer state is gone once its value landed on the job.
	elapsed, err := tech.Timers().Elapsed(actor, job.ID)
	if err != nil {
		t.Fatalf("Elapsed failed: %v", err)
	}
	if elapsed != 0 {
		t.Errorf("Expected fresh zero timer after completion, got %d", elapsed)
	}

	// Every milestone produced exactly one status_changed entry.
	statusEntries := 0
	for _, e := range updated.ActivityLog {
		if e.Type == models.ActivityStatusChanged {
			statusEntries++
		}
	}
	if statusEntries != 3 {
		t.Errorf("Expected 3 status_changed entries, got %d", statusEntries)
	}
}

func TestAddPhotoCapacity(t *testing.T) {
	tech, jobs, _, _ := newTechFixture(t)
	actor := fieldTech()
	job := createAssignedJob(t, jobs)

	for i := 0; i < models.MaxJobPhotos; i++ {
		if _, err := tech.AddPhoto(actor, job.ID, fmt.Sprintf("photo%d.jpg", i), strings.NewReader("jpeg")); err != nil {
			t.Fatalf("AddPhoto %d failed: %v", i, err)
		}
	}

	_, err := tech.AddPhoto(actor, job.ID, "one-too-many.jpg", strings.NewReader("jpeg"))
	var cerr *CapacityError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected CapacityError for photo %d, got %v", models.MaxJobPhotos+1, err)
	}
	if cerr.Max != models.MaxJobPhotos {
		t.Errorf("Expected max %d in error, got %d", models.MaxJobPhotos, cerr.Max)
	}

	got, _ := tech.GetJob(actor, job.ID)
	if len(got.Photos) != models.MaxJobPhotos {
		t.Errorf("Expected exactly %d photos, got %d", models.MaxJobPhotos, len(got.Photos))
	}
}

func TestCompletionWriteFailureKeepsTimer(t *testing.T) {
	tech, jobs, st, ts := newTechFixture(t)
	actor := fieldTech()
	job := createAssignedJob(t, jobs)

	if _, err := tech.UpdateStatus(actor, job.ID, models.JobStatusEnRoute); err != nil {
		t.Fatalf("UpdateStatus to en_route failed: %v", err)
	}
	if _, err := tech.UpdateStatus(actor, job.ID, models.JobStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus to in_progress failed: %v", err)
	}
	if _, err := tech.AddPhoto(actor, job.ID, "before.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}
	if _, err := tech.SetSignature(actor, job.ID, "sig.png", strings.NewReader("png")); err != nil {
		t.Fatalf("SetSignature failed: %v", err)
	}
	if _, err := tech.SetTechNotes(actor, job.ID, "Replaced the valve"); err != nil {
		t.Fatalf("SetTechNotes failed: %v", err)
	}

	// A long working session already on the clock.
	err := ts.SaveTimer(&models.JobTimer{
		CompanyID:          actor.CompanyID,
		JobID:              job.ID,
		TechnicianID:       actor.TechnicianID,
		AccumulatedSeconds: 90,
	})
	if err != nil {
		t.Fatalf("SaveTimer failed: %v", err)
	}

	st.FailNextWrite(errors.New("connection reset"))
	_, err = tech.UpdateStatus(actor, job.ID, models.JobStatusCompleted)
	var werr *StoreWriteFailure
	if !errors.As(err, &werr) {
		t.Fatalf("Expected StoreWriteFailure, got %v", err)
	}

	// The job did not complete and the accumulated time survived.
	got, _ := tech.GetJob(actor, job.ID)
	if got.Status != models.JobStatusInProgress {
		t.Fatalf("Expected job still in_progress after failed write, got %s", got.Status)
	}
	elapsed, err := tech.Timers().Elapsed(actor, job.ID)
	if err != nil {
		t.Fatalf("Elapsed failed: %v", err)
	}
	if elapsed != 90 {
		t.Fatalf("Accumulated timer lost on failed write: got %d, want 90", elapsed)
	}

	// The retry completes with the preserved duration and clears the timer.
	got, err = tech.UpdateStatus(actor, job.ID, models.JobStatusCompleted)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if got.JobDuration == nil || *got.JobDuration != 90 {
		t.Fatalf("Expected job duration 90 on retry, got %v", got.JobDuration)
	}
	if _, err := ts.GetTimer(actor.CompanyID, job.ID, actor.TechnicianID); err != store.ErrTimerNotFound {
		t.Errorf("Expected timer state cleared after successful completion, got %v", err)
	}
}

func TestInProgressWriteFailureDoesNotStartTimer(t *testing.T) {
	tech, jobs, st, ts := newTechFixture(t)
	actor := fieldTech()
	job := createAssignedJob(t, jobs)

	if _, err := tech.UpdateStatus(actor, job.ID, models.JobStatusEnRoute); err != nil {
		t.Fatalf("UpdateStatus to en_route failed: %v", err)
	}

	st.FailNextWrite(errors.New("connection reset"))
	_, err := tech.UpdateStatus(actor, job.ID, models.JobStatusInProgress)
	var werr *StoreWriteFailure
	if !errors.As(err, &werr) {
		t.Fatalf("Expected StoreWriteFailure, got %v", err)
	}

	// The job never left en_route, so no clock may be ticking against it.
	got, _ := tech.GetJob(actor, job.ID)
	if got.Status != models.JobStatusEnRoute {
		t.Fatalf("Expected job still en_route after failed write, got %s", got.Status)
	}
	if _, err := ts.GetTimer(actor.CompanyID, job.ID, actor.TechnicianID); err != store.ErrTimerNotFound {
		t.Fatalf("Expected no timer state after failed write, got %v", err)
	}

	// The retry starts the timer as usual.
	if _, err := tech.UpdateStatus(actor, job.ID, models.JobStatusInProgress); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	timer, err := ts.GetTimer(actor.CompanyID, job.ID, actor.TechnicianID)
	if err != nil {
		t.Fatalf("GetTimer failed: %v", err)
	}
	if !timer.Running() {
		t.Error("Expected timer running after successful retry")
	}
}

func TestSetTechNotesNoChangeWritesNothing(t *testing.T) {
	tech, jobs, _, _ := newTechFixture(t)
	actor := fieldTech()
	job := createAssignedJob(t, jobs)

	updated, err := tech.SetTechNotes(actor, job.ID, "first pass")
	if err != nil {
		t.Fatalf("SetTechNotes failed: %v", err)
	}
	before := len(updated.ActivityLog)

	updated, err = tech.SetTechNotes(actor, job.ID, "first pass")
	if err != nil {
		t.Fatalf("SetTechNotes failed: %v", err)
	}
	if len(updated.ActivityLog) != before {
		t.Errorf("Expected no new entry for unchanged notes, log grew %d -> %d", before, len(updated.ActivityLog))
	}
}

func TestSignatureReplacement(t *testing.T) {
	tech, jobs, _, _ := newTechFixture(t)
	actor := fieldTech()
	job := createAssignedJob(t, jobs)

	first, err := tech.SetSignature(actor, job.ID, "sig.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("SetSignature failed: %v", err)
	}
	second, err := tech.SetSignature(actor, job.ID, "sig2.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("SetSignature failed: %v", err)
	}
	if second.Signature == nil || *second.Signature == *first.Signature {
		t.Error("Expected the new capture to replace the previous signature")
	}
}
