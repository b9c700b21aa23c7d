package services

import (
	"testing"

	"github.com/fieldops/backend/internal/models"
)

func completableJob(status models.JobStatus) *models.Job {
	sig := "mem://1_sig.png"
	return &models.Job{
		ID:        "job-1",
		CompanyID: "co-1",
		Status:    status,
		Photos:    []string{"mem://1_a.jpg"},
		Signature: &sig,
		TechNotes: "Replaced the valve",
	}
}

func TestNextTechnicianStatus(t *testing.T) {
	tests := []struct {
		from models.JobStatus
		to   models.JobStatus
		ok   bool
	}{
		{models.JobStatusScheduled, models.JobStatusEnRoute, true},
		{models.JobStatusEnRoute, models.JobStatusInProgress, true},
		{models.JobStatusInProgress, models.JobStatusCompleted, true},
		{models.JobStatusUnassigned, "", false},
		{models.JobStatusCompleted, "", false},
		{models.JobStatusCancelled, "", false},
	}

	for _, test := range tests {
		to, ok := NextTechnicianStatus(test.from)
		if ok != test.ok {
			t.Errorf("From %s: expected ok=%v, got %v", test.from, test.ok, ok)
		}
		if ok && to != test.to {
			t.Errorf("From %s: expected next %s, got %s", test.from, test.to, to)
		}
	}
}

func TestValidateTechnicianTransitionForwardOnly(t *testing.T) {
	tests := []struct {
		name    string
		from    models.JobStatus
		to      models.JobStatus
		allowed bool
	}{
		{"scheduled to en_route", models.JobStatusScheduled, models.JobStatusEnRoute, true},
		{"en_route to in_progress", models.JobStatusEnRoute, models.JobStatusInProgress, true},
		{"in_progress to completed", models.JobStatusInProgress, models.JobStatusCompleted, true},
		{"no skipping ahead", models.JobStatusScheduled, models.JobStatusInProgress, false},
		{"no jumping to completed", models.JobStatusScheduled, models.JobStatusCompleted, false},
		{"no going backward", models.JobStatusInProgress, models.JobStatusEnRoute, false},
		{"no leaving completed", models.JobStatusCompleted, models.JobStatusInProgress, false},
		{"no self transition", models.JobStatusEnRoute, models.JobStatusEnRoute, false},
		{"no cancelling", models.JobStatusScheduled, models.JobStatusCancelled, false},
	}

	for _, test := range tests {
		job := completableJob(test.from)
		err := ValidateTechnicianTransition(job, test.to)
		if test.allowed && err != nil {
			t.Errorf("%s: expected transition to be allowed, got %v", test.name, err)
		}
		if !test.allowed {
			if err == nil {
				t.Errorf("%s: expected transition to be rejected", test.name)
				continue
			}
			if _, ok := err.(*InvalidTransitionError); !ok {
				t.Errorf("%s: expected InvalidTransitionError, got %T", test.name, err)
			}
		}
	}
}

func TestValidateCompletionPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Job)
		message string
	}{
		{
			name:    "missing photos",
			mutate:  func(j *models.Job) { j.Photos = nil },
			message: "Please upload at least one photo before completing",
		},
		{
			name:    "missing signature",
			mutate:  func(j *models.Job) { j.Signature = nil },
			message: "Please capture the customer signature before completing",
		},
		{
			name: "empty signature",
			mutate: func(j *models.Job) {
				empty := ""
				j.Signature = &empty
			},
			message: "Please capture the customer signature before completing",
		},
		{
			name:    "blank tech notes",
			mutate:  func(j *models.Job) { j.TechNotes = "   " },
			message: "Please add work notes before completing",
		},
	}

	for _, test := range tests {
		job := completableJob(models.JobStatusInProgress)
		test.mutate(job)

		err := ValidateTechnicianTransition(job, models.JobStatusCompleted)
		if err == nil {
			t.Errorf("%s: expected completion to be blocked", test.name)
			continue
		}
		if err.Error() != test.message {
			t.Errorf("%s: expected message %q, got %q", test.name, test.message, err.Error())
		}
	}

	// All preconditions satisfied: completion goes through.
	if err := ValidateTechnicianTransition(completableJob(models.JobStatusInProgress), models.JobStatusCompleted); err != nil {
		t.Errorf("Expected completion to be allowed with all artifacts present, got %v", err)
	}
}
