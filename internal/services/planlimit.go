package services

import (
	"fmt"
	"time"

	"github.com/fieldops/backend/internal/models"
	"gorm.io/gorm"
)

// Plan describes a subscription tier's ceilings. A limit of -1 means
// unlimited.
type Plan struct {
	ID              string
	Name            string
	MaxTechnicians  int
	MaxJobsPerMonth int
}

var plans = map[string]Plan{
	"starter":    {ID: "starter", Name: "Starter", MaxTechnicians: 2, MaxJobsPerMonth: 50},
	"pro":        {ID: "pro", Name: "Pro", MaxTechnicians: 10, MaxJobsPerMonth: 500},
	"enterprise": {ID: "enterprise", Name: "Enterprise", MaxTechnicians: -1, MaxJobsPerMonth: -1},
}

// PlanByID returns the plan for the given tier, falling back to starter for
// unknown values.
func PlanByID(id string) Plan {
	if p, ok := plans[id]; ok {
		return p
	}
	return plans["starter"]
}

// PlanLimitGate is consulted before job or technician creation. It never
// mutates state; a false answer is surfaced as PlanLimitExceeded by the
// caller.
type PlanLimitGate interface {
	CanCreateJob(companyID string) (bool, Plan, error)
	CanAddTechnician(companyID string) (bool, Plan, error)
}

// DBPlanGate reads the company's plan and current counts from the database.
type DBPlanGate struct {
	db *gorm.DB
}

func NewDBPlanGate(db *gorm.DB) *DBPlanGate {
	return &DBPlanGate{db: db}
}

func (g *DBPlanGate) plan(companyID string) (Plan, error) {
	var company models.Company
	if err := g.db.First(&company, "id = ?", companyID).Error; err != nil {
		return Plan{}, fmt.Errorf("failed to load company: %w", err)
	}
	return PlanByID(company.Plan), nil
}

func (g *DBPlanGate) CanCreateJob(companyID string) (bool, Plan, error) {
	plan, err := g.plan(companyID)
	if err != nil {
		return false, Plan{}, err
	}
	if plan.MaxJobsPerMonth < 0 {
		return true, plan, nil
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var count int64
	err = g.db.Model(&models.Job{}).
		Where("company_id = ? AND created_at >= ?", companyID, monthStart).
		Count(&count).Error
	if err != nil {
		return false, Plan{}, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count < int64(plan.MaxJobsPerMonth), plan, nil
}

func (g *DBPlanGate) CanAddTechnician(companyID string) (bool, Plan, error) {
	plan, err := g.plan(companyID)
	if err != nil {
		return false, Plan{}, err
	}
	if plan.MaxTechnicians < 0 {
		return true, plan, nil
	}

	var count int64
	err = g.db.Model(&models.Technician{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	if err != nil {
		return false, Plan{}, fmt.Errorf("failed to count technicians: %w", err)
	}
	return count < int64(plan.MaxTechnicians), plan, nil
}

// StaticPlanGate answers from fixed counts; used by tests and seeding.
type StaticPlanGate struct {
	Plan      Plan
	JobCount  int
	TechCount int
}

func (g *StaticPlanGate) CanCreateJob(string) (bool, Plan, error) {
	if g.Plan.MaxJobsPerMonth < 0 {
		return true, g.Plan, nil
	}
	return g.JobCount < g.Plan.MaxJobsPerMonth, g.Plan, nil
}

func (g *StaticPlanGate) CanAddTechnician(string) (bool, Plan, error) {
	if g.Plan.MaxTechnicians < 0 {
		return true, g.Plan, nil
	}
	return g.TechCount < g.Plan.MaxTechnicians, g.Plan, nil
}
