package main

import (
	"log"
	"time"

	"github.com/fieldops/backend/internal/database"
	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/services"
	"github.com/fieldops/backend/internal/store"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo company with an owner, two technicians, and jobs spread
// across the board lanes. Safe to rerun: it skips seeding when the demo
// owner already exists.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	database.Connect()
	database.AutoMigrate()
	db := database.DB

	var existing models.User
	if err := db.Where("email = ?", "owner@demo.fieldops.io").First(&existing).Error; err == nil {
		log.Println("Demo data already present, nothing to do")
		return
	}

	companyID := uuid.NewString()
	company := models.Company{ID: companyID, Name: "Demo Field Services", Plan: "pro"}
	if err := db.Create(&company).Error; err != nil {
		log.Fatalf("Failed to create company: %v", err)
	}

	ownerPass, _ := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	owner := models.User{
		Email:     "owner@demo.fieldops.io",
		Password:  string(ownerPass),
		FullName:  "Dana Reyes",
		Role:      models.RoleOwner,
		CompanyID: companyID,
	}
	if err := db.Create(&owner).Error; err != nil {
		log.Fatalf("Failed to create owner: %v", err)
	}

	techs := []models.Technician{
		{ID: uuid.NewString(), CompanyID: companyID, Name: "Marcus Webb", Email: "marcus@demo.fieldops.io", Phone: "555-0101", Status: models.TechAvailable},
		{ID: uuid.NewString(), CompanyID: companyID, Name: "Priya Shah", Email: "priya@demo.fieldops.io", Phone: "555-0102", Status: models.TechAvailable},
	}
	for i := range techs {
		if err := db.Create(&techs[i]).Error; err != nil {
			log.Fatalf("Failed to create technician: %v", err)
		}
		techPass, _ := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
		techUser := models.User{
			Email:     techs[i].Email,
			Password:  string(techPass),
			FullName:  techs[i].Name,
			Role:      models.RoleTech,
			CompanyID: companyID,
		}
		if err := db.Create(&techUser).Error; err != nil {
			log.Fatalf("Failed to create technician login: %v", err)
		}
	}

	// Go through the job service so seeded jobs carry real activity logs.
	jobStore := store.NewGormJobStore(db)
	gate := &services.StaticPlanGate{Plan: services.PlanByID("enterprise")}
	jobs := services.NewJobService(jobStore, gate)
	actor := services.Actor{UID: owner.Email, Name: owner.FullName, Role: models.RoleOwner, CompanyID: companyID}

	today9 := time.Date(time.Now().Year(), time.Now().Month(), time.Now().Day(), 9, 0, 0, 0, time.Local)
	tomorrow14 := today9.AddDate(0, 0, 1).Add(5 * time.Hour)

	seedJobs := []struct {
		input  services.CreateJobInput
		status models.JobStatus
	}{
		{
			input: services.CreateJobInput{
				CustomerName: "Harold Finch", CustomerPhone: "555-0201",
				Address: "42 Library Ln", JobType: models.JobTypeRepair,
				Priority: models.PriorityHigh, Notes: "Water heater leaking into the garage",
			},
			status: models.JobStatusUnassigned,
		},
		{
			input: services.CreateJobInput{
				CustomerName: "Grace Okafor", CustomerPhone: "555-0202",
				Address: "19 Birch St", JobType: models.JobTypeMaintenance,
				Priority: models.PriorityMedium, ScheduledDateTime: &tomorrow14,
				AssignedTo: techs[0].ID, AssignedToName: techs[0].Name,
			},
			status: models.JobStatusScheduled,
		},
		{
			input: services.CreateJobInput{
				CustomerName: "Sam Altieri", CustomerPhone: "555-0203",
				Address: "7 Harbor Rd", JobType: models.JobTypeInstallation,
				Priority: models.PriorityHigh, ScheduledDateTime: &today9,
				AssignedTo: techs[1].ID, AssignedToName: techs[1].Name,
			},
			status: models.JobStatusEnRoute,
		},
		{
			input: services.CreateJobInput{
				CustomerName: "Lena Fischer", CustomerPhone: "555-0204",
				Address: "88 Summit Ave", JobType: models.JobTypeInspection,
				Priority: models.PriorityLow, ScheduledDateTime: &today9,
				AssignedTo: techs[0].ID, AssignedToName: techs[0].Name,
			},
			status: models.JobStatusInProgress,
		},
	}

	for _, sj := range seedJobs {
		job, err := jobs.CreateJob(actor, sj.input)
		if err != nil {
			log.Fatalf("Failed to seed job: %v", err)
		}
		if sj.status != job.Status {
			if err := jobs.OverrideStatus(actor, job.ID, sj.status); err != nil {
				log.Fatalf("Failed to place job in lane %s: %v", sj.status, err)
			}
		}
	}

	log.Println("✅ Demo company seeded")
	log.Println("   Owner login: owner@demo.fieldops.io / demo1234")
	log.Println("   Tech logins: marcus@demo.fieldops.io, priya@demo.fieldops.io / demo1234")
}
