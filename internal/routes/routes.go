package routes

import (
	"os"

	"github.com/fieldops/backend/internal/controllers"
	"github.com/fieldops/backend/internal/middleware"
	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/services"
	"github.com/fieldops/backend/internal/store"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	// Stores and services
	jobStore := store.NewGormJobStore(db)
	timerStore := store.NewGormTimerStore(db)

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	blobs := services.NewDiskStorage(uploadDir, "/uploads")

	gate := services.NewDBPlanGate(db)
	jobService := services.NewJobService(jobStore, gate)
	timerService := services.NewTimerService(timerStore)
	techService := services.NewTechService(jobStore, timerService, blobs)
	reportService := services.NewReportService(jobStore)

	// Controllers
	authController := controllers.NewAuthController(db)
	jobController := controllers.NewJobController(db, jobService)
	boardController := controllers.NewBoardController(jobStore, jobService)
	techController := controllers.NewTechController(techService)
	technicianController := controllers.NewTechnicianController(db, gate)
	reportsController := controllers.NewReportsController(reportService)

	// Uploaded photos and signatures are served straight off disk.
	r.Static("/uploads", uploadDir)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
			auth.POST("/tech-login", authController.TechLogin)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			// Dispatcher routes
			owner := protected.Group("/")
			owner.Use(middleware.RequireRole(models.RoleOwner))
			{
				jobs := owner.Group("/jobs")
				{
					jobs.POST("", jobController.CreateJob)
					jobs.GET("", jobController.GetJobs)
					jobs.GET("/:id", jobController.GetJob)
					jobs.PUT("/:id", jobController.UpdateJob)
					jobs.DELETE("/:id", jobController.DeleteJob)
					jobs.POST("/:id/move", boardController.MoveJob)
				}

				board := owner.Group("/board")
				{
					board.GET("", boardController.GetBoard)
					board.GET("/stream", boardController.StreamBoard)
				}

				technicians := owner.Group("/technicians")
				{
					technicians.GET("", technicianController.GetTechnicians)
					technicians.POST("", technicianController.CreateTechnician)
					technicians.PUT("/:id", technicianController.UpdateTechnician)
					technicians.DELETE("/:id", technicianController.DeleteTechnician)
				}

				reports := owner.Group("/reports")
				{
					reports.GET("/summary", reportsController.GetSummary)
				}
			}

			// Technician portal routes
			tech := protected.Group("/tech")
			tech.Use(middleware.RequireRole(models.RoleTech))
			{
				tech.GET("/jobs", techController.GetMyJobs)
				tech.GET("/jobs/:id", techController.GetJob)
				tech.POST("/jobs/:id/status", techController.UpdateStatus)
				tech.POST("/jobs/:id/photos", techController.UploadPhoto)
				tech.POST("/jobs/:id/signature", techController.UploadSignature)
				tech.PUT("/jobs/:id/notes", techController.UpdateNotes)
				tech.POST("/jobs/:id/timer/start", techController.StartTimer)
				tech.POST("/jobs/:id/timer/pause", techController.PauseTimer)
				tech.POST("/jobs/:id/timer/reset", techController.ResetTimer)
				tech.GET("/jobs/:id/timer", techController.GetTimer)
			}
		}
	}
}
