package FiberConfig

import (
	"fmt"

	"Denta/Controllers"
	"Denta/Models"
	"Denta/TaskAI"
	"Denta/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	taskController := Controllers.NewTaskController(db)
	assistantController := Controllers.NewAssistantController(db)
	certificationController := Controllers.NewCertificationController(db)
	feedbackController := Controllers.NewFeedbackController(db)
	scheduleController := Controllers.NewScheduleController(db)
	analyticsController := Controllers.NewAnalyticsController(db)
	reportController := Controllers.NewReportController(db)
	invitationController := Controllers.NewInvitationController(db)
	settingsController := Controllers.NewSettingsController(db)

	// API group
	api := app.Group("/api")

	// Task routes
	tasks := api.Group("/tasks", middleware.Verify(Models.PermissionAssistant))
	tasks.Get("/", taskController.GetTasks)
	tasks.Get("/agenda", taskController.GetAgenda)
	tasks.Post("/", middleware.Verify(Models.PermissionFrontDesk), taskController.CreateTask)
	tasks.Get("/:id", taskController.GetTask)
	tasks.Put("/:id", middleware.Verify(Models.PermissionFrontDesk), taskController.UpdateTask)
	tasks.Delete("/:id", middleware.Verify(Models.PermissionAdmin), taskController.DeleteTask)

	// Task lifecycle
	tasks.Post("/:id/claim", taskController.ClaimTask)
	tasks.Post("/:id/start", taskController.StartTask)
	tasks.Post("/:id/complete", taskController.CompleteTask)
	tasks.Post("/:id/reopen", taskController.ReopenTask)
	tasks.Post("/:id/return", taskController.ReturnTask)
	tasks.Patch("/:id/checklist/:itemId", taskController.ToggleChecklistItem)

	// Assistant routes
	assistants := api.Group("/assistants", middleware.Verify(Models.PermissionAssistant))
	assistants.Get("/", assistantController.GetAssistants)
	assistants.Get("/:id", assistantController.GetAssistant)
	assistants.Post("/", middleware.Verify(Models.PermissionAdmin), assistantController.CreateAssistant)
	assistants.Put("/:id", middleware.Verify(Models.PermissionAdmin), assistantController.UpdateAssistant)
	assistants.Delete("/:id", middleware.Verify(Models.PermissionAdmin), assistantController.DeleteAssistant)

	// Certification routes - place /expiring BEFORE the ID route to avoid conflicts
	certifications := api.Group("/certifications", middleware.Verify(Models.PermissionAssistant))
	certifications.Get("/", certificationController.GetCertifications)
	certifications.Get("/expiring", certificationController.GetExpiring)
	certifications.Post("/", middleware.Verify(Models.PermissionAdmin), certificationController.CreateCertification)
	certifications.Put("/:id", middleware.Verify(Models.PermissionAdmin), certificationController.UpdateCertification)
	certifications.Delete("/:id", middleware.Verify(Models.PermissionAdmin), certificationController.DeleteCertification)

	// Feedback routes
	feedback := api.Group("/feedback", middleware.Verify(Models.PermissionAdmin))
	feedback.Get("/", feedbackController.GetFeedback)
	feedback.Get("/summary", feedbackController.GetFeedbackSummary)
	feedback.Post("/", feedbackController.CreateFeedback)
	feedback.Delete("/:id", feedbackController.DeleteFeedback)

	// Schedule routes
	shifts := api.Group("/shifts", middleware.Verify(Models.PermissionAssistant))
	shifts.Get("/", scheduleController.GetShifts)
	shifts.Post("/", middleware.Verify(Models.PermissionFrontDesk), scheduleController.CreateShift)
	shifts.Put("/:id", middleware.Verify(Models.PermissionFrontDesk), scheduleController.UpdateShift)
	shifts.Delete("/:id", middleware.Verify(Models.PermissionFrontDesk), scheduleController.DeleteShift)

	// Analytics routes
	analytics := api.Group("/analytics", middleware.Verify(Models.PermissionAdmin))
	analytics.Get("/summary", analyticsController.Summary)
	analytics.Get("/weekly-trend", analyticsController.WeeklyTrend)
	analytics.Get("/leaderboard", analyticsController.AssistantLeaderboard)
	analytics.Get("/categories", analyticsController.CategoryBreakdown)
	analytics.Get("/recent-activity", analyticsController.RecentActivity)

	// Report routes
	api.Get("/reports/tasks", middleware.Verify(Models.PermissionAdmin), reportController.ExportTasks)

	// Invitation routes - accept is public, the invitee has no account yet
	api.Post("/invitations/accept", invitationController.AcceptInvitation)
	invitations := api.Group("/invitations", middleware.Verify(Models.PermissionOwner))
	invitations.Get("/", invitationController.GetInvitations)
	invitations.Post("/", invitationController.CreateInvitation)
	invitations.Delete("/:id", invitationController.DeleteInvitation)

	// Clinic settings
	api.Get("/settings", middleware.Verify(Models.PermissionAssistant), settingsController.GetSettings)
	api.Put("/settings", middleware.Verify(Models.PermissionAdmin), settingsController.UpdateSettings)

	// AI task suggestions
	api.Post("/tasks/suggest", middleware.Verify(Models.PermissionFrontDesk), TaskAI.SuggestTasksHandler)

	app.Post("/api/UpdateToken", Models.UpdateToken)
}

func FiberConfig() {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*", // Allow all origins
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	SetupRoutes(app, Models.DB)
	app.Post("/api/RegisterUser", middleware.Verify(Models.PermissionOwner), Controllers.RegisterUser)
	app.Patch("/api/UpdateUser", middleware.Verify(Models.PermissionOwner), Controllers.UpdateUser)
	app.Get("/api/FetchUsers", middleware.Verify(Models.PermissionOwner), Controllers.FetchUsers)
	app.Delete("/api/DeleteUser", middleware.Verify(Models.PermissionOwner), Controllers.DeleteUser)
	app.Post("/api/Login", Controllers.Login)
	app.Get("/api/validate-token", Controllers.ValidateToken)
	app.Use("/api/User", Controllers.User)
	app.Use("/api/Logout", Controllers.Logout)

	// Logs API routes
	app.Get("/api/logs", middleware.Verify(Models.PermissionOwner), Controllers.GetLogs)
	app.Get("/api/logs/stats", middleware.Verify(Models.PermissionOwner), Controllers.GetLogStats)

	err := app.Listen(":3001")
	if err != nil {
		fmt.Println(err.Error())
	}
}
