// Package routes defines the API routing configuration.
// It wires repositories, services and handlers together and groups
// routes by the permission they require.
package routes

import (
	"schoolops/internal/handlers"
	"schoolops/internal/middleware"
	"schoolops/internal/models"
	"schoolops/internal/repositories"
	"schoolops/internal/services/alert"
	"schoolops/internal/services/attendance"
	"schoolops/internal/services/facematch"
	"schoolops/internal/services/ledger"
	"schoolops/internal/services/report"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Repositories
	attendanceRepo := repositories.NewAttendanceRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	directory := repositories.NewDirectory(db)

	// Services
	publisher := alert.NewRedisPublisher(repositories.CacheService)
	attendanceService := attendance.NewService(attendanceRepo, directory, publisher)
	ledgerService := ledger.NewService(ledgerRepo, directory, repositories.CacheService, publisher)
	reportService := report.NewService(reportRepo)
	matcher := &facematch.HeuristicMatcher{}

	// Handlers
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService, matcher)
	walletHandler := handlers.NewWalletHandler(ledgerService)
	reportHandler := handlers.NewReportHandler(reportService)
	webhookHandler := handlers.NewWebhookHandler(ledgerService)

	// Public
	app.Get("/health", handlers.HealthCheck)
	app.Get("/health/cache", handlers.CacheStats)
	app.Post("/webhooks/payment", webhookHandler.HandlePayment)

	// Kiosk devices authenticate by API key, not JWT
	device := app.Group("/device", middleware.DeviceAuth)
	device.Post("/attendance/face", attendanceHandler.MarkByFace)

	api := app.Group("/api", middleware.Auth)

	attendanceGroup := api.Group("/attendance")
	attendanceGroup.Post("/mark",
		middleware.RequirePermission(models.PermissionAttendanceWrite),
		attendanceHandler.Mark)
	attendanceGroup.Get("/day/:studentID",
		middleware.RequirePermission(models.PermissionAttendanceRead),
		attendanceHandler.GetDay)
	attendanceGroup.Get("/events/:studentID",
		middleware.RequirePermission(models.PermissionAttendanceRead),
		attendanceHandler.GetEvents)
	attendanceGroup.Get("/alerts",
		middleware.RequirePermission(models.PermissionAttendanceRead),
		attendanceHandler.GetAlerts)

	walletGroup := api.Group("/wallet")
	walletGroup.Post("/add-money",
		middleware.RequirePermission(models.PermissionWalletWrite),
		walletHandler.AddMoney)
	walletGroup.Post("/pay-fee",
		middleware.RequirePermission(models.PermissionWalletWrite),
		walletHandler.PayFee)
	walletGroup.Post("/assign-fee",
		middleware.RequirePermission(models.PermissionFeeAssign),
		walletHandler.AssignFee)
	walletGroup.Get("/balance/:accountID",
		middleware.RequirePermission(models.PermissionWalletRead),
		walletHandler.GetBalance)
	walletGroup.Get("/history/:accountID",
		middleware.RequirePermission(models.PermissionWalletRead),
		walletHandler.GetHistory)
	walletGroup.Get("/reconcile/:accountID",
		middleware.RequirePermission(models.PermissionReportRead),
		walletHandler.Reconcile)
	walletGroup.Post("/expense",
		middleware.RequirePermission(models.PermissionExpenseWrite),
		walletHandler.RecordExpense)

	reportGroup := api.Group("/reports", middleware.RequirePermission(models.PermissionReportRead))
	reportGroup.Get("/attendance/monthly", reportHandler.MonthlyAttendance)
	reportGroup.Get("/attendance/daily", reportHandler.DailyAttendance)
	reportGroup.Get("/income", reportHandler.IncomeSummary)
}
