package routes

import (
	"tektongeo/backend/config"
	"tektongeo/backend/controllers"
	"tektongeo/backend/middleware"
	"tektongeo/backend/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	pol := policy.New(cfg.SuperAdminEmail)

	protected := middleware.Protected(db, cfg, logger)
	adminOnly := middleware.RequireRoles(pol, logger, policy.RoleAdmin)
	markerEditors := middleware.RequireRoles(pol, logger, policy.MarkerEditors...)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, pol, logger)
	app.Post("/api/signup", authController.Signup)
	app.Post("/api/login", authController.Login)
	app.Post("/api/logout", protected, authController.Logout)

	// Profile routes
	profileController := controllers.NewProfileController(db, cfg)
	app.Get("/api/profile", protected, profileController.GetProfile)
	app.Put("/api/profile", protected, profileController.UpdateProfile)

	// Marker routes: any authenticated user may view, only encoders and
	// admins may mutate.
	markerController := controllers.NewMarkerController(db, cfg, logger)
	markers := app.Group("/api/markers", protected)
	markers.Get("/", markerController.ListMarkers)
	markers.Get("/:id", markerController.GetMarker)
	markers.Post("/", markerEditors, markerController.SubmitSurvey)
	markers.Put("/:id", markerEditors, markerController.UpdateMarker)
	markers.Delete("/:id", markerEditors, markerController.DeleteMarker)

	// Admin user management
	adminController := controllers.NewAdminController(db, cfg, pol, logger)
	admin := app.Group("/api/admin", protected, adminOnly)
	admin.Get("/users", adminController.ListUsers)
	admin.Put("/users/:id", adminController.UpdateUser)
	admin.Put("/users/:id/role", adminController.SetRole)
	admin.Put("/users/:id/toggle-status", adminController.ToggleStatus)
	admin.Delete("/users/:id", adminController.DeleteUser)

	// Activity log: any authenticated user writes, admins read.
	activityController := controllers.NewActivityController(db, logger)
	app.Post("/api/activity-log", protected, activityController.Record)
	app.Get("/api/activity-log", protected, adminOnly, activityController.Query)

	// System info telemetry (admin-tier clients only)
	systemInfoController := controllers.NewSystemInfoController(db, logger)
	app.Post("/api/system-info", protected, adminOnly, systemInfoController.Report)
	app.Get("/api/system-info/analytics", protected, adminOnly, systemInfoController.Analytics)
}
