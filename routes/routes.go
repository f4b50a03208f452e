package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskflow/controllers"
	"taskflow/middleware"
	"taskflow/realtime"
	"taskflow/services"
	"taskflow/utils"
)

// SetupRoutes wires services, controllers and route groups onto the app.
func SetupRoutes(app *fiber.App, db *gorm.DB, hub *realtime.Hub, log *logrus.Logger) {
	activityService := services.NewActivityService(db, log)
	taskService := services.NewTaskService(db, activityService, hub, log)
	teamService := services.NewTeamService(db, activityService, hub, log)
	userService := services.NewUserService(db, log)
	analyticsService := services.NewAnalyticsService(db, activityService, log)

	authController := controllers.NewAuthController(userService)
	taskController := controllers.NewTaskController(taskService)
	teamController := controllers.NewTeamController(teamService)
	userController := controllers.NewUserController(userService)
	analyticsController := controllers.NewAnalyticsController(analyticsService)
	realtimeController := controllers.NewRealtimeController(hub)

	requestLogger := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	// Public auth endpoints (no authentication required)
	auth := app.Group("/api/auth", requestLogger)
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Get("/me", middleware.Protected(), authController.GetCurrentUser)

	// Protected API group
	api := app.Group("/api", middleware.Protected(), requestLogger)

	tasks := api.Group("/tasks")
	tasks.Get("/stats/overview", taskController.Stats)
	tasks.Get("/", taskController.List)
	tasks.Post("/", taskController.Create)
	tasks.Get("/:id", taskController.Get)
	tasks.Put("/:id", taskController.Update)
	tasks.Delete("/:id", taskController.Delete)

	teams := api.Group("/teams")
	teams.Get("/", teamController.List)
	teams.Post("/", teamController.Create)
	teams.Get("/:id", teamController.Get)
	teams.Put("/:id", teamController.Update)
	teams.Delete("/:id", teamController.Delete)
	teams.Post("/:id/members", teamController.AddMember)
	teams.Delete("/:id/members/:userId", teamController.RemoveMember)

	users := api.Group("/users")
	users.Get("/", userController.List)
	users.Get("/:id", userController.Get)
	users.Put("/:id", userController.Update)
	users.Delete("/:id", userController.Delete)

	analytics := api.Group("/analytics")
	analytics.Get("/dashboard", analyticsController.Dashboard)
	analytics.Get("/tasks/trends", analyticsController.TaskTrends)
	analytics.Get("/teams/performance", analyticsController.TeamPerformance)
	analytics.Get("/users/productivity", analyticsController.UserProductivity)
	analytics.Get("/tasks/priority-distribution", analyticsController.PriorityDistribution)
	analytics.Get("/tasks/overdue", analyticsController.OverdueTasks)
	analytics.Get("/activity/summary", analyticsController.ActivitySummary)

	// Websocket endpoint, authenticated the same way as the API
	app.Get("/ws", middleware.Protected(), websocket.New(realtimeController.HandleConnection))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	// Catch-all for unknown routes
	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Route not found")
	})
}
