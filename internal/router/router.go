package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/olympiad-api/internal/config"
	"github.com/noah-isme/olympiad-api/internal/handler"
	"github.com/noah-isme/olympiad-api/internal/middleware"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler     *handler.StudentHandler
	AdminHandler       *handler.AdminHandler
	SchoolHandler      *handler.SchoolHandler
	CoordinatorHandler *handler.CoordinatorHandler
	PaymentHandler     *handler.PaymentHandler
	HealthProbes       []handler.HealthProbe
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	loginLimit := func(identifier string) fiber.Handler {
		return middleware.RateLimit(identifier, cfg.LoginRateLimit, time.Minute)
	}

	if deps.StudentHandler != nil {
		students := app.Group("/api/gio")
		students.Use("/login", loginLimit("student-login"))
		students.Use("/request-callback", middleware.RateLimit("callback", cfg.CallbackRateLimit, time.Minute))
		deps.StudentHandler.Register(students, jwtMiddleware)
	}

	if deps.AdminHandler != nil {
		admin := app.Group("/api/admin")
		admin.Use("/login", loginLimit("admin-login"))
		deps.AdminHandler.Register(admin, jwtMiddleware)
	}

	if deps.SchoolHandler != nil {
		schools := app.Group("/api/school")
		schools.Use("/login", loginLimit("school-login"))
		deps.SchoolHandler.Register(schools, jwtMiddleware)
	}

	if deps.CoordinatorHandler != nil {
		coordinators := app.Group("/api/coordinator")
		coordinators.Use("/login", loginLimit("coordinator-login"))
		deps.CoordinatorHandler.Register(coordinators, jwtMiddleware)
	}

	if deps.PaymentHandler != nil {
		payments := app.Group("/api/payment", jwtMiddleware,
			middleware.RequireRole(models.RoleStudent, models.RoleSchool, models.RoleCoordinator, models.RoleAdmin))
		deps.PaymentHandler.Register(payments)
	}
}
