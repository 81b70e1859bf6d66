package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/tutela-go-api/internal/config"
	"github.com/noah-isme/tutela-go-api/internal/handler"
	"github.com/noah-isme/tutela-go-api/internal/middleware"
	"github.com/noah-isme/tutela-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EntityHandler       *handler.EntityHandler
	InviteHandler       *handler.InviteHandler
	RegistrationHandler *handler.RegistrationHandler
	QuizHandler         *handler.QuizHandler
	ComplianceHandler   *handler.ComplianceHandler
	CertificateHandler  *handler.CertificateHandler
	NotificationHandler *handler.NotificationHandler
	BatchHandler        *handler.BatchHandler
	SeedHandler         *handler.SeedHandler
	JWTMiddleware       fiber.Handler
	SchedulerMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided guards, or no-ops if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	schedulerMiddleware := deps.SchedulerMiddleware
	if schedulerMiddleware == nil {
		schedulerMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public invitation-driven surface
	if deps.InviteHandler != nil {
		invites := api.Group("/invites", middleware.RateLimit("invites", 30, time.Minute))
		deps.InviteHandler.RegisterPublic(invites)
	}
	if deps.RegistrationHandler != nil {
		registrations := api.Group("/registrations", middleware.RateLimit("registrations", 20, time.Minute))
		deps.RegistrationHandler.Register(registrations)
	}
	if deps.QuizHandler != nil {
		quiz := api.Group("/quiz")
		deps.QuizHandler.Register(quiz)
	}
	if deps.CertificateHandler != nil {
		persons := api.Group("/persons")
		deps.CertificateHandler.Register(persons)
	}

	// Operator surface
	admin := app.Group("/api/admin", jwtMiddleware)
	if deps.EntityHandler != nil {
		entities := admin.Group("/entities")
		deps.EntityHandler.Register(entities)
		if deps.ComplianceHandler != nil {
			deps.ComplianceHandler.Register(entities)
		}
	}
	if deps.InviteHandler != nil {
		deps.InviteHandler.RegisterAdmin(admin.Group("/invites"))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(admin.Group("/notifications"))
	}

	// Internal scheduler surface
	if deps.BatchHandler != nil {
		batch := app.Group("/api/internal/batch", schedulerMiddleware)
		deps.BatchHandler.Register(batch)
	}
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(app.Group("/api/internal/seed"))
	}
}
