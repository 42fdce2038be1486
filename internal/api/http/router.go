package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api/v1")
	protect := cfg.AuthMiddleware.Handle

	users := api.Group("/users")
	users.Post("/", cfg.Users.Register)
	users.Post("/confirm-account", cfg.Users.ConfirmAccount)
	users.Post("/login", cfg.Users.Login)
	users.Get("/session/session-user", protect, cfg.Users.SessionUser)
	users.Get("/", protect, cfg.Users.List)
	users.Get("/:id", protect, cfg.Users.Get)
	users.Put("/:id", protect, cfg.Users.Update)
	users.Delete("/:id", protect, cfg.Users.Delete)
	users.Put("/:id/avatar", protect, cfg.Users.UploadAvatar)

	tickets := api.Group("/tickets", protect)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Post("/get-all", cfg.Tickets.List)
	tickets.Get("/count/total", cfg.Tickets.Count)
	tickets.Put("/assign/:id", cfg.Tickets.Assign)
	tickets.Put("/in-process/:id", cfg.Tickets.InProcess)
	tickets.Put("/close-ticket/:id", cfg.Tickets.Close)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
}
