package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/edusphere-dev/groupwork-api/internal/config"
	"github.com/edusphere-dev/groupwork-api/internal/handler"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TaskHandler   *handler.TaskHandler
	FreezeHandler *handler.FreezeHandler
	JWTMiddleware fiber.Handler
	LeaderGuard   fiber.Handler
	RateLimiter   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	coursework := app.Group("/api/v2/coursework", jwtMiddleware)
	if deps.RateLimiter != nil {
		coursework.Use(deps.RateLimiter)
	}

	if deps.TaskHandler != nil {
		deps.TaskHandler.Register(coursework)
	}

	// Freeze endpoints are leader-only; the guard is optional so tests can
	// exercise the handler without a full auth stack.
	if deps.FreezeHandler != nil {
		frozen := coursework.Group("")
		if deps.LeaderGuard != nil {
			frozen.Use(deps.LeaderGuard)
		}
		deps.FreezeHandler.Register(frozen)
	}
}
