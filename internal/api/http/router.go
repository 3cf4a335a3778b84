package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/member-auth/internal/api/http/handlers"
	"github.com/spec-kit/member-auth/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Sign       *handlers.SignHandler
	Members    *handlers.MembersHandler
	Exceptions *handlers.ExceptionHandler
	// SignLimiter throttles the sign and refresh endpoints per client IP.
	SignLimiter *ratelimit.KeyedLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	throttled := rateLimitMiddleware(cfg.SignLimiter)
	api.Post("/sign-up", throttled, cfg.Sign.SignUp)
	api.Post("/sign-in", throttled, cfg.Sign.SignIn)
	api.Post("/refresh-token", throttled, cfg.Sign.RefreshToken)

	api.Get("/members/:id", cfg.Members.Read)
	api.Delete("/members/:id", cfg.Members.Delete)

	exception := app.Group("/exception")
	exception.Get("/entry-point", cfg.Exceptions.EntryPoint)
	exception.Get("/access-denied", cfg.Exceptions.AccessDenied)
}
