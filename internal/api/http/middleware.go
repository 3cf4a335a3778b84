package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/member-auth/internal/auth"
	"github.com/spec-kit/member-auth/internal/observability"
	"github.com/spec-kit/member-auth/internal/ratelimit"
	apperrors "github.com/spec-kit/member-auth/pkg/util/errorutil"
)

// MiddlewareConfig bundles dependencies for the global middleware chain.
type MiddlewareConfig struct {
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Timeout        time.Duration
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterMiddlewares attaches global middlewares. The request logger wraps
// error rendering so it sees the final status, and authentication runs last
// so every handler receives an authentication context.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(requestIDMiddleware())
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	if cfg.AuthMiddleware != nil {
		app.Use(cfg.AuthMiddleware.Handle)
	}
}

func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(fiber.HeaderXRequestID)
		if rid == "" {
			if id, err := uuid.NewV7(); err == nil {
				rid = id.String()
			} else {
				rid = uuid.NewString()
			}
		}
		c.Locals(observability.RequestIDKey, rid)
		c.Set(fiber.HeaderXRequestID, rid)
		return c.Next()
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// rateLimitMiddleware throttles callers per client IP.
func rateLimitMiddleware(limiter *ratelimit.KeyedLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter != nil && !limiter.Allow(c.IP()) {
			return apperrors.NewTooManyRequests("rate limit exceeded")
		}
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}
