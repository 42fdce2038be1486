package http

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// MiddlewareConfig controls the global middleware chain.
type MiddlewareConfig struct {
	Timeout time.Duration
	CORS    config.CORSConfig
}

// RegisterMiddlewares attaches global middlewares such as error handling, logging and CORS.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, cfg MiddlewareConfig) {
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigin,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(originGuard(cfg.CORS))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// originGuard rejects browser requests from foreign origins. Requests with no
// Origin header pass only when the server allows them; probes are exempt.
func originGuard(cfg config.CORSConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if exemptFromOriginCheck(c.Path()) {
			return c.Next()
		}
		origin := c.Get(fiber.HeaderOrigin)
		switch {
		case origin == "" && cfg.AllowNoOrigin:
			return c.Next()
		case origin == "":
			return apperrors.NewForbidden("origin not allowed")
		case !strings.EqualFold(strings.TrimRight(origin, "/"), cfg.AllowedOrigin):
			return apperrors.NewForbidden("origin not allowed")
		}
		return c.Next()
	}
}

func exemptFromOriginCheck(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health/")
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
				route := c.Path()
				if r := c.Route(); r != nil && r.Path != "" {
					route = r.Path
				}
				metrics.RecordError(route, c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("method", c.Method()),
						zap.String("path", c.Path()),
						zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(fiber.Map{
					"response": "error",
					"message":  domainErr.Message,
				})
				err = nil
			}
		}()
		return c.Next()
	}
}
