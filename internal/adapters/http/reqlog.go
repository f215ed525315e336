package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
	"github.com/samirrijal/obliquemerc/internal/pkg/logging"
)

// Locals set by projection handlers and read by the ETag and access log middleware.
const (
	localRequestID = "requestid"
	localScenario  = "scenario_key"
	localFormat    = "render_format"
)

// RequestIDLogMiddleware puts a logger tagged with the request ID into the
// user context so the service layer logs under the same ID.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, _ := c.Locals(localRequestID).(string)
		if rid == "" {
			return c.Next()
		}
		withLogger(c, slog.Default().With("request_id", rid))
		return c.Next()
	}
}

// LoggerFromCtx returns the request logger, or the default logger outside a request.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

func withLogger(c *fiber.Ctx, l *slog.Logger) {
	c.SetUserContext(logging.WithContext(c.UserContext(), l))
}

// bindScenario records the scenario a projection request resolved to. format
// is empty for the JSON projection endpoint.
func bindScenario(c *fiber.Ctx, sc domain.Scenario, format domain.Format) {
	c.Locals(localScenario, sc.Key())
	if format != "" {
		c.Locals(localFormat, string(format))
	}
}

// boundScenario returns the scenario key recorded by bindScenario, if any.
func boundScenario(c *fiber.Ctx) (key, format string, ok bool) {
	key, ok = c.Locals(localScenario).(string)
	format, _ = c.Locals(localFormat).(string)
	return key, format, ok
}
