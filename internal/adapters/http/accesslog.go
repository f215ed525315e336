package http

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AccessLogMiddleware writes one structured line per request through the
// request logger. Projection routes also log the scenario key, the render
// format and how many mesh points could not be projected.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}

		if key, format, ok := boundScenario(c); ok {
			attrs = append(attrs, slog.String("scenario", key))
			if format != "" {
				attrs = append(attrs, slog.String("format", format))
			}
		}
		if raw := c.Response().Header.Peek("X-Invalid-Points"); len(raw) > 0 {
			if n, convErr := strconv.Atoi(string(raw)); convErr == nil {
				attrs = append(attrs, slog.Int("invalid_points", n))
			}
		}

		level := slog.LevelInfo
		switch {
		case err != nil:
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		LoggerFromCtx(c.UserContext()).LogAttrs(c.UserContext(), level, method+" "+path, attrs...)
		return err
	}
}
