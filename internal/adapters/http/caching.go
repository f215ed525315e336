package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheRule maps a path to a Cache-Control value. The first matching rule wins.
type cacheRule struct {
	match   func(path string) bool
	control string
}

func exact(paths ...string) func(string) bool {
	return func(p string) bool {
		for _, want := range paths {
			if p == want {
				return true
			}
		}
		return false
	}
}

func prefix(pre string) func(string) bool {
	return func(p string) bool { return strings.HasPrefix(p, pre) }
}

var cacheRules = []cacheRule{
	{exact("/v1/health", "/v1/ready"), "public, max-age=10"},
	{exact("/metrics", "/v1/renders"), "no-cache"},
	{exact("/graphql"), "private, max-age=0"},
	// Projection bytes are a function of the query alone.
	{prefix("/v1/projection"), "public, max-age=3600, immutable"},
	{exact("/v1/pole", "/v1/formats"), "public, max-age=3600"},
	{prefix("/v1/"), "public, max-age=300"},
}

func cacheControlFor(path string) string {
	for _, r := range cacheRules {
		if r.match(path) {
			return r.control
		}
	}
	return ""
}

// CachingMiddleware sets Cache-Control on successful and not-modified GET
// responses that the handler left untagged.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet {
			return err
		}
		if status := c.Response().StatusCode(); status != fiber.StatusOK && status != fiber.StatusNotModified {
			return err
		}
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}
		if control := cacheControlFor(c.Path()); control != "" {
			c.Set(fiber.HeaderCacheControl, control)
		}
		return err
	}
}
