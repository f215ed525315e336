package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// scenarioETag is a strong validator for projection responses, whose bytes are
// determined by the scenario and the output format.
func scenarioETag(key, format string) string {
	if format == "" {
		format = "json"
	}
	h := sha256.Sum256([]byte(format + "|" + key))
	return `"` + hex.EncodeToString(h[:12]) + `"`
}

func bodyETag(body []byte) string {
	h := sha256.Sum256(body)
	return `W/"` + hex.EncodeToString(h[:8]) + `"`
}

// etagMatches applies the weak comparison If-None-Match uses.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

// notModified sets the scenario ETag on a projection response and reports
// whether the client already holds it, so the handler can skip the pipeline.
func notModified(c *fiber.Ctx) bool {
	key, format, ok := boundScenario(c)
	if !ok {
		return false
	}
	etag := scenarioETag(key, format)
	c.Set(fiber.HeaderETag, etag)
	return etagMatches(c.Get(fiber.HeaderIfNoneMatch), etag)
}

// ETagMiddleware tags successful GET responses. Projection handlers set their
// own strong tag via notModified; other routes get a weak tag from the body and
// a 304 when the client's copy matches. Failed responses carry no tag.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status != fiber.StatusOK && status != fiber.StatusNotModified {
			c.Response().Header.Del(fiber.HeaderETag)
			return nil
		}
		if c.Method() != fiber.MethodGet || status != fiber.StatusOK {
			return nil
		}
		if len(c.Response().Header.Peek(fiber.HeaderETag)) > 0 {
			return nil
		}

		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		etag := bodyETag(body)
		c.Set(fiber.HeaderETag, etag)
		if etagMatches(c.Get(fiber.HeaderIfNoneMatch), etag) {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}
