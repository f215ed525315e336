package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const readyTimeout = 3 * time.Second

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// readyCheck is one readiness check. A nil check means the service is not configured.
type readyCheck struct {
	name     string
	required bool
	check    func(ctx context.Context) error
}

func readinessChecks(deps *Dependencies) []readyCheck {
	checks := []readyCheck{{name: "projection", required: true}}
	if deps.Projections != nil {
		checks[0].check = func(context.Context) error {
			if len(deps.Projections.Formats()) == 0 {
				return errors.New("no renderers registered")
			}
			return nil
		}
	}

	var db, cache, bus readyCheck
	db.name, cache.name, bus.name = "database", "cache", "nats"
	if deps.DB != nil {
		db.check = deps.DB.Ping
	}
	if deps.Cache != nil {
		cache.check = deps.Cache.Ping
	}
	if deps.NATS != nil {
		bus.check = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	}
	return append(checks, db, cache, bus)
}

// ReadyHandler runs the checks concurrently. Optional services that are not
// configured do not fail readiness; configured but unreachable ones do.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			checks = make(map[string]string)
			ready  = true
		)
		report := func(name, result string, ok bool) {
			mu.Lock()
			defer mu.Unlock()
			checks[name] = result
			ready = ready && ok
		}

		var g errgroup.Group
		for _, p := range readinessChecks(deps) {
			if p.check == nil {
				report(p.name, "not configured", !p.required)
				continue
			}
			g.Go(func() error {
				if err := p.check(ctx); err != nil {
					report(p.name, "error: "+err.Error(), false)
				} else {
					report(p.name, "ok", true)
				}
				return nil
			})
		}
		_ = g.Wait()

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
