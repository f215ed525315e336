package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
	"github.com/samirrijal/obliquemerc/internal/pkg/geospatial"
)

// PoleResponse is returned by the pole endpoint.
type PoleResponse struct {
	First     domain.GeoPoint `json:"first"`
	Second    domain.GeoPoint `json:"second"`
	Pole      domain.Pole     `json:"pole"`
	Undefined bool            `json:"undefined"`
	// ArcDegrees is the great-circle distance between the reference points.
	ArcDegrees float64 `json:"arc_deg"`
}

// queryFloat reads an optional float query parameter. Unlike c.QueryFloat it
// reports malformed values instead of silently using the default.
func queryFloat(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	return v, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return v, nil
}

// parseReference reads lat1, lon1, lat2, lon2 over the given defaults.
func parseReference(c *fiber.Ctx, def domain.ReferencePair) (domain.ReferencePair, error) {
	ref := def
	fields := []struct {
		key string
		dst *float64
	}{
		{"lat1", &ref.First.Lat},
		{"lon1", &ref.First.Lon},
		{"lat2", &ref.Second.Lat},
		{"lon2", &ref.Second.Lon},
	}
	for _, f := range fields {
		v, err := queryFloat(c, f.key, *f.dst)
		if err != nil {
			return ref, err
		}
		*f.dst = v
	}
	return ref, nil
}

// parseScenario reads a scenario from the query string over the given defaults.
func parseScenario(c *fiber.Ctx, def domain.Scenario) (domain.Scenario, error) {
	sc := def
	ref, err := parseReference(c, def.Reference)
	if err != nil {
		return sc, err
	}
	sc.Reference = ref

	ranges := []struct {
		key string
		dst *float64
	}{
		{"lat_min", &sc.LatRange.Min},
		{"lat_max", &sc.LatRange.Max},
		{"lon_min", &sc.LonRange.Min},
		{"lon_max", &sc.LonRange.Max},
	}
	for _, f := range ranges {
		v, err := queryFloat(c, f.key, *f.dst)
		if err != nil {
			return sc, err
		}
		*f.dst = v
	}

	if sc.LatSamples, err = queryInt(c, "lat_samples", sc.LatSamples); err != nil {
		return sc, err
	}
	if sc.LonSamples, err = queryInt(c, "lon_samples", sc.LonSamples); err != nil {
		return sc, err
	}
	return sc, nil
}

// PoleHandler solves the pole of the great circle through two reference points.
func PoleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ref, err := parseReference(c, deps.Defaults.Reference)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		pole, err := deps.Projections.Pole(c.UserContext(), ref)
		if err != nil {
			return errFromService(c, err)
		}

		return c.JSON(PoleResponse{
			First:      ref.First,
			Second:     ref.Second,
			Pole:       pole,
			Undefined:  geospatial.IsUndefined(pole),
			ArcDegrees: geospatial.CentralAngle(ref.First, ref.Second),
		})
	}
}

// ProjectionHandler returns the rotated grid and the projected mesh as JSON.
func ProjectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := parseScenario(c, deps.Defaults)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		bindScenario(c, sc, "")
		if notModified(c) {
			return c.SendStatus(fiber.StatusNotModified)
		}

		p, err := deps.Projections.Project(c.UserContext(), sc)
		if err != nil {
			return errFromService(c, err)
		}

		c.Set("X-Invalid-Points", strconv.Itoa(p.Invalid))
		return c.JSON(p)
	}
}

// RenderHandler returns the projected mesh rendered in the given format.
func RenderHandler(deps *Dependencies, format domain.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := parseScenario(c, deps.Defaults)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		bindScenario(c, sc, format)
		if notModified(c) {
			return c.SendStatus(fiber.StatusNotModified)
		}

		data, err := deps.Projections.Render(c.UserContext(), sc, format)
		if err != nil {
			return errFromService(c, err)
		}

		c.Set("Content-Type", format.ContentType())
		return c.Send(data)
	}
}

// HistoryHandler lists recent renders, newest first.
func HistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !deps.Projections.HasHistory() {
			return errUnavailable(c, "render history is not enabled")
		}

		page, err := pageFromQuery(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		records, total, err := deps.Projections.History(c.UserContext(), page.Offset, page.Limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if records == nil {
			records = []domain.RenderRecord{}
		}

		pg := newPagination(page, total)
		SetLinkHeaders(c, pg)
		return c.JSON(RenderPage{Data: records, Pagination: pg})
	}
}

// FormatsHandler lists the render formats the service supports.
func FormatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"formats": deps.Projections.Formats()})
	}
}
