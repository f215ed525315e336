package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCoincidentReference means both reference points are the same place,
	// so they do not define a great circle.
	ErrCoincidentReference = errors.New("reference points are coincident")
	// ErrAntipodalReference means the reference points are opposite each other,
	// so infinitely many great circles pass through them.
	ErrAntipodalReference = errors.New("reference points are antipodal")
	// ErrInvalidScenario wraps scenario field problems found before running the pipeline.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// ReferencePair holds the two points whose great circle becomes the new equator.
type ReferencePair struct {
	First  GeoPoint `json:"first"`
	Second GeoPoint `json:"second"`
}

// Scenario is everything the pipeline needs: the reference points and the
// latitude/longitude sampling of the input grid.
type Scenario struct {
	Reference  ReferencePair `json:"reference"`
	LatRange   Range         `json:"lat_range"`
	LonRange   Range         `json:"lon_range"`
	LatSamples int           `json:"lat_samples"`
	LonSamples int           `json:"lon_samples"`
}

// DefaultScenario is the Japan-centred setup: the great circle through
// 34N 140E and 34N 120E, sampled over 10..60N and 100..160E.
func DefaultScenario() Scenario {
	return Scenario{
		Reference: ReferencePair{
			First:  GeoPoint{Lat: 34.0, Lon: 140.0},
			Second: GeoPoint{Lat: 34.0, Lon: 120.0},
		},
		LatRange:   Range{Min: 10, Max: 60},
		LonRange:   Range{Min: 100, Max: 160},
		LatSamples: 11,
		LonSamples: 11,
	}
}

// Key returns a stable identifier used for caching and event subjects.
func (s Scenario) Key() string {
	return fmt.Sprintf("%g_%g_%g_%g_%g_%g_%g_%g_%d_%d",
		s.Reference.First.Lat, s.Reference.First.Lon,
		s.Reference.Second.Lat, s.Reference.Second.Lon,
		s.LatRange.Min, s.LatRange.Max,
		s.LonRange.Min, s.LonRange.Max,
		s.LatSamples, s.LonSamples,
	)
}

// Validate checks the sampling fields. Reference points are checked separately
// by geospatial.ValidateReference since that needs spherical math.
func (s Scenario) Validate() error {
	switch {
	case s.LatSamples < 2 || s.LonSamples < 2:
		return fmt.Errorf("%w: need at least 2 samples per axis, got %dx%d", ErrInvalidScenario, s.LatSamples, s.LonSamples)
	case s.LatSamples > MaxGridPoints/s.LonSamples:
		return fmt.Errorf("%w: grid of %dx%d exceeds %d points", ErrInvalidScenario, s.LatSamples, s.LonSamples, MaxGridPoints)
	case s.LatRange.Min <= -90 || s.LatRange.Max >= 90:
		return fmt.Errorf("%w: latitude range must stay strictly within (-90, 90)", ErrInvalidScenario)
	case s.LatRange.Min >= s.LatRange.Max:
		return fmt.Errorf("%w: latitude range min must be below max", ErrInvalidScenario)
	case s.LonRange.Min >= s.LonRange.Max:
		return fmt.Errorf("%w: longitude range min must be below max", ErrInvalidScenario)
	}
	return nil
}

// MaxGridPoints bounds a single request.
const MaxGridPoints = 250_000

// Projection is the output of one pipeline run.
type Projection struct {
	Scenario Scenario      `json:"scenario"`
	Pole     Pole          `json:"pole"`
	Rotated  GeoGrid       `json:"rotated"`
	Mesh     ProjectedMesh `json:"mesh"`
	Invalid  int           `json:"invalid_points"`
}

// Format selects a rendering of the projected mesh.
type Format string

const (
	FormatPNG     Format = "png"
	FormatGeoJSON Format = "geojson"
)

// ContentType returns the MIME type of the rendered output.
func (f Format) ContentType() string {
	switch f {
	case FormatGeoJSON:
		return "application/geo+json"
	default:
		return "image/png"
	}
}

// RenderRecord is one entry of the render history.
type RenderRecord struct {
	ID          string        `json:"id"`
	ScenarioKey string        `json:"scenario_key"`
	Scenario    Scenario      `json:"scenario"`
	Pole        Pole          `json:"pole"`
	Format      Format        `json:"format"`
	Invalid     int           `json:"invalid_points"`
	Bytes       int           `json:"bytes"`
	Duration    time.Duration `json:"duration_ns"`
	CreatedAt   time.Time     `json:"created_at"`
}

// History page limits.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is an offset window into the render history.
type Page struct {
	Offset int
	Limit  int
}

// NewPage clamps a requested window. Out-of-range limits fall back to
// DefaultPageLimit rather than being capped.
func NewPage(offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	return Page{Offset: offset, Limit: limit}
}

// RenderEvent is published after a mesh has been rendered.
type RenderEvent struct {
	ScenarioKey string    `json:"scenario_key"`
	Format      Format    `json:"format"`
	Bytes       int       `json:"bytes"`
	Invalid     int       `json:"invalid_points"`
	RenderedAt  time.Time `json:"rendered_at"`
}
