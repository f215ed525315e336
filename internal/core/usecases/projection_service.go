package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
	"github.com/samirrijal/obliquemerc/internal/core/ports"
	"github.com/samirrijal/obliquemerc/internal/pkg/geospatial"
	"github.com/samirrijal/obliquemerc/internal/pkg/logging"
	"github.com/samirrijal/obliquemerc/internal/pkg/metrics"
	"github.com/samirrijal/obliquemerc/internal/pkg/telemetry"
)

// ErrUnsupportedFormat is returned by Render when no renderer handles the format.
var ErrUnsupportedFormat = errors.New("unsupported render format")

// ProjectionOptions tunes the pipeline.
type ProjectionOptions struct {
	// ValidateReference rejects coincident or antipodal reference points
	// instead of letting the NaN pole flow through.
	ValidateReference bool
	// Parallel evaluates grid rows concurrently.
	Parallel bool
	// CacheTTLSeconds is how long rendered outputs stay cached.
	CacheTTLSeconds int
}

// ProjectionService runs the oblique Mercator pipeline:
// grid → rotate → normalize → project → render.
type ProjectionService struct {
	opts      ProjectionOptions
	cache     ports.CacheService
	publisher ports.EventPublisher
	history   ports.RenderRepository
	renderers map[domain.Format]ports.MeshRenderer
}

// NewProjectionService creates a new ProjectionService. cache, publisher and
// history are optional and may be nil.
func NewProjectionService(
	opts ProjectionOptions,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	history ports.RenderRepository,
	renderers ...ports.MeshRenderer,
) *ProjectionService {
	byFormat := make(map[domain.Format]ports.MeshRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	return &ProjectionService{
		opts:      opts,
		cache:     cache,
		publisher: publisher,
		history:   history,
		renderers: byFormat,
	}
}

// Pole solves the pole of the great circle through the reference pair.
func (s *ProjectionService) Pole(ctx context.Context, ref domain.ReferencePair) (domain.Pole, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanSolvePole)
	defer span.End()

	if s.opts.ValidateReference {
		if err := geospatial.ValidateReference(ref); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return domain.Pole{}, err
		}
	}

	pole := geospatial.SolveReferencePole(ref)
	if geospatial.IsUndefined(pole) {
		metrics.UndefinedPoles.Inc()
		logging.FromContext(ctx).WarnContext(ctx, "pole is undefined, mesh will be empty",
			"first", ref.First, "second", ref.Second)
	}
	return pole, nil
}

// Project runs the transform pipeline for a scenario. Numeric failures are
// not errors: they show up as NaN points and in Projection.Invalid.
func (s *ProjectionService) Project(ctx context.Context, sc domain.Scenario) (*domain.Projection, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanProject)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrScenarioKey, sc.Key()))

	if err := sc.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cacheKey := "projection:" + sc.Key()
	if p, ok := s.cachedProjection(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
		return p, nil
	}

	pole, err := s.Pole(ctx, sc.Reference)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	grid := geospatial.ScenarioGrid(sc)
	rows, cols := grid.Shape()
	span.SetAttributes(attribute.Int(telemetry.AttrGridRows, rows), attribute.Int(telemetry.AttrGridCols, cols))

	rotated, mesh, err := s.transform(ctx, grid, geospatial.NewRotator(pole))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	p := &domain.Projection{
		Scenario: sc,
		Pole:     pole,
		Rotated:  rotated,
		Mesh:     mesh,
		Invalid:  mesh.Invalid(),
	}

	elapsed := time.Since(start)
	metrics.ProjectionDuration.Observe(elapsed.Seconds())
	metrics.GridPoints.Add(float64(rows * cols))
	metrics.InvalidPoints.Add(float64(p.Invalid))
	span.SetAttributes(attribute.Int(telemetry.AttrInvalidPoints, p.Invalid))

	logging.FromContext(ctx).DebugContext(ctx, "projection computed",
		"scenario", sc.Key(),
		"pole_lat", pole.Lat,
		"pole_lon", pole.Lon,
		"reference_arc_deg", geospatial.CentralAngle(sc.Reference.First, sc.Reference.Second),
		"rows", rows,
		"cols", cols,
		"invalid_points", p.Invalid,
		"duration_ms", elapsed.Milliseconds(),
	)

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTLSeconds)
		}
	}

	return p, nil
}

// transform rotates, normalizes and projects each row. Rows are independent,
// so with Parallel set they run on a bounded errgroup, each writing its own slot.
func (s *ProjectionService) transform(ctx context.Context, grid domain.GeoGrid, rot *geospatial.Rotator) (domain.GeoGrid, domain.ProjectedMesh, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanTransform)
	defer span.End()

	rotated := make(domain.GeoGrid, len(grid))
	mesh := make(domain.ProjectedMesh, len(grid))

	row := func(i int) {
		rotated[i] = geospatial.NormalizeRow(rot.RotateRow(grid[i]))
		mesh[i] = geospatial.ProjectRow(rotated[i])
	}

	if !s.opts.Parallel {
		for i := range grid {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			row(i)
		}
		return rotated, mesh, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range grid {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rotated, mesh, nil
}

// Render projects the scenario and encodes it in the requested format.
// Outputs are cached per scenario and format; every fresh render is published
// and recorded in the history when those collaborators are configured.
func (s *ProjectionService) Render(ctx context.Context, sc domain.Scenario, format domain.Format) ([]byte, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRender)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrFormat, string(format)))

	cacheKey := fmt.Sprintf("render:%s:%s", format, sc.Key())
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			metrics.CacheHits.WithLabelValues("render").Inc()
			span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
			return data, nil
		}
		metrics.CacheMisses.WithLabelValues("render").Inc()
	}

	start := time.Now()
	p, err := s.Project(ctx, sc)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(ctx, p)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	elapsed := time.Since(start)
	metrics.RenderDuration.WithLabelValues(string(format)).Observe(elapsed.Seconds())
	metrics.RenderBytes.WithLabelValues(string(format)).Observe(float64(len(data)))

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTLSeconds)
	}
	s.record(ctx, p, format, len(data), elapsed)

	logging.FromContext(ctx).InfoContext(ctx, "projection rendered",
		"scenario", sc.Key(),
		"format", format,
		"bytes", len(data),
		"invalid_points", p.Invalid,
		"duration_ms", elapsed.Milliseconds(),
	)
	return data, nil
}

// History returns the most recent renders, newest first, with the total count.
func (s *ProjectionService) History(ctx context.Context, offset, limit int) ([]domain.RenderRecord, int, error) {
	if s.history == nil {
		return nil, 0, nil
	}
	page := domain.NewPage(offset, limit)
	return s.history.ListRecent(ctx, page.Offset, page.Limit)
}

// HasHistory reports whether renders are being recorded.
func (s *ProjectionService) HasHistory() bool {
	return s.history != nil
}

// Formats lists the formats this service can render, sorted by name.
func (s *ProjectionService) Formats() []domain.Format {
	out := make([]domain.Format, 0, len(s.renderers))
	for f := range s.renderers {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

func (s *ProjectionService) cachedProjection(ctx context.Context, key string) (*domain.Projection, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues("projection").Inc()
		return nil, false
	}
	var p domain.Projection
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("projection").Inc()
	return &p, true
}

// record publishes the render event and appends it to the history. Failures
// are logged; the render itself already succeeded.
func (s *ProjectionService) record(ctx context.Context, p *domain.Projection, format domain.Format, size int, elapsed time.Duration) {
	now := time.Now().UTC()

	if s.publisher != nil {
		event := &domain.RenderEvent{
			ScenarioKey: p.Scenario.Key(),
			Format:      format,
			Bytes:       size,
			Invalid:     p.Invalid,
			RenderedAt:  now,
		}
		if err := s.publisher.PublishRenderEvent(ctx, event); err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "publish render event failed", "error", err)
		}
	}

	if s.history != nil {
		rec := &domain.RenderRecord{
			ID:          uuid.NewString(),
			ScenarioKey: p.Scenario.Key(),
			Scenario:    p.Scenario,
			Pole:        p.Pole,
			Format:      format,
			Invalid:     p.Invalid,
			Bytes:       size,
			Duration:    elapsed,
			CreatedAt:   now,
		}
		if err := s.history.Insert(ctx, rec); err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "record render failed", "error", err)
		}
	}
}
