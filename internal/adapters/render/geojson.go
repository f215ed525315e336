package render

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// GeoJSON exports the projected mesh as a FeatureCollection with one
// MultiLineString per mesh row and per mesh column. Coordinates are the planar
// (x, y) degree units of the projection, not longitude/latitude.
type GeoJSON struct{}

func (GeoJSON) Format() domain.Format { return domain.FormatGeoJSON }

// Render implements ports.MeshRenderer.
func (GeoJSON) Render(ctx context.Context, p *domain.Projection) ([]byte, error) {
	fc := MeshFeatures(p.Mesh)
	for _, f := range fc.Features {
		f.Properties["scenario"] = p.Scenario.Key()
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}

// MeshFeatures converts every row and column of the mesh into a feature.
// Lines made only of non-finite points are omitted.
func MeshFeatures(mesh domain.ProjectedMesh) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, row := range mesh {
		addLine(fc, row, "row", i)
	}

	_, cols := mesh.Shape()
	for j := 0; j < cols; j++ {
		col := make([]domain.ProjectedPoint, 0, len(mesh))
		for _, row := range mesh {
			if j < len(row) {
				col = append(col, row[j])
			}
		}
		addLine(fc, col, "column", j)
	}
	return fc
}

func addLine(fc *geojson.FeatureCollection, pts []domain.ProjectedPoint, axis string, index int) {
	mls := SplitLine(pts)
	if len(mls) == 0 {
		return
	}
	f := geojson.NewFeature(mls)
	f.Properties["axis"] = axis
	f.Properties["index"] = index
	fc.Append(f)
}

// SplitLine breaks a polyline at non-finite points. Pieces shorter than two
// points cannot form a line and are dropped.
func SplitLine(pts []domain.ProjectedPoint) orb.MultiLineString {
	var (
		out     orb.MultiLineString
		current orb.LineString
	)
	flush := func() {
		if len(current) >= 2 {
			out = append(out, current)
		}
		current = nil
	}
	for _, p := range pts {
		if !p.IsFinite() {
			flush()
			continue
		}
		current = append(current, orb.Point{p.X, p.Y})
	}
	flush()
	return out
}
