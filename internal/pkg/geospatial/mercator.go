package geospatial

import (
	"math"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// Mercator projects a point on the unit sphere. Both outputs are in degrees:
// x is the longitude, y = atanh(sin(lat)). Latitudes of ±90 give ±Inf.
func Mercator(lat, lon float64) domain.ProjectedPoint {
	return domain.ProjectedPoint{
		X: toDeg(toRad(lon)),
		Y: toDeg(math.Atanh(math.Sin(toRad(lat)))),
	}
}

// ProjectRow projects one grid row.
func ProjectRow(row []domain.GeoPoint) []domain.ProjectedPoint {
	out := make([]domain.ProjectedPoint, len(row))
	for j, p := range row {
		out[j] = Mercator(p.Lat, p.Lon)
	}
	return out
}

// ProjectGrid projects every point of grid, keeping its shape.
func ProjectGrid(grid domain.GeoGrid) domain.ProjectedMesh {
	out := make(domain.ProjectedMesh, len(grid))
	for i, row := range grid {
		out[i] = ProjectRow(row)
	}
	return out
}
