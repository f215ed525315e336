package geospatial

import "github.com/samirrijal/obliquemerc/internal/core/domain"

// NormalizeDegrees folds v into [-180, 180] with one conditional shift.
// It is not a modular reduction: anything outside (-540, 540) stays out of range.
func NormalizeDegrees(v float64) float64 {
	if v > 180 {
		v -= 360
	}
	if v < -180 {
		v += 360
	}
	return v
}

// NormalizeGrid applies NormalizeDegrees to both axes of every point.
func NormalizeGrid(grid domain.GeoGrid) domain.GeoGrid {
	out := make(domain.GeoGrid, len(grid))
	for i, row := range grid {
		out[i] = NormalizeRow(row)
	}
	return out
}

// NormalizeRow is NormalizeGrid for a single row.
func NormalizeRow(row []domain.GeoPoint) []domain.GeoPoint {
	out := make([]domain.GeoPoint, len(row))
	for j, p := range row {
		out[j] = domain.GeoPoint{Lat: NormalizeDegrees(p.Lat), Lon: NormalizeDegrees(p.Lon)}
	}
	return out
}
