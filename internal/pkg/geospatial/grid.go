package geospatial

import "github.com/samirrijal/obliquemerc/internal/core/domain"

// Linspace returns n evenly spaced samples over [r.Min, r.Max], endpoints included.
func Linspace(r domain.Range, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{r.Min}
	}
	step := (r.Max - r.Min) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Min + float64(i)*step
	}
	out[n-1] = r.Max
	return out
}

// Meshgrid builds the Cartesian product of the samples. The result has one row
// per longitude sample and one column per latitude sample: row i is at
// lons[i], column j at lats[j].
func Meshgrid(lats, lons []float64) domain.GeoGrid {
	grid := make(domain.GeoGrid, len(lons))
	for i, lon := range lons {
		row := make([]domain.GeoPoint, len(lats))
		for j, lat := range lats {
			row[j] = domain.GeoPoint{Lat: lat, Lon: lon}
		}
		grid[i] = row
	}
	return grid
}

// ScenarioGrid samples the scenario's ranges into a mesh.
func ScenarioGrid(s domain.Scenario) domain.GeoGrid {
	return Meshgrid(Linspace(s.LatRange, s.LatSamples), Linspace(s.LonRange, s.LonSamples))
}
