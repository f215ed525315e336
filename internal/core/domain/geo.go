package domain

import (
	"encoding/json"
	"math"
)

// GeoPoint represents a spherical coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Pole is the point that becomes the north pole of the rotated frame.
// It is only produced by geospatial.SolvePole.
type Pole GeoPoint

// Point returns the pole as a plain GeoPoint.
func (p Pole) Point() GeoPoint { return GeoPoint(p) }

// IsFinite reports whether both coordinates are finite numbers.
func (p GeoPoint) IsFinite() bool {
	return isFinite(p.Lat) && isFinite(p.Lon)
}

// GeoGrid is a row-major mesh of points. Every transform stage keeps its shape.
type GeoGrid [][]GeoPoint

// Shape returns the number of rows and columns of the grid.
func (g GeoGrid) Shape() (rows, cols int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g), len(g[0])
}

// ProjectedPoint is a planar coordinate in degree-scaled units.
type ProjectedPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsFinite reports whether both coordinates are finite numbers.
func (p ProjectedPoint) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// ProjectedMesh is the projected counterpart of a GeoGrid, same shape.
type ProjectedMesh [][]ProjectedPoint

// Shape returns the number of rows and columns of the mesh.
func (m ProjectedMesh) Shape() (rows, cols int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Invalid counts the points that did not survive the projection (NaN or Inf).
func (m ProjectedMesh) Invalid() int {
	n := 0
	for _, row := range m {
		for _, p := range row {
			if !p.IsFinite() {
				n++
			}
		}
	}
	return n
}

// Range is a closed numeric interval used for grid sampling.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// JSON has no NaN or Inf, so non-finite coordinates travel as null.

func (p GeoPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}{finiteOrNil(p.Lat), finiteOrNil(p.Lon)})
}

func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Lat, p.Lon = nilToNaN(raw.Lat), nilToNaN(raw.Lon)
	return nil
}

func (p Pole) MarshalJSON() ([]byte, error) { return GeoPoint(p).MarshalJSON() }

func (p *Pole) UnmarshalJSON(data []byte) error { return (*GeoPoint)(p).UnmarshalJSON(data) }

func (p ProjectedPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}{finiteOrNil(p.X), finiteOrNil(p.Y)})
}

func (p *ProjectedPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.X, p.Y = nilToNaN(raw.X), nilToNaN(raw.Y)
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrNil(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

func nilToNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
