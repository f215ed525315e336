package geospatial

import (
	"math"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// snapEpsilon is how far round-off may push an asin/acos argument past ±1
// before it is left alone (and turns into NaN).
const snapEpsilon = 1e-9

// CentralMeridianOffset moves the new central meridian from ±180 to 0.
const CentralMeridianOffset = 180.0

// Rotator expresses points in the frame whose north pole is Pole. The pole's
// trigonometry is computed once and shared by every point.
type Rotator struct {
	pole       domain.Pole
	sinPoleLat float64
	cosPoleLat float64
	poleLon    float64
}

// NewRotator prepares a rotation to the given pole.
func NewRotator(pole domain.Pole) *Rotator {
	sin, cos := math.Sincos(toRad(pole.Lat))
	return &Rotator{
		pole:       pole,
		sinPoleLat: sin,
		cosPoleLat: cos,
		poleLon:    toRad(pole.Lon),
	}
}

// Pole returns the pole this rotator was built for.
func (r *Rotator) Pole() domain.Pole { return r.pole }

// Rotate returns p in the rotated frame, in degrees. The longitude is shifted
// by CentralMeridianOffset and is not normalized, so it lies in [0, 360].
//
// Points that land exactly on the new pole have no longitude; the division by
// cos(lat') then produces NaN or Inf, which is returned as is.
func (r *Rotator) Rotate(p domain.GeoPoint) domain.GeoPoint {
	lat := toRad(p.Lat)
	dLon := toRad(p.Lon) - r.poleLon
	sinLat, cosLat := math.Sincos(lat)

	v := r.sinPoleLat*sinLat + r.cosPoleLat*cosLat*math.Cos(dLon)
	newLat := math.Asin(snapUnit(v))

	v = (r.sinPoleLat*math.Sin(newLat) - sinLat) / (r.cosPoleLat * math.Cos(newLat))
	newLon := math.Abs(math.Acos(snapUnit(v)))
	if !(math.Sin(dLon) >= 0) {
		newLon = -newLon
	}

	return domain.GeoPoint{
		Lat: toDeg(newLat),
		Lon: toDeg(newLon) + CentralMeridianOffset,
	}
}

// RotateRow rotates one grid row into a new slice.
func (r *Rotator) RotateRow(row []domain.GeoPoint) []domain.GeoPoint {
	out := make([]domain.GeoPoint, len(row))
	for j, p := range row {
		out[j] = r.Rotate(p)
	}
	return out
}

// RotateGrid rotates every point of grid, keeping its shape.
func (r *Rotator) RotateGrid(grid domain.GeoGrid) domain.GeoGrid {
	out := make(domain.GeoGrid, len(grid))
	for i, row := range grid {
		out[i] = r.RotateRow(row)
	}
	return out
}

// Oblique rotates a single point into the frame whose equator is the great
// circle through ref.
func Oblique(p domain.GeoPoint, ref domain.ReferencePair) domain.GeoPoint {
	return NewRotator(SolveReferencePole(ref)).Rotate(p)
}

// snapUnit pins values within snapEpsilon of ±1 to exactly ±1.
func snapUnit(v float64) float64 {
	switch {
	case math.Abs(v-1) <= snapEpsilon:
		return 1
	case math.Abs(v+1) <= snapEpsilon:
		return -1
	}
	return v
}
