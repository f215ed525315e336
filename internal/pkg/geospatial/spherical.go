package geospatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// ToCartesian maps physics-convention spherical coordinates (colatitude
// measured from +Z, both angles in radians) to a Cartesian vector.
func ToCartesian(r, colat, lon float64) r3.Vector {
	sinT, cosT := math.Sincos(colat)
	sinP, cosP := math.Sincos(lon)
	return r3.Vector{
		X: r * sinT * cosP,
		Y: r * sinT * sinP,
		Z: r * cosT,
	}
}

// ToSpherical is the inverse of ToCartesian. The longitude comes from acos,
// with the sign taken from y (y >= 0 is east) to recover the full [-pi, pi].
// A vector on the polar axis has no longitude and yields NaN, as does the zero
// vector for every component but r.
func ToSpherical(v r3.Vector) (r, colat, lon float64) {
	r = v.Norm()
	colat = math.Acos(v.Z / r)
	lon = signOf(v.Y) * math.Acos(v.X/math.Sqrt(v.X*v.X+v.Y*v.Y))
	return r, colat, lon
}

// signOf is +1 for v >= 0 and -1 otherwise.
func signOf(v float64) float64 {
	if v >= 0 {
		return 1
	}
	return -1
}
