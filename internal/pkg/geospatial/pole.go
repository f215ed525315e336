package geospatial

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// degenerateNorm is the cross-product length below which two unit vectors are
// treated as parallel.
const degenerateNorm = 1e-12

// unitVector places a geographic point on the unit sphere.
func unitVector(p domain.GeoPoint) r3.Vector {
	return ToCartesian(1, toRad(90-p.Lat), toRad(p.Lon))
}

// SolvePole returns the pole of the great circle through p1 and p2, i.e. the
// direction of p1 x p2. Swapping the points gives the antipodal pole.
//
// Coincident or antipodal points give a zero cross product and the pole comes
// back as NaN. Use ValidateReference first when that must be an error.
func SolvePole(p1, p2 domain.GeoPoint) domain.Pole {
	axis := unitVector(p1).Cross(unitVector(p2))

	_, colat, lon := ToSpherical(axis)
	return domain.Pole{
		Lat: 90 - toDeg(colat),
		Lon: toDeg(lon),
	}
}

// SolveReferencePole is SolvePole for a ReferencePair.
func SolveReferencePole(ref domain.ReferencePair) domain.Pole {
	return SolvePole(ref.First, ref.Second)
}

// ValidateReference reports whether the pair defines a unique great circle.
func ValidateReference(ref domain.ReferencePair) error {
	if !ref.First.IsFinite() || !ref.Second.IsFinite() {
		return fmt.Errorf("%w: reference coordinates must be finite", domain.ErrInvalidScenario)
	}
	a, b := unitVector(ref.First), unitVector(ref.Second)
	if a.Cross(b).Norm() > degenerateNorm {
		return nil
	}
	if a.Dot(b) > 0 {
		return fmt.Errorf("%w: %v and %v", domain.ErrCoincidentReference, ref.First, ref.Second)
	}
	return fmt.Errorf("%w: %v and %v", domain.ErrAntipodalReference, ref.First, ref.Second)
}

// IsUndefined reports whether a pole came out of a degenerate pair.
func IsUndefined(p domain.Pole) bool {
	return math.IsNaN(p.Lat) || math.IsNaN(p.Lon)
}
