package geospatial

import (
	"math"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// CentralAngle returns the great-circle angle in degrees between two points.
func CentralAngle(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return toDeg(2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h)))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
