package matcher

import (
	"math"

	"github.com/tephra-labs/volcmatch/internal/model"
)

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two WGS84 points
// in kilometers.
func HaversineKM(a, b model.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}
