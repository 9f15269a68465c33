// Package tectonic infers a tectonic regime for sample locations from a
// plate boundary dataset. It backfills samples whose source database carries
// no tectonic descriptors.
package tectonic

import (
	"math"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// DefaultProximityKM is how close a sample must sit to a plate boundary for
// that boundary to set its regime. Volcanic arcs track their trench at up to
// a few hundred kilometers.
const DefaultProximityKM = 250

// Boundary is one plate boundary polyline tagged with the regime it implies.
type Boundary struct {
	Kind model.Regime
	Line []model.Point
}

// Classifier answers regime queries against a set of plate boundaries.
type Classifier struct {
	boundaries  []Boundary
	proximityKM float64
}

// New builds a Classifier from boundaries. proximityKM <= 0 selects
// DefaultProximityKM.
func New(boundaries []Boundary, proximityKM float64) *Classifier {
	if proximityKM <= 0 {
		proximityKM = DefaultProximityKM
	}
	return &Classifier{boundaries: boundaries, proximityKM: proximityKM}
}

// Regime returns the regime implied by the nearest boundary within the
// proximity threshold, or intraplate when no boundary is near.
func (c *Classifier) Regime(p model.Point) model.Regime {
	best := model.RegimeIntraplate
	bestKM := c.proximityKM

	for _, b := range c.boundaries {
		for i := 0; i+1 < len(b.Line); i++ {
			d := pointSegmentKM(p, b.Line[i], b.Line[i+1])
			if d <= bestKM {
				bestKM = d
				best = b.Kind
			}
		}
	}
	return best
}

// Backfill sets the sample's tectonic descriptors when the source carried
// none. Crust stays unknown; only the regime can be read off a boundary map.
func (c *Classifier) Backfill(s *model.Sample) {
	if s.Tectonic != nil && s.Tectonic.Regime != model.RegimeUnknown {
		return
	}
	regime := c.Regime(s.Point)
	if s.Tectonic == nil {
		s.Tectonic = &model.TectonicSetting{Regime: regime, Crust: model.CrustUnknown}
		return
	}
	s.Tectonic.Regime = regime
}

// pointSegmentKM computes the distance from p to the segment ab in
// kilometers, using an equirectangular projection centered on p. Accurate
// enough at the sub-thousand-kilometer scale the classifier operates at.
func pointSegmentKM(p, a, b model.Point) float64 {
	const kmPerDeg = 111.32
	cosLat := math.Cos(p.Lat * math.Pi / 180)

	ax := lonDiff(a.Lon, p.Lon) * cosLat
	ay := a.Lat - p.Lat
	bx := lonDiff(b.Lon, p.Lon) * cosLat
	by := b.Lat - p.Lat

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy

	var t float64
	if lenSq > 0 {
		t = -(ax*dx + ay*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}

	cx := ax + t*dx
	cy := ay + t*dy
	return math.Hypot(cx, cy) * kmPerDeg
}

// lonDiff returns the signed longitude difference wrapped to [-180, 180].
func lonDiff(a, b float64) float64 {
	d := a - b
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}
