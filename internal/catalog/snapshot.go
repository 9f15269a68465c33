// Package catalog holds the read-only volcano catalog snapshot used as the
// candidate universe for a matching run, plus the CSV loaders that build it.
package catalog

import (
	"context"
	"math"

	"github.com/tephra-labs/volcmatch/internal/matcher"
	"github.com/tephra-labs/volcmatch/internal/model"
)

const kmPerDegreeLat = 111.32

// Snapshot is an immutable in-memory copy of the volcano catalog,
// constructed once per batch run and shared by reference across workers.
// It implements matcher.CandidateSource without external I/O.
type Snapshot struct {
	volcanoes []model.Volcano
}

// NewSnapshot copies the given volcanoes into an immutable snapshot.
func NewSnapshot(volcanoes []model.Volcano) *Snapshot {
	vs := make([]model.Volcano, len(volcanoes))
	copy(vs, volcanoes)
	return &Snapshot{volcanoes: vs}
}

// Len returns the number of volcanoes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.volcanoes)
}

// All returns a copy of the catalog contents.
func (s *Snapshot) All() []model.Volcano {
	vs := make([]model.Volcano, len(s.volcanoes))
	copy(vs, s.volcanoes)
	return vs
}

// VolcanoesWithin returns every volcano within radiusKM of p, using a
// bounding-box prefilter before the exact great-circle check.
func (s *Snapshot) VolcanoesWithin(ctx context.Context, p model.Point, radiusKM float64) ([]model.Volcano, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	latDelta := radiusKM / kmPerDegreeLat
	cosLat := math.Cos(p.Lat * math.Pi / 180)
	lonDelta := 180.0 // degenerate near the poles: skip the longitude filter
	if cosLat > 0.01 {
		lonDelta = radiusKM / (kmPerDegreeLat * cosLat)
	}

	var out []model.Volcano
	for _, v := range s.volcanoes {
		if math.Abs(v.Point.Lat-p.Lat) > latDelta {
			continue
		}
		if lonDelta < 180 && lonDiff(v.Point.Lon, p.Lon) > lonDelta {
			continue
		}
		if matcher.HaversineKM(p, v.Point) <= radiusKM {
			out = append(out, v)
		}
	}
	return out, nil
}

// lonDiff returns the absolute longitude difference accounting for the
// antimeridian.
func lonDiff(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}
