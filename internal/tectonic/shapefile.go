package tectonic

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// Load reads a plate boundary shapefile and builds a Classifier. Each record
// is a polyline tagged with a boundary type attribute; types that do not map
// to a regime (transform faults, fracture zones) are skipped.
func Load(shpPath string, proximityKM float64) (*Classifier, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "tectonic: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	typeIdx := -1
	for i, f := range fields {
		name := strings.ToLower(strings.TrimRight(f.String(), "\x00"))
		if name == "type" || name == "boundary" || name == "boundary_t" {
			typeIdx = i
			break
		}
	}
	if typeIdx < 0 {
		return nil, eris.Errorf("tectonic: no boundary type field in %s", shpPath)
	}

	var boundaries []Boundary
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		pl, ok := shape.(*shp.PolyLine)
		if !ok {
			skipped++
			continue
		}

		attr := strings.TrimSpace(strings.TrimRight(reader.Attribute(typeIdx), "\x00"))
		kind, ok := boundaryKind(attr)
		if !ok {
			skipped++
			continue
		}

		mls := polyLineToMultiLineString(pl)
		if mls == nil {
			skipped++
			continue
		}
		for i := 0; i < mls.NumLineStrings(); i++ {
			ls := mls.LineString(i)
			line := make([]model.Point, 0, ls.NumCoords())
			for j := 0; j < ls.NumCoords(); j++ {
				c := ls.Coord(j)
				line = append(line, model.Point{Lon: c[0], Lat: c[1]})
			}
			if len(line) >= 2 {
				boundaries = append(boundaries, Boundary{Kind: kind, Line: line})
			}
		}
	}

	if skipped > 0 {
		zap.L().Debug("tectonic: skipped boundary records", zap.Int("skipped", skipped))
	}
	if len(boundaries) == 0 {
		return nil, eris.Errorf("tectonic: no usable boundaries in %s", shpPath)
	}

	return New(boundaries, proximityKM), nil
}

// boundaryKind maps a boundary type attribute to a regime. Transform
// boundaries carry no volcanic signal and are dropped.
func boundaryKind(attr string) (model.Regime, bool) {
	a := strings.ToLower(attr)
	switch {
	case strings.Contains(a, "subduction"), strings.Contains(a, "trench"), strings.Contains(a, "convergent"):
		return model.RegimeSubduction, true
	case strings.Contains(a, "ridge"), strings.Contains(a, "rift"), strings.Contains(a, "divergent"), strings.Contains(a, "spreading"):
		return model.RegimeRift, true
	default:
		return model.RegimeUnknown, false
	}
}

// polyLineToMultiLineString converts a shapefile PolyLine to a geom.MultiLineString.
func polyLineToMultiLineString(pl *shp.PolyLine) *geom.MultiLineString {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY).SetSRID(4326)

	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		var end int32
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		} else {
			end = int32(len(pl.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}

		ls := geom.NewLineStringFlat(geom.XY, flat)
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("tectonic: skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}
