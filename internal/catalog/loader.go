package catalog

import (
	"context"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// LoadVolcanoes parses a volcano catalog CSV export. Expected header
// columns: number, name, lon, lat, regime, crust, rock1, rock2, rock3,
// region, country, first_eruption_year, last_eruption_year. Rows missing
// the required columns are skipped with a counter, not fatal.
func LoadVolcanoes(ctx context.Context, r io.Reader) ([]model.Volcano, error) {
	rows, errs := streamCSV(ctx, r)

	var out []model.Volcano
	var skipped int
	for row := range rows {
		number, err := strconv.Atoi(row.get("number"))
		if err != nil {
			skipped++
			continue
		}
		lon, lat, ok := parsePoint(row)
		if !ok || row.get("name") == "" {
			skipped++
			continue
		}

		v := model.Volcano{
			Number: number,
			Name:   row.get("name"),
			Point:  model.Point{Lon: lon, Lat: lat},
			Tectonic: model.TectonicSetting{
				Regime: parseRegime(row.get("regime")),
				Crust:  parseCrust(row.get("crust")),
			},
			Region:  row.get("region"),
			Country: row.get("country"),
			Activity: model.ActivityWindow{
				FirstYear: parseOptionalYear(row.get("first_eruption_year")),
				LastYear:  parseOptionalYear(row.get("last_eruption_year")),
			},
		}
		for _, col := range []string{"rock1", "rock2", "rock3"} {
			if rt := row.get(col); rt != "" {
				v.RockTypes = append(v.RockTypes, rt)
			}
		}
		out = append(out, v)
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrap(err, "catalog: load volcanoes")
	}

	if skipped > 0 {
		zap.L().Warn("catalog: skipped malformed volcano rows", zap.Int("skipped", skipped))
	}
	return out, nil
}

// LoadSamples parses a sample batch CSV. Expected header columns: id,
// source, lon, lat, rock_type, regime, crust, year, month, day,
// uncertainty_years, title, abstract, reference. Only id, source, lon, and
// lat are required.
func LoadSamples(ctx context.Context, r io.Reader) ([]model.Sample, error) {
	rows, errs := streamCSV(ctx, r)

	var out []model.Sample
	var skipped int
	for row := range rows {
		lon, lat, ok := parsePoint(row)
		if !ok || row.get("id") == "" {
			skipped++
			continue
		}

		s := model.Sample{
			ID:        row.get("id"),
			Source:    row.get("source"),
			Point:     model.Point{Lon: lon, Lat: lat},
			RockType:  row.get("rock_type"),
			Title:     row.get("title"),
			Abstract:  row.get("abstract"),
			Reference: row.get("reference"),
		}

		regime := parseRegime(row.get("regime"))
		crust := parseCrust(row.get("crust"))
		if row.get("regime") != "" || row.get("crust") != "" {
			s.Tectonic = &model.TectonicSetting{Regime: regime, Crust: crust}
		}

		if year := row.get("year"); year != "" {
			y, err := strconv.Atoi(year)
			if err != nil {
				skipped++
				continue
			}
			s.Date = &model.SampleDate{
				Year:             y,
				Month:            parseOptionalInt(row.get("month")),
				Day:              parseOptionalInt(row.get("day")),
				UncertaintyYears: parseOptionalInt(row.get("uncertainty_years")),
			}
		}

		out = append(out, s)
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrap(err, "catalog: load samples")
	}

	if skipped > 0 {
		zap.L().Warn("catalog: skipped malformed sample rows", zap.Int("skipped", skipped))
	}
	return out, nil
}

func parsePoint(row csvRow) (lon, lat float64, ok bool) {
	lon, errLon := strconv.ParseFloat(row.get("lon"), 64)
	lat, errLat := strconv.ParseFloat(row.get("lat"), 64)
	if errLon != nil || errLat != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lon, lat, true
}

func parseRegime(s string) model.Regime {
	r := model.Regime(normalizeToken(s))
	if !r.Valid() || r == "" {
		return model.RegimeUnknown
	}
	return r
}

func parseCrust(s string) model.Crust {
	c := model.Crust(normalizeToken(s))
	if !c.Valid() || c == "" {
		return model.CrustUnknown
	}
	return c
}

func normalizeToken(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		if r == ' ' || r == '\t' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func parseOptionalInt(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func parseOptionalYear(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
