package matcher

import "github.com/tephra-labs/volcmatch/internal/model"

// scoreTemporal compares the sample date against the volcano's activity
// window. Inside the window (inclusive, expanded by the date's own
// uncertainty) scores 1; outside, the score decays with the gap in years
// down to the policy floor, since activity windows are themselves
// incomplete and an outside date is weak negative evidence, not proof of
// mismatch. A bare year with no stated uncertainty has unknown precision
// and excludes the axis instead of guessing.
func scoreTemporal(date *model.SampleDate, window model.ActivityWindow, p Policy) (axisResult, []model.Flag) {
	if date == nil || window.Open() {
		return axisNeutral(), nil
	}
	if date.YearOnly() && date.UncertaintyYears == 0 {
		return axisNeutral(), []model.Flag{model.FlagLowPrecisionDate}
	}

	lo := date.Year - date.UncertaintyYears
	hi := date.Year + date.UncertaintyYears

	// Gap between [lo,hi] and the known activity window, in years.
	var gap int
	if window.FirstYear != nil && hi < *window.FirstYear {
		gap = *window.FirstYear - hi
	} else if window.LastYear != nil && lo > *window.LastYear {
		gap = lo - *window.LastYear
	}

	if gap == 0 {
		return axis(1), nil
	}

	score := 1 - float64(gap)/p.TemporalDecayYears
	if score < p.TemporalFloor {
		score = p.TemporalFloor
	}
	return axis(score), []model.Flag{model.FlagOutOfWindow}
}
