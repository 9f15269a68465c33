// Package matcher implements the sample-volcano matching engine: candidate
// generation, four-axis evidence scoring, literature extraction, weighted
// aggregation, and confidence classification.
package matcher

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Method identifies the matching algorithm version recorded in every
// persisted decision.
const Method = "axis-weighted/v1"

// Weights holds the relative weight of each evidence axis. Weights are
// renormalized per candidate over the axes that had usable input, so they
// only need to sum to 1 nominally.
type Weights struct {
	Spatial      float64 `yaml:"spatial"`
	Tectonic     float64 `yaml:"tectonic"`
	Temporal     float64 `yaml:"temporal"`
	Petrological float64 `yaml:"petrological"`
}

// Sum returns the total of all four axis weights.
func (w Weights) Sum() float64 {
	return w.Spatial + w.Tectonic + w.Temporal + w.Petrological
}

// Policy is the full scoring policy: radii, axis weights, and decision
// thresholds. It is passed explicitly into the engine so the policy stays
// auditable and testable in isolation.
type Policy struct {
	// SearchRadiusKM bounds candidate generation. Must be >= ScoringRadiusKM
	// so no candidate is dropped before it is scored.
	SearchRadiusKM  float64 `yaml:"search_radius_km"`
	ScoringRadiusKM float64 `yaml:"scoring_radius_km"`

	Weights Weights `yaml:"weights"`

	// AcceptFloor is the minimum final score for a match to be accepted.
	AcceptFloor float64 `yaml:"accept_floor"`

	// AmbiguityGap is the minimum lead over the runner-up below which the
	// decision is flagged as competing candidates.
	AmbiguityGap float64 `yaml:"ambiguity_gap"`

	// HighScore and MediumScore split accepted matches into confidence bands.
	HighScore   float64 `yaml:"high_score"`
	MediumScore float64 `yaml:"medium_score"`

	// HighCoverage is the minimum axis coverage required for high confidence.
	HighCoverage float64 `yaml:"high_coverage"`

	// TemporalDecayYears controls how fast the temporal score decays per year
	// of gap outside the activity window; TemporalFloor bounds it below,
	// since activity windows are themselves incomplete.
	TemporalDecayYears float64 `yaml:"temporal_decay_years"`
	TemporalFloor      float64 `yaml:"temporal_floor"`

	// QueryAttempts bounds retries of the candidate query before the sample
	// degrades to unmatched.
	QueryAttempts int `yaml:"query_attempts"`
}

// DefaultPolicy returns the tuned default scoring policy. Spatial dominates
// because coordinates are the only field present on every sample.
func DefaultPolicy() Policy {
	return Policy{
		SearchRadiusKM:  100,
		ScoringRadiusKM: 100,
		Weights: Weights{
			Spatial:      0.40,
			Tectonic:     0.20,
			Temporal:     0.15,
			Petrological: 0.25,
		},
		AcceptFloor:        0.50,
		AmbiguityGap:       0.10,
		HighScore:          0.75,
		MediumScore:        0.60,
		HighCoverage:       0.75,
		TemporalDecayYears: 500,
		TemporalFloor:      0.20,
		QueryAttempts:      3,
	}
}

// Validate checks that the policy is internally consistent.
func (p Policy) Validate() error {
	var errs []string

	if p.SearchRadiusKM <= 0 {
		errs = append(errs, "search_radius_km must be > 0")
	}
	if p.ScoringRadiusKM <= 0 {
		errs = append(errs, "scoring_radius_km must be > 0")
	}
	if p.SearchRadiusKM < p.ScoringRadiusKM {
		errs = append(errs, "search_radius_km must be >= scoring_radius_km")
	}
	for name, w := range map[string]float64{
		"spatial":      p.Weights.Spatial,
		"tectonic":     p.Weights.Tectonic,
		"temporal":     p.Weights.Temporal,
		"petrological": p.Weights.Petrological,
	} {
		if w < 0 {
			errs = append(errs, name+" weight must be >= 0")
		}
	}
	if p.Weights.Sum() <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	if math.Abs(p.Weights.Sum()-1) > 0.01 {
		errs = append(errs, "weights should sum to 1")
	}
	if p.AcceptFloor < 0 || p.AcceptFloor > 1 {
		errs = append(errs, "accept_floor must be in [0,1]")
	}
	if p.AmbiguityGap < 0 || p.AmbiguityGap > 1 {
		errs = append(errs, "ambiguity_gap must be in [0,1]")
	}
	if p.MediumScore < p.AcceptFloor {
		errs = append(errs, "medium_score must be >= accept_floor")
	}
	if p.HighScore < p.MediumScore {
		errs = append(errs, "high_score must be >= medium_score")
	}
	if p.HighCoverage < 0 || p.HighCoverage > 1 {
		errs = append(errs, "high_coverage must be in [0,1]")
	}
	if p.TemporalDecayYears <= 0 {
		errs = append(errs, "temporal_decay_years must be > 0")
	}
	if p.TemporalFloor < 0 || p.TemporalFloor >= 1 {
		errs = append(errs, "temporal_floor must be in [0,1)")
	}
	if p.QueryAttempts < 1 {
		errs = append(errs, "query_attempts must be >= 1")
	}

	if len(errs) > 0 {
		msg := errs[0]
		for _, e := range errs[1:] {
			msg += "; " + e
		}
		return eris.Errorf("matcher: policy validation failed: %s", msg)
	}
	return nil
}

// LoadPolicy reads a yaml policy file layered over the defaults, so a file
// only needs to name the values it overrides.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, eris.Wrapf(err, "matcher: read policy %s", path)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, eris.Wrapf(err, "matcher: parse policy %s", path)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
