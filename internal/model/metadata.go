package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// MatchedVolcano identifies the accepted winning volcano for a sample.
type MatchedVolcano struct {
	Name       string  `json:"name"`
	Number     int     `json:"number"`
	DistanceKM float64 `json:"distance_km"`
}

// AxisScores holds the four evidence-axis scores and the final weighted
// score. A nil axis means the axis had no usable input and was excluded
// from the weighted sum.
type AxisScores struct {
	Spatial      *float64 `json:"spatial,omitempty"`
	Tectonic     *float64 `json:"tectonic,omitempty"`
	Temporal     *float64 `json:"temporal,omitempty"`
	Petrological *float64 `json:"petrological,omitempty"`
	Final        float64  `json:"final"`
}

// Quality describes how trustworthy the decision is, matched or not.
type Quality struct {
	Coverage    float64    `json:"coverage"`
	Uncertainty float64    `json:"uncertainty"`
	Confidence  Confidence `json:"confidence"`
	Gap         *float64   `json:"gap,omitempty"`
	Flags       []Flag     `json:"flags,omitempty"`
}

// Evidence is the literature-extraction result. It never feeds score
// arithmetic; it corroborates or contradicts the numeric decision and is
// always persisted, even for unmatched samples.
type Evidence struct {
	Found      bool           `json:"found"`
	Type       EvidenceType   `json:"type"`
	Confidence float64        `json:"confidence"`
	Source     EvidenceSource `json:"source"`
}

// Meta records how and when the decision was made.
type Meta struct {
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
}

// MatchingMetadata is the durable per-sample matching result. Volcano and
// Scores are both present or both absent; Quality, Evidence, and Meta are
// always present so "why no match" stays inspectable. Computed once per
// sample per run and overwritten wholesale on re-run.
type MatchingMetadata struct {
	SampleID string          `json:"sample_id"`
	Volcano  *MatchedVolcano `json:"volcano,omitempty"`
	Scores   *AxisScores     `json:"scores,omitempty"`
	Quality  Quality         `json:"quality"`
	Evidence Evidence        `json:"evidence"`
	Meta     Meta            `json:"meta"`
}

// Matched reports whether a volcano was accepted for this sample.
func (m *MatchingMetadata) Matched() bool {
	return m.Volcano != nil
}

// Validate checks structural invariants and the closed token vocabulary.
func (m *MatchingMetadata) Validate() error {
	if m.SampleID == "" {
		return eris.New("metadata: missing sample id")
	}
	if (m.Volcano == nil) != (m.Scores == nil) {
		return eris.New("metadata: volcano and scores must be both present or both absent")
	}
	if !m.Quality.Confidence.Valid() {
		return eris.Errorf("metadata: invalid confidence token %q", m.Quality.Confidence)
	}
	if m.Volcano == nil && m.Quality.Confidence != ConfidenceNone {
		return eris.Errorf("metadata: unmatched sample cannot carry confidence %q", m.Quality.Confidence)
	}
	if m.Quality.Coverage < 0 || m.Quality.Coverage > 1 {
		return eris.Errorf("metadata: coverage %v out of [0,1]", m.Quality.Coverage)
	}
	if m.Quality.Uncertainty < 0 || m.Quality.Uncertainty > 1 {
		return eris.Errorf("metadata: uncertainty %v out of [0,1]", m.Quality.Uncertainty)
	}
	for _, f := range m.Quality.Flags {
		if !f.Valid() {
			return eris.Errorf("metadata: invalid flag token %q", f)
		}
	}
	if !m.Evidence.Type.Valid() {
		return eris.Errorf("metadata: invalid evidence type %q", m.Evidence.Type)
	}
	if !m.Evidence.Source.Valid() {
		return eris.Errorf("metadata: invalid evidence source %q", m.Evidence.Source)
	}
	if m.Evidence.Confidence < 0 || m.Evidence.Confidence > 1 {
		return eris.Errorf("metadata: evidence confidence %v out of [0,1]", m.Evidence.Confidence)
	}
	if m.Scores != nil {
		for name, v := range map[string]*float64{
			"spatial":      m.Scores.Spatial,
			"tectonic":     m.Scores.Tectonic,
			"temporal":     m.Scores.Temporal,
			"petrological": m.Scores.Petrological,
		} {
			if v != nil && (*v < 0 || *v > 1) {
				return eris.Errorf("metadata: %s score %v out of [0,1]", name, *v)
			}
		}
		if m.Scores.Final < 0 || m.Scores.Final > 1 {
			return eris.Errorf("metadata: final score %v out of [0,1]", m.Scores.Final)
		}
	}
	if m.Meta.Method == "" {
		return eris.New("metadata: missing method")
	}
	if m.Meta.Timestamp.IsZero() {
		return eris.New("metadata: missing timestamp")
	}
	return nil
}
