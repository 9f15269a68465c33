// Package explain renders a matching result as human-readable prose for the
// inspect command and the lookup server.
package explain

import (
	"fmt"
	"strings"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// flagText translates every machine flag into one reviewer-facing sentence.
var flagText = map[model.Flag]string{
	model.FlagCompetingCandidates: "Another volcano scored within the ambiguity gap of the winner; the assignment should be reviewed.",
	model.FlagLowPrecisionDate:    "The sample date was too imprecise to score, so the temporal axis was excluded.",
	model.FlagOutOfWindow:         "The sample date falls outside the volcano's known activity window.",
	model.FlagSecondaryRockMatch:  "The rock type matched a secondary or related composition, not the volcano's primary rock type.",
	model.FlagBeyondRadius:        "No volcano lies within the search radius of the sample location.",
	model.FlagStoreUnavailable:    "The volcano catalog could not be queried; the sample is recorded as unmatched and should be re-run.",
}

var evidenceText = map[model.EvidenceType]string{
	model.EvidenceExplicit: "the literature names the volcano directly",
	model.EvidencePartial:  "the literature mentions part of the volcano name",
	model.EvidenceRegional: "the literature mentions the volcano's region",
	model.EvidenceNone:     "the literature carries no mention of the volcano",
}

// Render produces a multi-line prose explanation of a matching result.
func Render(m *model.MatchingMetadata) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sample %s: ", m.SampleID)
	if m.Matched() {
		fmt.Fprintf(&b, "matched to %s (volcano %d), %.1f km from the sample site, with %s confidence.\n",
			m.Volcano.Name, m.Volcano.Number, m.Volcano.DistanceKM, m.Quality.Confidence)
		writeScores(&b, m.Scores)
	} else {
		b.WriteString("no volcano assigned.\n")
	}

	fmt.Fprintf(&b, "Evidence coverage: %.0f%% of the scoring axes had usable input (uncertainty %.2f).\n",
		m.Quality.Coverage*100, m.Quality.Uncertainty)
	if m.Quality.Gap != nil {
		fmt.Fprintf(&b, "The winner led the runner-up by %.3f.\n", *m.Quality.Gap)
	}

	if m.Evidence.Found {
		fmt.Fprintf(&b, "Literature: %s (%s, confidence %.2f).\n",
			evidenceText[m.Evidence.Type], m.Evidence.Source, m.Evidence.Confidence)
	} else {
		fmt.Fprintf(&b, "Literature: %s.\n", evidenceText[model.EvidenceNone])
	}

	for _, f := range m.Quality.Flags {
		if text, ok := flagText[f]; ok {
			fmt.Fprintf(&b, "Note: %s\n", text)
		} else {
			fmt.Fprintf(&b, "Note: flag %s.\n", f)
		}
	}

	fmt.Fprintf(&b, "Decided by %s at %s.\n", m.Meta.Method, m.Meta.Timestamp.Format("2006-01-02 15:04:05 MST"))
	return b.String()
}

func writeScores(b *strings.Builder, s *model.AxisScores) {
	if s == nil {
		return
	}
	parts := make([]string, 0, 4)
	for _, axis := range []struct {
		name  string
		score *float64
	}{
		{"spatial", s.Spatial},
		{"tectonic", s.Tectonic},
		{"temporal", s.Temporal},
		{"petrological", s.Petrological},
	} {
		if axis.score == nil {
			parts = append(parts, axis.name+" n/a")
		} else {
			parts = append(parts, fmt.Sprintf("%s %.3f", axis.name, *axis.score))
		}
	}
	fmt.Fprintf(b, "Axis scores: %s; final %.3f.\n", strings.Join(parts, ", "), s.Final)
}
