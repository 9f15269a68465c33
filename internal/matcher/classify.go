package matcher

import (
	"sort"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// floorProximityPenalty is the maximum uncertainty added when an accepted
// final score sits right at the acceptance floor.
const floorProximityPenalty = 0.25

// decision is the classified outcome for one sample across all candidates.
type decision struct {
	Winner    *candidate
	Gap       *float64
	Ambiguous bool
	Score     float64 // winner's final, valid only when Winner != nil
}

// rankCandidates orders candidates by final score descending with a
// deterministic tie-break (distance, then catalog number) so re-runs on an
// unchanged snapshot yield identical output.
func rankCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Final != cands[j].Final {
			return cands[i].Final > cands[j].Final
		}
		if cands[i].DistanceKM != cands[j].DistanceKM {
			return cands[i].DistanceKM < cands[j].DistanceKM
		}
		return cands[i].Volcano.Number < cands[j].Volcano.Number
	})
}

// classify ranks the candidates and applies the acceptance floor and the
// runner-up ambiguity check. A top score below the floor is a terminal
// unmatched outcome: weak evidence for every candidate.
func classify(cands []candidate, p Policy) decision {
	if len(cands) == 0 {
		return decision{}
	}
	rankCandidates(cands)

	top := &cands[0]
	if top.Final < p.AcceptFloor {
		return decision{}
	}

	d := decision{Winner: top, Score: top.Final}
	if len(cands) > 1 {
		gap := top.Final - cands[1].Final
		d.Gap = &gap
		d.Ambiguous = gap < p.AmbiguityGap
	}
	return d
}

// confidenceFor derives the categorical confidence for an accepted match.
// An ambiguous decision is capped at medium, never silently promoted.
func confidenceFor(d decision, coverage float64, p Policy) model.Confidence {
	switch {
	case d.Ambiguous:
		if d.Score >= p.HighScore {
			return model.ConfidenceMedium
		}
		return model.ConfidenceLow
	case d.Score >= p.HighScore && coverage >= p.HighCoverage:
		return model.ConfidenceHigh
	case d.Score >= p.MediumScore:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// uncertaintyFor combines input sparsity with floor proximity: a low final
// score near the acceptance floor raises uncertainty even at full coverage.
func uncertaintyFor(coverage, final float64, p Policy) float64 {
	u := 1 - coverage
	if span := 1 - p.AcceptFloor; span > 0 && final >= p.AcceptFloor {
		u += floorProximityPenalty * (1 - (final-p.AcceptFloor)/span)
	}
	if u < 0 {
		return 0
	}
	if u > 1 {
		return 1
	}
	return u
}
