package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tephra-labs/volcmatch/internal/model"
)

func cand(number int, final, distance float64) candidate {
	return candidate{
		Volcano:    model.Volcano{Number: number, Name: "V"},
		DistanceKM: distance,
		Final:      final,
		Coverage:   1,
	}
}

func TestClassifyNoCandidates(t *testing.T) {
	d := classify(nil, DefaultPolicy())
	assert.Nil(t, d.Winner)
}

func TestClassifyBelowFloorRejects(t *testing.T) {
	d := classify([]candidate{cand(1, 0.49, 10), cand(2, 0.3, 20)}, DefaultPolicy())
	assert.Nil(t, d.Winner)
}

func TestClassifyClearWinner(t *testing.T) {
	d := classify([]candidate{cand(1, 0.9, 10), cand(2, 0.6, 20)}, DefaultPolicy())
	require.NotNil(t, d.Winner)
	assert.Equal(t, 1, d.Winner.Volcano.Number)
	assert.False(t, d.Ambiguous)
	require.NotNil(t, d.Gap)
	assert.InDelta(t, 0.3, *d.Gap, 1e-9)
}

func TestClassifyAmbiguousRunnerUp(t *testing.T) {
	d := classify([]candidate{cand(1, 0.80, 10), cand(2, 0.75, 20)}, DefaultPolicy())
	require.NotNil(t, d.Winner)
	assert.True(t, d.Ambiguous)
	require.NotNil(t, d.Gap)
	assert.InDelta(t, 0.05, *d.Gap, 1e-9)
}

func TestClassifySingleCandidateHasNoGap(t *testing.T) {
	d := classify([]candidate{cand(1, 0.8, 10)}, DefaultPolicy())
	require.NotNil(t, d.Winner)
	assert.Nil(t, d.Gap)
	assert.False(t, d.Ambiguous)
}

func TestRankCandidatesDeterministicTieBreak(t *testing.T) {
	cands := []candidate{
		cand(30, 0.8, 15),
		cand(10, 0.8, 15),
		cand(20, 0.8, 5),
		cand(40, 0.9, 50),
	}
	rankCandidates(cands)

	// Score first, then distance, then catalog number
	assert.Equal(t, 40, cands[0].Volcano.Number)
	assert.Equal(t, 20, cands[1].Volcano.Number)
	assert.Equal(t, 10, cands[2].Volcano.Number)
	assert.Equal(t, 30, cands[3].Volcano.Number)
}

func TestConfidenceFor(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name      string
		score     float64
		coverage  float64
		ambiguous bool
		want      model.Confidence
	}{
		{"high score full coverage", 0.85, 1.0, false, model.ConfidenceHigh},
		{"high score low coverage", 0.85, 0.5, false, model.ConfidenceMedium},
		{"medium score", 0.65, 1.0, false, model.ConfidenceMedium},
		{"floor score", 0.55, 1.0, false, model.ConfidenceLow},
		{"ambiguous caps high at medium", 0.85, 1.0, true, model.ConfidenceMedium},
		{"ambiguous medium drops to low", 0.65, 1.0, true, model.ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decision{Score: tt.score, Ambiguous: tt.ambiguous}
			assert.Equal(t, tt.want, confidenceFor(d, tt.coverage, p))
		})
	}
}

func TestUncertaintyFor(t *testing.T) {
	p := DefaultPolicy()

	// Full coverage, perfect score: no uncertainty
	assert.InDelta(t, 0, uncertaintyFor(1.0, 1.0, p), 1e-9)

	// Full coverage at the acceptance floor: only the proximity penalty
	assert.InDelta(t, floorProximityPenalty, uncertaintyFor(1.0, p.AcceptFloor, p), 1e-9)

	// Half coverage, perfect score: only the sparsity term
	assert.InDelta(t, 0.5, uncertaintyFor(0.5, 1.0, p), 1e-9)

	// Both terms combine and clamp to 1
	assert.LessOrEqual(t, uncertaintyFor(0, p.AcceptFloor, p), 1.0)

	// Higher scores carry a smaller penalty
	assert.Less(t, uncertaintyFor(1.0, 0.9, p), uncertaintyFor(1.0, 0.6, p))
}
