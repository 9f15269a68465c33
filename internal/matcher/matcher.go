package matcher

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tephra-labs/volcmatch/internal/model"
	"github.com/tephra-labs/volcmatch/internal/resilience"
)

// Matcher runs the full per-sample pipeline: candidate generation, axis
// scoring, literature extraction, aggregation, and classification. It holds
// no mutable state, so one Matcher is safely shared across workers.
type Matcher struct {
	source CandidateSource
	policy Policy
	retry  resilience.RetryConfig
	now    func() time.Time
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithClock overrides the timestamp source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) { m.now = now }
}

// WithRetry overrides the candidate-query retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(m *Matcher) { m.retry = cfg }
}

// New validates the policy and returns a ready Matcher.
func New(source CandidateSource, policy Policy, opts ...Option) (*Matcher, error) {
	if source == nil {
		return nil, eris.New("matcher: nil candidate source")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	m := &Matcher{
		source: source,
		policy: policy,
		retry:  resilience.DefaultRetryConfig(),
		now:    time.Now,
	}
	m.retry.MaxAttempts = policy.QueryAttempts
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Match decides which volcano, if any, the sample originated from. Input
// incompleteness and store unavailability degrade to an unmatched outcome;
// the only error return is a schema violation in the produced document.
func (m *Matcher) Match(ctx context.Context, s model.Sample) (*model.MatchingMetadata, error) {
	volcanoes, err := resilience.DoVal(ctx, m.retry, func(ctx context.Context) ([]model.Volcano, error) {
		return m.source.VolcanoesWithin(ctx, s.Point, m.policy.SearchRadiusKM)
	})
	if err != nil {
		zap.L().Warn("matcher: candidate query failed, marking unmatched",
			zap.String("sample", s.ID),
			zap.Error(err),
		)
		return m.finishUnmatched(s, 0, noEvidence(), []model.Flag{model.FlagStoreUnavailable})
	}

	if len(volcanoes) == 0 {
		return m.finishUnmatched(s, 0, noEvidence(), []model.Flag{model.FlagBeyondRadius})
	}

	cands := make([]candidate, 0, len(volcanoes))
	for _, v := range volcanoes {
		cands = append(cands, m.score(s, v))
	}

	d := classify(cands, m.policy)
	if d.Winner == nil {
		// All candidates below the acceptance floor: terminal unmatched. The
		// rejected scores are not persisted; evidence and coverage still
		// describe the situation.
		rankCandidates(cands)
		best := cands[0]
		return m.finishUnmatched(s, best.Coverage, strongestEvidence(cands), nil)
	}

	w := d.Winner
	flags := append([]model.Flag(nil), w.Flags...)
	if d.Ambiguous {
		flags = append(flags, model.FlagCompetingCandidates)
	}

	meta := &model.MatchingMetadata{
		SampleID: s.ID,
		Volcano: &model.MatchedVolcano{
			Name:       w.Volcano.Name,
			Number:     w.Volcano.Number,
			DistanceKM: round2(w.DistanceKM),
		},
		Scores: &model.AxisScores{
			Spatial:      roundPtr(w.Spatial.ptr()),
			Tectonic:     roundPtr(w.Tectonic.ptr()),
			Temporal:     roundPtr(w.Temporal.ptr()),
			Petrological: roundPtr(w.Petrological.ptr()),
			Final:        round3(w.Final),
		},
		Quality: model.Quality{
			Coverage:    round3(w.Coverage),
			Uncertainty: round3(uncertaintyFor(w.Coverage, w.Final, m.policy)),
			Confidence:  confidenceFor(d, w.Coverage, m.policy),
			Gap:         roundPtr(d.Gap),
			Flags:       flags,
		},
		Evidence: roundEvidence(w.Evidence),
		Meta: model.Meta{
			Method:    Method,
			Timestamp: m.now().UTC().Truncate(time.Second),
		},
	}

	if err := meta.Validate(); err != nil {
		return nil, eris.Wrapf(err, "matcher: invalid decision for sample %s", s.ID)
	}
	return meta, nil
}

// score evaluates one (sample, volcano) candidate along all four axes plus
// literature evidence.
func (m *Matcher) score(s model.Sample, v model.Volcano) candidate {
	c := candidate{
		Volcano:    v,
		DistanceKM: HaversineKM(s.Point, v.Point),
	}

	c.Spatial = axis(scoreSpatial(c.DistanceKM, m.policy.ScoringRadiusKM))
	c.Tectonic = scoreTectonic(s.Tectonic, v.Tectonic)

	temporal, tFlags := scoreTemporal(s.Date, v.Activity, m.policy)
	c.Temporal = temporal
	c.Flags = append(c.Flags, tFlags...)

	petro, pFlags := scorePetrology(s.RockType, v.RockTypes)
	c.Petrological = petro
	c.Flags = append(c.Flags, pFlags...)

	c.Evidence = extractEvidence(s, v)

	aggregate(&c, m.policy.Weights)
	return c
}

// finishUnmatched builds the terminal unmatched document: no volcano, no
// scores, quality/evidence/meta always present so "why no match" stays
// inspectable.
func (m *Matcher) finishUnmatched(s model.Sample, coverage float64, ev model.Evidence, flags []model.Flag) (*model.MatchingMetadata, error) {
	meta := &model.MatchingMetadata{
		SampleID: s.ID,
		Quality: model.Quality{
			Coverage:    round3(coverage),
			Uncertainty: round3(clamp01(1 - coverage + floorProximityPenalty)),
			Confidence:  model.ConfidenceNone,
			Flags:       flags,
		},
		Evidence: roundEvidence(ev),
		Meta: model.Meta{
			Method:    Method,
			Timestamp: m.now().UTC().Truncate(time.Second),
		},
	}
	if err := meta.Validate(); err != nil {
		return nil, eris.Wrapf(err, "matcher: invalid decision for sample %s", s.ID)
	}
	return meta, nil
}

// strongestEvidence returns the highest-confidence literature result among
// the candidates, so "literature says X but the scores disagree" survives a
// rejection.
func strongestEvidence(cands []candidate) model.Evidence {
	best := noEvidence()
	for _, c := range cands {
		if c.Evidence.Confidence > best.Confidence {
			best = c.Evidence
		}
	}
	return best
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round3(*v)
	return &r
}

func roundEvidence(ev model.Evidence) model.Evidence {
	ev.Confidence = round3(ev.Confidence)
	return ev
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
