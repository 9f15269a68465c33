package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tephra-labs/volcmatch/internal/model"
	"github.com/tephra-labs/volcmatch/internal/resilience"
)

// fakeSource is an in-memory CandidateSource with naive distance filtering.
type fakeSource struct {
	volcanoes []model.Volcano
	err       error
	calls     int
}

func (f *fakeSource) VolcanoesWithin(_ context.Context, p model.Point, radiusKM float64) ([]model.Volcano, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Volcano
	for _, v := range f.volcanoes {
		if HaversineKM(p, v.Point) <= radiusKM {
			out = append(out, v)
		}
	}
	return out, nil
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		ShouldRetry:    func(error) bool { return true },
	}
}

func vesuviusCatalog() *fakeSource {
	first := -1800
	last := 1944
	return &fakeSource{volcanoes: []model.Volcano{
		{
			Number: 211020,
			Name:   "Vesuvius",
			Point:  model.Point{Lon: 14.426, Lat: 40.821},
			Tectonic: model.TectonicSetting{
				Regime: model.RegimeSubduction,
				Crust:  model.CrustContinental,
			},
			RockTypes: []string{"phonolite", "trachyte"},
			Region:    "Campania",
			Country:   "Italy",
			Activity:  model.ActivityWindow{FirstYear: &first, LastYear: &last},
		},
	}}
}

func newTestMatcher(t *testing.T, src CandidateSource) *Matcher {
	t.Helper()
	m, err := New(src, DefaultPolicy(), WithClock(fixedClock()), WithRetry(fastRetry()))
	require.NoError(t, err)
	return m
}

func TestNewRejectsNilSource(t *testing.T) {
	_, err := New(nil, DefaultPolicy())
	assert.Error(t, err)
}

func TestNewRejectsInvalidPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.AcceptFloor = 2
	_, err := New(&fakeSource{}, p)
	assert.Error(t, err)
}

func TestMatchCompleteEvidenceHighConfidence(t *testing.T) {
	m := newTestMatcher(t, vesuviusCatalog())

	meta, err := m.Match(context.Background(), model.Sample{
		ID:       "GEOROC-1",
		Point:    model.Point{Lon: 14.426, Lat: 40.821}, // exactly at the vent
		RockType: "phonolite",
		Tectonic: &model.TectonicSetting{Regime: model.RegimeSubduction, Crust: model.CrustContinental},
		Date:     &model.SampleDate{Year: 79, Month: 8, Day: 24},
		Title:    "The AD 79 eruption of Vesuvius",
	})
	require.NoError(t, err)
	require.NoError(t, meta.Validate())

	require.True(t, meta.Matched())
	assert.Equal(t, "Vesuvius", meta.Volcano.Name)
	assert.Equal(t, 211020, meta.Volcano.Number)
	assert.Zero(t, meta.Volcano.DistanceKM)

	// All four axes perfect, full coverage
	assert.InDelta(t, 1.0, meta.Scores.Final, 1e-9)
	assert.InDelta(t, 1.0, meta.Quality.Coverage, 1e-9)
	assert.Equal(t, model.ConfidenceHigh, meta.Quality.Confidence)
	assert.Zero(t, meta.Quality.Uncertainty)
	assert.Empty(t, meta.Quality.Flags)

	assert.True(t, meta.Evidence.Found)
	assert.Equal(t, model.EvidenceExplicit, meta.Evidence.Type)
	assert.Equal(t, model.SourceTitle, meta.Evidence.Source)

	assert.Equal(t, Method, meta.Meta.Method)
	assert.Equal(t, fixedClock()(), meta.Meta.Timestamp)
}

func TestMatchMissingDateStillReachesHigh(t *testing.T) {
	m := newTestMatcher(t, vesuviusCatalog())

	meta, err := m.Match(context.Background(), model.Sample{
		ID:       "GEOROC-2",
		Point:    model.Point{Lon: 14.43, Lat: 40.82},
		RockType: "phonolite",
		Tectonic: &model.TectonicSetting{Regime: model.RegimeSubduction, Crust: model.CrustContinental},
	})
	require.NoError(t, err)

	require.True(t, meta.Matched())
	assert.Nil(t, meta.Scores.Temporal)
	assert.InDelta(t, 0.75, meta.Quality.Coverage, 1e-9)
	// Coverage 0.75 still meets the high-coverage bar
	assert.Equal(t, model.ConfidenceHigh, meta.Quality.Confidence)
	assert.Greater(t, meta.Quality.Uncertainty, 0.0)
}

func TestMatchNoCandidatesWithinRadius(t *testing.T) {
	m := newTestMatcher(t, vesuviusCatalog())

	meta, err := m.Match(context.Background(), model.Sample{
		ID:    "GEOROC-3",
		Point: model.Point{Lon: -40.0, Lat: 0.0}, // mid-Atlantic, ~500+ km from anything
	})
	require.NoError(t, err)
	require.NoError(t, meta.Validate())

	assert.False(t, meta.Matched())
	assert.Nil(t, meta.Scores)
	assert.Equal(t, model.ConfidenceNone, meta.Quality.Confidence)
	assert.Equal(t, []model.Flag{model.FlagBeyondRadius}, meta.Quality.Flags)
	assert.False(t, meta.Evidence.Found)
}

func TestMatchTwinVolcanoesAreAmbiguous(t *testing.T) {
	twins := &fakeSource{volcanoes: []model.Volcano{
		{Number: 1, Name: "North Twin", Point: model.Point{Lon: 0, Lat: 0.05}},
		{Number: 2, Name: "South Twin", Point: model.Point{Lon: 0, Lat: -0.05}},
	}}
	m := newTestMatcher(t, twins)

	meta, err := m.Match(context.Background(), model.Sample{
		ID:    "GEOROC-4",
		Point: model.Point{Lon: 0, Lat: 0},
	})
	require.NoError(t, err)

	require.True(t, meta.Matched())
	assert.Contains(t, meta.Quality.Flags, model.FlagCompetingCandidates)
	require.NotNil(t, meta.Quality.Gap)
	assert.Less(t, *meta.Quality.Gap, DefaultPolicy().AmbiguityGap)
	// Ambiguity caps confidence at medium even with a strong score
	assert.NotEqual(t, model.ConfidenceHigh, meta.Quality.Confidence)
}

func TestMatchBelowFloorIsUnmatchedButKeepsEvidence(t *testing.T) {
	// A single distant candidate with a clashing regime scores under the floor.
	far := &fakeSource{volcanoes: []model.Volcano{
		{
			Number:   5,
			Name:     "Farpeak",
			Point:    model.Point{Lon: 0, Lat: 0.85}, // ~95 km away
			Tectonic: model.TectonicSetting{Regime: model.RegimeRift, Crust: model.CrustOceanic},
			RockTypes: []string{
				"rhyolite",
			},
		},
	}}
	m := newTestMatcher(t, far)

	meta, err := m.Match(context.Background(), model.Sample{
		ID:       "GEOROC-5",
		Point:    model.Point{Lon: 0, Lat: 0},
		RockType: "basalt",
		Tectonic: &model.TectonicSetting{Regime: model.RegimeSubduction, Crust: model.CrustContinental},
		Title:    "New data on Farpeak lavas",
	})
	require.NoError(t, err)
	require.NoError(t, meta.Validate())

	assert.False(t, meta.Matched())
	assert.Equal(t, model.ConfidenceNone, meta.Quality.Confidence)
	// The rejected candidate's literature hit survives the rejection
	assert.True(t, meta.Evidence.Found)
	assert.Equal(t, model.EvidenceExplicit, meta.Evidence.Type)
	// Coverage reflects the rejected candidate's usable axes
	assert.InDelta(t, 0.75, meta.Quality.Coverage, 1e-9)
}

func TestMatchStoreFailureDegradesToUnmatched(t *testing.T) {
	src := &fakeSource{err: resilience.NewTransientError(context.DeadlineExceeded)}
	m := newTestMatcher(t, src)

	meta, err := m.Match(context.Background(), model.Sample{
		ID:    "GEOROC-6",
		Point: model.Point{Lon: 14.43, Lat: 40.82},
	})
	require.NoError(t, err)
	require.NoError(t, meta.Validate())

	assert.False(t, meta.Matched())
	assert.Equal(t, []model.Flag{model.FlagStoreUnavailable}, meta.Quality.Flags)
	assert.Equal(t, model.ConfidenceNone, meta.Quality.Confidence)
	// The query was retried before degrading
	assert.Equal(t, 2, src.calls)
}

func TestMatchRetrySucceedsOnSecondAttempt(t *testing.T) {
	src := vesuviusCatalog()
	flaky := &flakySource{inner: src, failures: 1}
	m := newTestMatcher(t, flaky)

	meta, err := m.Match(context.Background(), model.Sample{
		ID:    "GEOROC-7",
		Point: model.Point{Lon: 14.43, Lat: 40.82},
	})
	require.NoError(t, err)
	assert.True(t, meta.Matched())
}

type flakySource struct {
	inner    CandidateSource
	failures int
}

func (f *flakySource) VolcanoesWithin(ctx context.Context, p model.Point, radiusKM float64) ([]model.Volcano, error) {
	if f.failures > 0 {
		f.failures--
		return nil, resilience.NewTransientError(context.DeadlineExceeded)
	}
	return f.inner.VolcanoesWithin(ctx, p, radiusKM)
}

func TestMatchIsDeterministic(t *testing.T) {
	m := newTestMatcher(t, vesuviusCatalog())
	sample := model.Sample{
		ID:       "GEOROC-8",
		Point:    model.Point{Lon: 14.5, Lat: 40.9},
		RockType: "trachyte",
		Title:    "Trachytes of the Campanian province",
	}

	first, err := m.Match(context.Background(), sample)
	require.NoError(t, err)
	second, err := m.Match(context.Background(), sample)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatchDeterministicTieBreakAcrossOrderings(t *testing.T) {
	a := model.Volcano{Number: 1, Name: "Alpha", Point: model.Point{Lon: 0, Lat: 0.1}}
	b := model.Volcano{Number: 2, Name: "Beta", Point: model.Point{Lon: 0, Lat: -0.1}}
	sample := model.Sample{ID: "GEOROC-9", Point: model.Point{Lon: 0, Lat: 0}}

	m1 := newTestMatcher(t, &fakeSource{volcanoes: []model.Volcano{a, b}})
	m2 := newTestMatcher(t, &fakeSource{volcanoes: []model.Volcano{b, a}})

	r1, err := m1.Match(context.Background(), sample)
	require.NoError(t, err)
	r2, err := m2.Match(context.Background(), sample)
	require.NoError(t, err)

	assert.Equal(t, r1.Volcano.Number, r2.Volcano.Number)
	assert.Equal(t, 1, r1.Volcano.Number) // equidistant and tied: lowest catalog number wins
}

func TestMatchOutOfWindowDateFlagsWinner(t *testing.T) {
	m := newTestMatcher(t, vesuviusCatalog())

	meta, err := m.Match(context.Background(), model.Sample{
		ID:       "GEOROC-10",
		Point:    model.Point{Lon: 14.43, Lat: 40.82},
		RockType: "phonolite",
		Date:     &model.SampleDate{Year: 2044, Month: 1}, // 100 years past the window
	})
	require.NoError(t, err)

	require.True(t, meta.Matched())
	assert.Contains(t, meta.Quality.Flags, model.FlagOutOfWindow)
	require.NotNil(t, meta.Scores.Temporal)
	assert.InDelta(t, 0.8, *meta.Scores.Temporal, 1e-9)
}
