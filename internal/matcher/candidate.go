package matcher

import (
	"context"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// CandidateSource is the geospatial range-query capability consumed by
// candidate generation. The storage layer implements it.
type CandidateSource interface {
	// VolcanoesWithin returns every catalog volcano within radiusKM of p.
	VolcanoesWithin(ctx context.Context, p model.Point, radiusKM float64) ([]model.Volcano, error)
}

// axisResult is one evidence axis for one candidate. Usable is false when
// the axis had no usable input; such axes are excluded from the weighted
// sum and reduce coverage instead of contributing a score.
type axisResult struct {
	Score  float64
	Usable bool
}

func axis(score float64) axisResult  { return axisResult{Score: score, Usable: true} }
func axisNeutral() axisResult        { return axisResult{} }
func (a axisResult) ptr() *float64 {
	if !a.Usable {
		return nil
	}
	v := a.Score
	return &v
}

// candidate is one (sample, volcano) pairing under evaluation. Created per
// candidate per sample and discarded after aggregation; never persisted.
type candidate struct {
	Volcano    model.Volcano
	DistanceKM float64

	Spatial      axisResult
	Tectonic     axisResult
	Temporal     axisResult
	Petrological axisResult

	Final    float64
	Coverage float64

	Flags    []model.Flag
	Evidence model.Evidence
}
