package matcher

// aggregate computes the candidate's final weighted score and coverage.
// Axes with no usable input are excluded and the remaining weights are
// renormalized to sum to 1, keeping final scores comparable across samples
// with different data completeness; coverage reports the completeness
// separately.
func aggregate(c *candidate, w Weights) {
	type axisWeight struct {
		res    axisResult
		weight float64
	}
	axes := []axisWeight{
		{c.Spatial, w.Spatial},
		{c.Tectonic, w.Tectonic},
		{c.Temporal, w.Temporal},
		{c.Petrological, w.Petrological},
	}

	var weightSum, scoreSum float64
	var usable int
	for _, a := range axes {
		if !a.res.Usable {
			continue
		}
		usable++
		weightSum += a.weight
		scoreSum += a.weight * a.res.Score
	}

	c.Coverage = float64(usable) / float64(len(axes))
	if weightSum > 0 {
		c.Final = scoreSum / weightSum
	} else {
		c.Final = 0
	}
}
