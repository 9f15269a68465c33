package matcher

// scoreSpatial converts a great-circle distance into a bounded similarity
// score with linear decay: 1 at distance 0, falling to 0 at the scoring
// radius. Linear falloff is exactly invertible when auditing stored scores
// against stored distances.
func scoreSpatial(distanceKM, radiusKM float64) float64 {
	if distanceKM <= 0 {
		return 1
	}
	s := 1 - distanceKM/radiusKM
	if s < 0 {
		return 0
	}
	return s
}
