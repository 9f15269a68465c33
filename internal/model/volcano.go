package model

// ActivityWindow is a volcano's known eruption date range. Either end may be
// nil for an open-ended window. Years are astronomical (negative = BCE).
type ActivityWindow struct {
	FirstYear *int `json:"first_year,omitempty"`
	LastYear  *int `json:"last_year,omitempty"`
}

// Open reports whether the window has no bound on either end.
func (w ActivityWindow) Open() bool {
	return w.FirstYear == nil && w.LastYear == nil
}

// Volcano is one catalog entry. Immutable during a matching run; the loaded
// catalog forms the candidate universe.
type Volcano struct {
	Number   int             `json:"number"`
	Name     string          `json:"name"`
	Point    Point           `json:"point"`
	Tectonic TectonicSetting `json:"tectonic"`

	// RockTypes is the ranked list of known erupted rock types:
	// index 0 is the primary type, 1 secondary, 2 tertiary.
	RockTypes []string `json:"rock_types,omitempty"`

	Region   string         `json:"region,omitempty"`
	Country  string         `json:"country,omitempty"`
	Activity ActivityWindow `json:"activity"`
}
