// Package model defines the sample, volcano, and match-decision records
// shared across the matching engine and its storage layer.
package model

// Point is a WGS84 geographic coordinate.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// TectonicSetting pairs the two independently classified tectonic descriptors.
type TectonicSetting struct {
	Regime Regime `json:"regime"`
	Crust  Crust  `json:"crust"`
}

// SampleDate is a collection/eruption date with optional precision and an
// optional symmetric uncertainty window. Year is astronomical: negative
// values are BCE.
type SampleDate struct {
	Year             int `json:"year"`
	Month            int `json:"month,omitempty"` // 1-12, 0 when unknown
	Day              int `json:"day,omitempty"`   // 1-31, 0 when unknown
	UncertaintyYears int `json:"uncertainty_years,omitempty"`
}

// YearOnly reports whether the date carries no month/day precision.
func (d SampleDate) YearOnly() bool {
	return d.Month == 0 && d.Day == 0
}

// Sample is one geochemical analysis record from an upstream petrology
// database. Immutable once ingested; the matcher only reads it.
type Sample struct {
	ID        string             `json:"id"`
	Source    string             `json:"source"`
	Point     Point              `json:"point"`
	RockType  string             `json:"rock_type,omitempty"`
	Tectonic  *TectonicSetting   `json:"tectonic,omitempty"`
	Date      *SampleDate        `json:"date,omitempty"`
	Title     string             `json:"title,omitempty"`
	Abstract  string             `json:"abstract,omitempty"`
	Reference string             `json:"reference,omitempty"`
	Oxides    map[string]float64 `json:"oxides,omitempty"` // not read by the matcher
}
