package model

// Confidence is the final categorical judgment for a match decision.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Valid reports whether c is part of the closed confidence vocabulary.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceNone:
		return true
	}
	return false
}

// Regime classifies a location's plate-boundary context.
type Regime string

const (
	RegimeSubduction Regime = "subduction"
	RegimeRift       Regime = "rift"
	RegimeIntraplate Regime = "intraplate"
	RegimeUnknown    Regime = "unknown"
)

// Valid reports whether r is part of the closed regime vocabulary.
func (r Regime) Valid() bool {
	switch r {
	case RegimeSubduction, RegimeRift, RegimeIntraplate, RegimeUnknown:
		return true
	}
	return false
}

// Crust classifies the crust beneath a location.
type Crust string

const (
	CrustOceanic      Crust = "oceanic"
	CrustContinental  Crust = "continental"
	CrustIntermediate Crust = "intermediate"
	CrustUnknown      Crust = "unknown"
)

// Valid reports whether c is part of the closed crust vocabulary.
func (c Crust) Valid() bool {
	switch c {
	case CrustOceanic, CrustContinental, CrustIntermediate, CrustUnknown:
		return true
	}
	return false
}

// EvidenceType classifies a literature mention of a candidate volcano.
type EvidenceType string

const (
	EvidenceExplicit EvidenceType = "explicit"
	EvidencePartial  EvidenceType = "partial"
	EvidenceRegional EvidenceType = "regional"
	EvidenceNone     EvidenceType = "none"
)

// Valid reports whether t is part of the closed evidence-type vocabulary.
func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceExplicit, EvidencePartial, EvidenceRegional, EvidenceNone:
		return true
	}
	return false
}

// EvidenceSource names the sample text field a literature hit came from.
type EvidenceSource string

const (
	SourceTitle    EvidenceSource = "title"
	SourceAbstract EvidenceSource = "abstract"
	SourceNone     EvidenceSource = "none"
)

// Valid reports whether s is part of the closed evidence-source vocabulary.
func (s EvidenceSource) Valid() bool {
	switch s {
	case SourceTitle, SourceAbstract, SourceNone:
		return true
	}
	return false
}

// Flag is a compact quality/ambiguity token a downstream consumer translates
// to human language without re-running the engine.
type Flag string

const (
	FlagCompetingCandidates Flag = "score:competing_candidates"
	FlagLowPrecisionDate    Flag = "time:low_precision"
	FlagOutOfWindow         Flag = "time:out_of_window"
	FlagSecondaryRockMatch  Flag = "petro:secondary_match"
	FlagBeyondRadius        Flag = "spatial:beyond_radius"
	FlagStoreUnavailable    Flag = "store:unavailable"
)

// AllFlags returns the full closed flag vocabulary.
func AllFlags() []Flag {
	return []Flag{
		FlagCompetingCandidates, FlagLowPrecisionDate, FlagOutOfWindow,
		FlagSecondaryRockMatch, FlagBeyondRadius, FlagStoreUnavailable,
	}
}

// Valid reports whether f is part of the closed flag vocabulary.
func (f Flag) Valid() bool {
	switch f {
	case FlagCompetingCandidates, FlagLowPrecisionDate, FlagOutOfWindow,
		FlagSecondaryRockMatch, FlagBeyondRadius, FlagStoreUnavailable:
		return true
	}
	return false
}
