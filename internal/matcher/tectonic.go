package matcher

import "github.com/tephra-labs/volcmatch/internal/model"

// Tectonic axis scores. An unknown regime on either side is neutral (no
// penalty, no bonus): the axis goes unusable rather than scoring 0.
const (
	tectonicFullMatch    = 1.0  // regime and crust both match
	tectonicRegimeOnly   = 0.8  // regime match, crust unknown on a side
	tectonicCrustClash   = 0.6  // regime match, crust mismatch
	tectonicRegimeClash  = 0.1  // regime mismatch: minimum non-neutral score
)

// scoreTectonic compares the sample and volcano tectonic descriptors.
func scoreTectonic(sample *model.TectonicSetting, volcano model.TectonicSetting) axisResult {
	if sample == nil {
		return axisNeutral()
	}
	if sample.Regime == model.RegimeUnknown || sample.Regime == "" ||
		volcano.Regime == model.RegimeUnknown || volcano.Regime == "" {
		return axisNeutral()
	}

	if sample.Regime != volcano.Regime {
		return axis(tectonicRegimeClash)
	}

	// Regime matches; refine by crust if both sides know it.
	if sample.Crust == model.CrustUnknown || sample.Crust == "" ||
		volcano.Crust == model.CrustUnknown || volcano.Crust == "" {
		return axis(tectonicRegimeOnly)
	}
	if sample.Crust == volcano.Crust {
		return axis(tectonicFullMatch)
	}
	return axis(tectonicCrustClash)
}
