// Package risk computes independent risk-factor scores, combines them into
// a composite risk level, and raises alerts for individually severe factors.
package risk

import (
	"github.com/carelink-health/assesscore/internal/model"
)

// maxRating is the top of the 0-3 function rating scale used by scored
// indicators (higher rating = better function).
const maxRating = 3.0

// FactorFunc computes a pure 0.0-1.0 risk sub-score from a record's
// declared indicator subset. Implementations must be deterministic: no
// clock, randomness, or external calls.
type FactorFunc func(rec *model.IndicatorRecord) float64

// ReadmissionFactor is the name of the one factor with an external
// sub-computation; its pure part lives here, the prediction blend in the
// stratifier.
const ReadmissionFactor = "readmission"

// factorFuncs maps factor names to their scoring functions. Adding a factor
// means adding a row here and a weight in the risk weight table.
var factorFuncs = map[string]FactorFunc{
	"fall":            fallRisk,
	"cognitive":       cognitiveRisk,
	"functional":      functionalRisk,
	"medication":      medicationRisk,
	"social":          socialRisk,
	ReadmissionFactor: historicalReadmissionRisk,
}

// deficit converts a 0-3 function rating into a 0-1 risk contribution.
func deficit(rec *model.IndicatorRecord, ind model.Indicator) (float64, bool) {
	v, ok := rec.Numeric(ind)
	if !ok {
		return 0, false
	}
	return clamp01(1 - v/maxRating), true
}

// flag reads a 0/1 history flag as a risk contribution.
func flag(rec *model.IndicatorRecord, ind model.Indicator) (float64, bool) {
	v, ok := rec.Numeric(ind)
	if !ok {
		return 0, false
	}
	if v >= 1 {
		return 1, true
	}
	return 0, true
}

// capped scales a raw count so that `cap` or more events saturate at 1.0.
func capped(rec *model.IndicatorRecord, ind model.Indicator, cap float64) (float64, bool) {
	v, ok := rec.Numeric(ind)
	if !ok {
		return 0, false
	}
	return clamp01(v / cap), true
}

// mean averages the present contributions; no data means no measured risk.
func mean(parts ...func() (float64, bool)) float64 {
	var sum float64
	n := 0
	for _, part := range parts {
		if v, ok := part(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func fallRisk(rec *model.IndicatorRecord) float64 {
	return mean(
		func() (float64, bool) { return deficit(rec, model.IndAmbulation) },
		func() (float64, bool) { return deficit(rec, model.IndTransferring) },
		func() (float64, bool) { return deficit(rec, model.IndSafetyHazards) },
		func() (float64, bool) { return capped(rec, model.IndFallHistory, 3) },
		func() (float64, bool) { return flag(rec, model.IndBedfast) },
	)
}

func cognitiveRisk(rec *model.IndicatorRecord) float64 {
	return mean(
		func() (float64, bool) { return deficit(rec, model.IndCognitiveFunction) },
		func() (float64, bool) { return deficit(rec, model.IndConfusion) },
		func() (float64, bool) { return deficit(rec, model.IndMemoryDeficit) },
		func() (float64, bool) { return deficit(rec, model.IndAnxiety) },
	)
}

func functionalRisk(rec *model.IndicatorRecord) float64 {
	return mean(
		func() (float64, bool) { return deficit(rec, model.IndGrooming) },
		func() (float64, bool) { return deficit(rec, model.IndDressing) },
		func() (float64, bool) { return deficit(rec, model.IndBathing) },
		func() (float64, bool) { return deficit(rec, model.IndToileting) },
		func() (float64, bool) { return deficit(rec, model.IndTransferring) },
		func() (float64, bool) { return deficit(rec, model.IndAmbulation) },
	)
}

func medicationRisk(rec *model.IndicatorRecord) float64 {
	return mean(
		func() (float64, bool) { return deficit(rec, model.IndOralMedMgmt) },
		func() (float64, bool) { return deficit(rec, model.IndInjectableMgmt) },
		func() (float64, bool) { return deficit(rec, model.IndHighRiskDrugUse) },
	)
}

func socialRisk(rec *model.IndicatorRecord) float64 {
	return mean(
		func() (float64, bool) { return flag(rec, model.IndLivesAlone) },
		func() (float64, bool) { return deficit(rec, model.IndCaregiverSupport) },
		func() (float64, bool) { return deficit(rec, model.IndDepressionScreen) },
	)
}

// historicalReadmissionRisk is the pure part of the readmission factor.
func historicalReadmissionRisk(rec *model.IndicatorRecord) float64 {
	v, ok := capped(rec, model.IndPriorHospitalizations, 3)
	if !ok {
		return 0
	}
	return v
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
