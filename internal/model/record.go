// Package model defines the core assessment data structures shared across
// the scoring, risk, quality, and recommendation engines.
package model

import "time"

// AssessmentKind selects which domain and weight tables apply to a record.
type AssessmentKind string

const (
	KindStartOfCare    AssessmentKind = "start_of_care"
	KindRecertification AssessmentKind = "recertification"
	KindOutcomeMeasure AssessmentKind = "outcome_measure"
)

// Domain is a named grouping of related indicators scored together before
// composite combination.
type Domain string

const (
	DomainFunctional   Domain = "functional"
	DomainCognitive    Domain = "cognitive"
	DomainClinical     Domain = "clinical"
	DomainSensory      Domain = "sensory"
	DomainMedication   Domain = "medication"
	DomainPsychosocial Domain = "psychosocial"
)

// Indicator identifies a single named, typed data point within a record.
type Indicator string

// Functional domain indicators.
const (
	IndGrooming     Indicator = "grooming"
	IndDressing     Indicator = "dressing"
	IndBathing      Indicator = "bathing"
	IndToileting    Indicator = "toileting"
	IndTransferring Indicator = "transferring"
	IndAmbulation   Indicator = "ambulation"
)

// Cognitive domain indicators.
const (
	IndCognitiveFunction Indicator = "cognitive_function"
	IndConfusion         Indicator = "confusion_frequency"
	IndAnxiety           Indicator = "anxiety_level"
	IndMemoryDeficit     Indicator = "memory_deficit"
)

// Clinical domain indicators.
const (
	IndPainFrequency    Indicator = "pain_frequency"
	IndDyspnea          Indicator = "dyspnea"
	IndPressureUlcer    Indicator = "pressure_ulcer_stage"
	IndSurgicalWound    Indicator = "surgical_wound_status"
	IndIncontinence     Indicator = "urinary_incontinence"
)

// Sensory domain indicators.
const (
	IndVision  Indicator = "vision_impairment"
	IndHearing Indicator = "hearing_impairment"
	IndSpeech  Indicator = "speech_impairment"
)

// Medication domain indicators.
const (
	IndOralMedMgmt     Indicator = "oral_med_management"
	IndInjectableMgmt  Indicator = "injectable_med_management"
	IndHighRiskDrugUse Indicator = "high_risk_drug_use"
	IndDrugRegimenDate Indicator = "drug_regimen_review_date"
)

// Psychosocial domain indicators.
const (
	IndLivesAlone        Indicator = "lives_alone"
	IndCaregiverSupport  Indicator = "caregiver_support"
	IndDepressionScreen  Indicator = "depression_screen"
	IndSafetyHazards     Indicator = "safety_hazards"
)

// History indicators (not tied to a scored domain).
const (
	IndPriorHospitalizations Indicator = "prior_hospitalizations"
	IndFallHistory           Indicator = "fall_history"
	IndBedfast               Indicator = "bedfast"
)

// ValueKind declares how an indicator value is typed.
type ValueKind int

const (
	ValueNumeric ValueKind = iota
	ValueCode
	ValueDate
)

// Value is an optional typed indicator value. The zero Value is absent;
// absence is never an error, it simply excludes the indicator from scoring.
type Value struct {
	kind    ValueKind
	num     float64
	code    string
	date    time.Time
	present bool
}

// Num builds a numeric value.
func Num(v float64) Value { return Value{kind: ValueNumeric, num: v, present: true} }

// Code builds an enumerated-code value.
func Code(c string) Value { return Value{kind: ValueCode, code: c, present: true} }

// Date builds a date value.
func Date(t time.Time) Value { return Value{kind: ValueDate, date: t, present: true} }

// Present reports whether the value was recorded at all.
func (v Value) Present() bool { return v.present }

// Kind returns the declared value kind. Only meaningful when Present.
func (v Value) Kind() ValueKind { return v.kind }

// Numeric returns the numeric payload. ok is false for absent or non-numeric
// values, so a missing field can never be silently treated as zero.
func (v Value) Numeric() (f float64, ok bool) {
	if !v.present || v.kind != ValueNumeric {
		return 0, false
	}
	return v.num, true
}

// CodeValue returns the enumerated-code payload.
func (v Value) CodeValue() (string, bool) {
	if !v.present || v.kind != ValueCode {
		return "", false
	}
	return v.code, true
}

// DateValue returns the date payload.
func (v Value) DateValue() (time.Time, bool) {
	if !v.present || v.kind != ValueDate {
		return time.Time{}, false
	}
	return v.date, true
}

// ValidationReport is the upstream validator's summary of range/type checks.
// The core trusts it rather than re-validating indicator values.
type ValidationReport struct {
	Checked int `json:"checked"`
	Passed  int `json:"passed"`
}

// PassRate returns the fraction of checked indicators that passed, or 1.0
// when nothing was checked.
func (r ValidationReport) PassRate() float64 {
	if r.Checked <= 0 {
		return 1.0
	}
	return float64(r.Passed) / float64(r.Checked)
}

// IndicatorRecord is a validated bag of typed clinical indicators. It is
// immutable once handed to the core: engines read values, never write them.
type IndicatorRecord struct {
	Kind       AssessmentKind             `json:"kind"`
	RecordedAt time.Time                  `json:"recorded_at"`
	Values     map[Indicator]Value        `json:"-"`
	Validation ValidationReport           `json:"validation"`
}

// Get returns the value for an indicator; the zero Value when absent.
func (r *IndicatorRecord) Get(ind Indicator) Value {
	if r == nil || r.Values == nil {
		return Value{}
	}
	return r.Values[ind]
}

// Numeric is a convenience accessor for numeric indicators.
func (r *IndicatorRecord) Numeric(ind Indicator) (float64, bool) {
	return r.Get(ind).Numeric()
}

// Age returns the record's age relative to now.
func (r *IndicatorRecord) Age(now time.Time) time.Duration {
	if r.RecordedAt.IsZero() {
		return 0
	}
	return now.Sub(r.RecordedAt)
}
