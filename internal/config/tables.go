package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/carelink-health/assesscore/internal/model"
)

// Band maps a minimum score (inclusive) to a category label. Bands are
// evaluated highest Min first; the first match wins.
type Band struct {
	Min   float64 `yaml:"min"`
	Label string  `yaml:"label"`
}

// Categorize resolves a score against a band table. The last band is the
// floor and matches anything below the others.
func Categorize(score float64, bands []Band) string {
	for _, b := range bands {
		if score >= b.Min {
			return b.Label
		}
	}
	if len(bands) > 0 {
		return bands[len(bands)-1].Label
	}
	return ""
}

// DomainTable declares the ordered indicator list for one domain, the
// maximum per-item value, and the domain's category bands.
type DomainTable struct {
	Indicators   []model.Indicator `yaml:"indicators"`
	MaxItemValue float64           `yaml:"max_item_value"`
	Bands        []Band            `yaml:"bands"`
}

// KindTable holds the domain tables and composite weights for one
// assessment kind. Weights must sum to 1.0 (startup invariant).
type KindTable struct {
	Domains map[model.Domain]DomainTable `yaml:"domains"`
	Weights map[model.Domain]float64     `yaml:"weights"`
}

// IndicatorCond is an inclusive numeric bound on one indicator. It matches
// only when the indicator is present.
type IndicatorCond struct {
	Indicator model.Indicator `yaml:"indicator"`
	Min       float64         `yaml:"min"`
	Max       float64         `yaml:"max"`
}

// ConsistencyRule flags a logical contradiction between paired indicators.
// The rule fires when both conditions hold on the same record.
type ConsistencyRule struct {
	Name    string        `yaml:"name"`
	When    IndicatorCond `yaml:"when"`
	Also    IndicatorCond `yaml:"also"`
	Penalty float64       `yaml:"penalty"`
}

// QualityWeights combines the five quality sub-scores. Must sum to 1.0.
type QualityWeights struct {
	Completeness float64 `yaml:"completeness"`
	Consistency  float64 `yaml:"consistency"`
	Accuracy     float64 `yaml:"accuracy"`
	Timeliness   float64 `yaml:"timeliness"`
	Compliance   float64 `yaml:"compliance"`
}

// Sum returns the total of all quality weights.
func (w QualityWeights) Sum() float64 {
	return w.Completeness + w.Consistency + w.Accuracy + w.Timeliness + w.Compliance
}

// Tables is the full startup-loaded, immutable configuration table set.
type Tables struct {
	Kinds          map[model.AssessmentKind]KindTable `yaml:"kinds"`
	CompositeBands []Band                             `yaml:"composite_bands"`
	RiskWeights    map[string]float64                 `yaml:"risk_weights"`
	QualityWeights QualityWeights                     `yaml:"quality_weights"`
	Consistency    []ConsistencyRule                  `yaml:"consistency_rules"`
	Compliance     []model.Indicator                  `yaml:"compliance_indicators"`
}

// Kind returns the table for an assessment kind.
func (t *Tables) Kind(kind model.AssessmentKind) (KindTable, bool) {
	kt, ok := t.Kinds[kind]
	return kt, ok
}

// RequiredIndicators returns the union of all domain indicators declared for
// a kind, the denominator for completeness scoring.
func (t *Tables) RequiredIndicators(kind model.AssessmentKind) []model.Indicator {
	kt, ok := t.Kinds[kind]
	if !ok {
		return nil
	}
	var out []model.Indicator
	for _, d := range kt.Domains {
		out = append(out, d.Indicators...)
	}
	return out
}

// LoadTables reads a table set from a YAML file.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "config: read tables file")
	}
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "config: parse tables file")
	}
	return &t, nil
}

// functionalBands grades independence in self-care domains.
var functionalBands = []Band{
	{Min: 75, Label: "independent"},
	{Min: 50, Label: "minimal_impairment"},
	{Min: 25, Label: "moderate_impairment"},
	{Min: 0, Label: "dependent"},
}

// clinicalBands grades clinical status domains.
var clinicalBands = []Band{
	{Min: 75, Label: "excellent"},
	{Min: 50, Label: "good"},
	{Min: 25, Label: "fair"},
	{Min: 0, Label: "poor"},
}

// DefaultCompositeBands is the five-band composite category table.
var DefaultCompositeBands = []Band{
	{Min: 90, Label: "excellent"},
	{Min: 80, Label: "good"},
	{Min: 70, Label: "fair"},
	{Min: 60, Label: "poor"},
	{Min: 0, Label: "critical"},
}

// DefaultTables returns the built-in assessment tables. Scored indicator
// values are function ratings on a 0-3 scale where higher is better;
// history indicators (falls, hospitalizations, bedfast) are raw counts or
// 0/1 flags.
func DefaultTables() *Tables {
	domains := map[model.Domain]DomainTable{
		model.DomainFunctional: {
			Indicators: []model.Indicator{
				model.IndGrooming, model.IndDressing, model.IndBathing,
				model.IndToileting, model.IndTransferring, model.IndAmbulation,
			},
			MaxItemValue: 3,
			Bands:        functionalBands,
		},
		model.DomainCognitive: {
			Indicators: []model.Indicator{
				model.IndCognitiveFunction, model.IndConfusion,
				model.IndAnxiety, model.IndMemoryDeficit,
			},
			MaxItemValue: 3,
			Bands:        functionalBands,
		},
		model.DomainClinical: {
			Indicators: []model.Indicator{
				model.IndPainFrequency, model.IndDyspnea, model.IndPressureUlcer,
				model.IndSurgicalWound, model.IndIncontinence,
			},
			MaxItemValue: 3,
			Bands:        clinicalBands,
		},
		model.DomainSensory: {
			Indicators: []model.Indicator{
				model.IndVision, model.IndHearing, model.IndSpeech,
			},
			MaxItemValue: 3,
			Bands:        clinicalBands,
		},
		model.DomainMedication: {
			Indicators: []model.Indicator{
				model.IndOralMedMgmt, model.IndInjectableMgmt, model.IndHighRiskDrugUse,
			},
			MaxItemValue: 3,
			Bands:        functionalBands,
		},
		model.DomainPsychosocial: {
			Indicators: []model.Indicator{
				model.IndCaregiverSupport, model.IndDepressionScreen, model.IndSafetyHazards,
			},
			MaxItemValue: 3,
			Bands:        clinicalBands,
		},
	}

	return &Tables{
		Kinds: map[model.AssessmentKind]KindTable{
			model.KindStartOfCare: {
				Domains: domains,
				Weights: map[model.Domain]float64{
					model.DomainFunctional:   0.30,
					model.DomainCognitive:    0.20,
					model.DomainClinical:     0.20,
					model.DomainMedication:   0.15,
					model.DomainPsychosocial: 0.10,
					model.DomainSensory:      0.05,
				},
			},
			model.KindRecertification: {
				Domains: domains,
				Weights: map[model.Domain]float64{
					model.DomainFunctional:   0.35,
					model.DomainClinical:     0.25,
					model.DomainCognitive:    0.15,
					model.DomainMedication:   0.15,
					model.DomainPsychosocial: 0.05,
					model.DomainSensory:      0.05,
				},
			},
			model.KindOutcomeMeasure: {
				Domains: map[model.Domain]DomainTable{
					model.DomainFunctional: domains[model.DomainFunctional],
					model.DomainClinical:   domains[model.DomainClinical],
					model.DomainCognitive:  domains[model.DomainCognitive],
				},
				Weights: map[model.Domain]float64{
					model.DomainFunctional: 0.50,
					model.DomainClinical:   0.30,
					model.DomainCognitive:  0.20,
				},
			},
		},
		CompositeBands: DefaultCompositeBands,
		RiskWeights: map[string]float64{
			"fall":        0.20,
			"cognitive":   0.15,
			"functional":  0.20,
			"medication":  0.15,
			"social":      0.10,
			"readmission": 0.20,
		},
		QualityWeights: QualityWeights{
			Completeness: 0.25,
			Consistency:  0.20,
			Accuracy:     0.25,
			Timeliness:   0.15,
			Compliance:   0.15,
		},
		Consistency: []ConsistencyRule{
			{
				Name:    "ambulatory_but_bedfast",
				When:    IndicatorCond{Indicator: model.IndAmbulation, Min: 3, Max: 3},
				Also:    IndicatorCond{Indicator: model.IndBedfast, Min: 1, Max: 1},
				Penalty: 0.25,
			},
			{
				Name:    "self_medicating_low_cognition",
				When:    IndicatorCond{Indicator: model.IndOralMedMgmt, Min: 3, Max: 3},
				Also:    IndicatorCond{Indicator: model.IndCognitiveFunction, Min: 0, Max: 1},
				Penalty: 0.20,
			},
			{
				Name:    "independent_grooming_dependent_dressing",
				When:    IndicatorCond{Indicator: model.IndGrooming, Min: 3, Max: 3},
				Also:    IndicatorCond{Indicator: model.IndDressing, Min: 0, Max: 0},
				Penalty: 0.15,
			},
		},
		Compliance: []model.Indicator{
			model.IndDrugRegimenDate,
			model.IndDepressionScreen,
		},
	}
}
