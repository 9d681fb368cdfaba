// Package quality rates a record's data quality across completeness,
// consistency, accuracy, timeliness, and compliance.
package quality

import (
	"math"
	"time"

	"github.com/carelink-health/assesscore/internal/config"
	"github.com/carelink-health/assesscore/internal/model"
)

// Assessor computes the composite quality profile for a record. All
// sub-scores are pure; the only environmental input is the clock, injected
// for testability.
type Assessor struct {
	tables          *config.Tables
	stalenessWindow time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewAssessor creates a quality assessor over the startup tables.
func NewAssessor(tables *config.Tables, cfg config.QualityConfig) *Assessor {
	window := cfg.StalenessWindow
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &Assessor{
		tables:          tables,
		stalenessWindow: window,
		nowFunc:         time.Now,
	}
}

// Assess combines the five sub-scores using the configured weights and
// maps the result onto the shared five-band category table.
func (a *Assessor) Assess(rec *model.IndicatorRecord) model.QualityProfile {
	breakdown := model.QualityBreakdown{
		Completeness: a.completeness(rec),
		Consistency:  a.consistency(rec),
		Accuracy:     rec.Validation.PassRate(),
		Timeliness:   a.timeliness(rec),
		Compliance:   a.compliance(rec),
	}

	w := a.tables.QualityWeights
	score := breakdown.Completeness*w.Completeness +
		breakdown.Consistency*w.Consistency +
		breakdown.Accuracy*w.Accuracy +
		breakdown.Timeliness*w.Timeliness +
		breakdown.Compliance*w.Compliance

	score = math.Round(score * 100)

	return model.QualityProfile{
		Score:     score,
		Category:  config.Categorize(score, a.tables.CompositeBands),
		Breakdown: breakdown,
	}
}

// completeness is items present over items required for the record's kind.
func (a *Assessor) completeness(rec *model.IndicatorRecord) float64 {
	required := a.tables.RequiredIndicators(rec.Kind)
	if len(required) == 0 {
		return 1.0
	}
	present := 0
	for _, ind := range required {
		if rec.Get(ind).Present() {
			present++
		}
	}
	return float64(present) / float64(len(required))
}

// consistency starts at 1.0 and subtracts the penalty of every
// contradiction rule whose paired conditions both hold.
func (a *Assessor) consistency(rec *model.IndicatorRecord) float64 {
	score := 1.0
	for _, rule := range a.tables.Consistency {
		if condHolds(rec, rule.When) && condHolds(rec, rule.Also) {
			score -= rule.Penalty
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

func condHolds(rec *model.IndicatorRecord, cond config.IndicatorCond) bool {
	v, ok := rec.Numeric(cond.Indicator)
	if !ok {
		return false
	}
	return v >= cond.Min && v <= cond.Max
}

// timeliness decays linearly from 1.0 to 0.0 over the staleness window.
func (a *Assessor) timeliness(rec *model.IndicatorRecord) float64 {
	if rec.RecordedAt.IsZero() {
		return 0
	}
	age := rec.Age(a.nowFunc())
	if age <= 0 {
		return 1.0
	}
	if age >= a.stalenessWindow {
		return 0
	}
	return 1.0 - float64(age)/float64(a.stalenessWindow)
}

// compliance is the fraction of compliance-required indicators present.
func (a *Assessor) compliance(rec *model.IndicatorRecord) float64 {
	if len(a.tables.Compliance) == 0 {
		return 1.0
	}
	present := 0
	for _, ind := range a.tables.Compliance {
		if rec.Get(ind).Present() {
			present++
		}
	}
	return float64(present) / float64(len(a.tables.Compliance))
}
