package risk

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/carelink-health/assesscore/internal/config"
	"github.com/carelink-health/assesscore/internal/model"
)

// Alert thresholds: a single severe factor surfaces regardless of the
// composite band.
const (
	alertHighThreshold     = 0.6
	alertCriticalThreshold = 0.8
)

// Composite risk level bands (0-100).
const (
	levelLowMin      = 25.0
	levelModerateMin = 50.0
	levelHighMin     = 75.0
	levelCriticalMin = 90.0
)

// levelFor maps a composite risk score to its five-band level.
func levelFor(composite float64) model.RiskLevel {
	switch {
	case composite >= levelCriticalMin:
		return model.RiskCritical
	case composite >= levelHighMin:
		return model.RiskHigh
	case composite >= levelModerateMin:
		return model.RiskModerate
	case composite >= levelLowMin:
		return model.RiskLow
	default:
		return model.RiskMinimal
	}
}

// ReadmissionEstimator is the narrow view of the prediction fallback chain
// the stratifier needs. It never fails: exhaustion yields the baseline.
type ReadmissionEstimator interface {
	Predict(ctx context.Context, rec *model.IndicatorRecord) (probability float64, source string)
}

// Stratifier computes the full risk profile for a record.
type Stratifier struct {
	weights   map[string]float64
	estimator ReadmissionEstimator

	// names is the sorted factor list, fixed at construction for
	// deterministic output order.
	names []string
}

// NewStratifier builds a stratifier from the startup weight table. Every
// weighted factor must have a registered scoring function; a mismatch is a
// configuration error, caught at startup rather than per request.
func NewStratifier(tables *config.Tables, estimator ReadmissionEstimator) (*Stratifier, error) {
	names := make([]string, 0, len(tables.RiskWeights))
	for name := range tables.RiskWeights {
		if _, ok := factorFuncs[name]; !ok {
			return nil, config.NewConfigurationError("risk weight references unknown factor %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return &Stratifier{
		weights:   tables.RiskWeights,
		estimator: estimator,
		names:     names,
	}, nil
}

// predictionBlend weights the external estimate against the purely
// historical sub-score for the readmission factor.
const predictionBlend = 0.6

// Assess scores every weighted factor, blends the external readmission
// estimate, and combines the factors into a composite level plus alerts.
func (s *Stratifier) Assess(ctx context.Context, rec *model.IndicatorRecord) model.RiskProfile {
	factors := make([]model.RiskFactor, 0, len(s.names))
	var weighted float64

	for _, name := range s.names {
		score := factorFuncs[name](rec)

		if name == ReadmissionFactor && s.estimator != nil {
			predicted, source := s.estimator.Predict(ctx, rec)
			score = clamp01(predictionBlend*predicted + (1-predictionBlend)*score)
			zap.L().Debug("risk: readmission estimate",
				zap.Float64("predicted", predicted),
				zap.String("source", source),
				zap.Float64("blended", score),
			)
		}

		factors = append(factors, model.RiskFactor{Name: name, Score: score})
		weighted += score * s.weights[name]
	}

	composite := math.Round(100 * weighted)

	return model.RiskProfile{
		CompositeRisk: composite,
		Level:         levelFor(composite),
		Factors:       factors,
		Alerts:        alertsFor(factors),
	}
}

// alertsFor emits one alert per factor crossing the high or critical
// threshold, independent of the composite band.
func alertsFor(factors []model.RiskFactor) []model.Alert {
	var alerts []model.Alert
	for _, f := range factors {
		switch {
		case f.Score >= alertCriticalThreshold:
			alerts = append(alerts, model.Alert{
				Factor:   f.Name,
				Severity: model.AlertCritical,
				Message:  fmt.Sprintf("%s risk factor at %.2f requires immediate intervention", f.Name, f.Score),
			})
		case f.Score >= alertHighThreshold:
			alerts = append(alerts, model.Alert{
				Factor:   f.Name,
				Severity: model.AlertHigh,
				Message:  fmt.Sprintf("%s risk factor at %.2f warrants close monitoring", f.Name, f.Score),
			})
		}
	}
	return alerts
}
