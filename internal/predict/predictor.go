// Package predict supplies readmission probability estimates through a
// declarative fallback chain: ordered providers, each behind its own
// circuit breaker, tried until one succeeds, with a static baseline when
// the chain is exhausted.
package predict

import (
	"context"

	"github.com/carelink-health/assesscore/internal/model"
)

// Predictor estimates the probability (0.0-1.0) that the patient behind a
// record is readmitted within the measurement window.
type Predictor interface {
	// Name identifies the provider; it is also the circuit breaker key.
	Name() string
	Predict(ctx context.Context, rec *model.IndicatorRecord) (float64, error)
}

// Baseline is a constant-probability predictor used as the terminal chain
// member. It never fails.
type Baseline struct {
	Probability float64
}

// NewBaseline creates a static baseline predictor.
func NewBaseline(probability float64) *Baseline {
	return &Baseline{Probability: clamp01(probability)}
}

// Name implements Predictor.
func (b *Baseline) Name() string { return "baseline" }

// Predict implements Predictor.
func (b *Baseline) Predict(_ context.Context, _ *model.IndicatorRecord) (float64, error) {
	return b.Probability, nil
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
