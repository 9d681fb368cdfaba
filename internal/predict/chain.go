package predict

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/carelink-health/assesscore/internal/model"
	"github.com/carelink-health/assesscore/internal/resilience"
)

// ChainConfig tunes the fallback chain.
type ChainConfig struct {
	// Timeout bounds each provider call. A timed-out call counts as a
	// reported failure against that provider's breaker. Default: 5s.
	Timeout time.Duration

	// Baseline is the static probability returned when every provider
	// fails or is short-circuited.
	Baseline float64

	// Retry is applied inside each provider call, so one logical attempt
	// reports one breaker outcome.
	Retry resilience.RetryConfig
}

// Chain tries providers in order through their circuit breakers and
// degrades to the static baseline instead of surfacing an error. Predict
// therefore never fails; a risk assessment can always complete.
type Chain struct {
	providers []Predictor
	breakers  *resilience.BreakerSet
	cfg       ChainConfig
}

// NewChain builds a fallback chain over the shared breaker set.
func NewChain(providers []Predictor, breakers *resilience.BreakerSet, cfg ChainConfig) *Chain {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Chain{providers: providers, breakers: breakers, cfg: cfg}
}

// Predict returns the first successful provider estimate, or the baseline.
// The second return reports which provider answered ("baseline" when the
// chain was exhausted).
func (c *Chain) Predict(ctx context.Context, rec *model.IndicatorRecord) (probability float64, source string) {
	for _, provider := range c.providers {
		cb := c.breakers.Get(provider.Name())

		p, err := resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (float64, error) {
			callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
			return resilience.DoVal(callCtx, c.cfg.Retry, func(ctx context.Context) (float64, error) {
				return provider.Predict(ctx, rec)
			})
		})
		if err == nil {
			return clamp01(p), provider.Name()
		}

		if resilience.IsServiceUnavailable(err) {
			zap.L().Debug("predict: provider short-circuited",
				zap.String("provider", provider.Name()),
			)
		} else {
			zap.L().Warn("predict: provider failed",
				zap.String("provider", provider.Name()),
				zap.Error(err),
			)
		}
	}

	return clamp01(c.cfg.Baseline), "baseline"
}
