// Package engine wires the scoring, risk, quality, and recommendation
// engines behind a single rate-limited, cached evaluation entry point.
package engine

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/carelink-health/assesscore/internal/config"
	"github.com/carelink-health/assesscore/internal/events"
	"github.com/carelink-health/assesscore/internal/model"
	"github.com/carelink-health/assesscore/internal/predict"
	"github.com/carelink-health/assesscore/internal/quality"
	"github.com/carelink-health/assesscore/internal/recommend"
	"github.com/carelink-health/assesscore/internal/resilience"
	"github.com/carelink-health/assesscore/internal/risk"
	"github.com/carelink-health/assesscore/internal/scoring"
)

const cacheScope = "evaluate"

// Orchestrator is the evaluation entry point. It owns the resilience
// machinery (per-actor limiter, breaker set, result cache) and the
// downstream engines. Safe for concurrent use.
type Orchestrator struct {
	tables      *config.Tables
	cacheTTL    time.Duration
	limiter     *resilience.RateLimiter
	global      *rate.Limiter
	breakers    *resilience.BreakerSet
	cache       *resilience.Cache
	indicators  *scoring.IndicatorScorer
	composite   *scoring.CompositeScorer
	stratifier  *risk.Stratifier
	quality     *quality.Assessor
	recommender *recommend.Engine
	bus         *events.Bus
	validator   Validator
	flight      singleflight.Group
}

// New builds an orchestrator from validated configuration. The bus is
// optional; with a nil bus completion events are not published.
func New(cfg *config.Config, bus *events.Bus) (*Orchestrator, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, err
	}

	breakers := resilience.NewBreakerSet(resilience.BreakerConfig{
		FailureThreshold: cfg.Resilience.BreakerThreshold,
		ResetTimeout:     cfg.Resilience.BreakerReset,
	})

	var providers []predict.Predictor
	if cfg.Predict.AnthropicKey != "" {
		providers = append(providers, predict.NewModelPredictor(cfg.Predict.AnthropicKey, cfg.Predict.Model))
	}
	chain := predict.NewChain(providers, breakers, predict.ChainConfig{
		Timeout:  cfg.Predict.Timeout,
		Baseline: cfg.Predict.Baseline,
	})

	stratifier, err := risk.NewStratifier(cfg.Tables, chain)
	if err != nil {
		return nil, err
	}

	var global *rate.Limiter
	if cfg.Resilience.GlobalRatePerSec > 0 {
		burst := cfg.Resilience.GlobalBurst
		if burst <= 0 {
			burst = int(cfg.Resilience.GlobalRatePerSec)
		}
		global = rate.NewLimiter(rate.Limit(cfg.Resilience.GlobalRatePerSec), burst)
	}

	return &Orchestrator{
		tables:   cfg.Tables,
		cacheTTL: cfg.Resilience.CacheTTL,
		limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Window:    cfg.Resilience.RateWindow,
			Limit:     cfg.Resilience.RateLimit,
			IdleSweep: cfg.Resilience.RateSweepIdle,
		}),
		global: global,
		cache: resilience.NewCache(resilience.CacheConfig{
			DefaultTTL: cfg.Resilience.CacheTTL,
			Capacity:   cfg.Resilience.CacheCapacity,
		}),
		breakers:    breakers,
		indicators:  scoring.NewIndicatorScorer(cfg.Tables),
		composite:   scoring.NewCompositeScorer(cfg.Tables),
		stratifier:  stratifier,
		quality:     quality.NewAssessor(cfg.Tables, cfg.Quality),
		recommender: recommend.NewEngine(),
		bus:         bus,
		validator:   defaultValidator(cfg.Tables),
	}, nil
}

// SetValidator replaces the built-in record validator.
func (o *Orchestrator) SetValidator(v Validator) {
	if v != nil {
		o.validator = v
	}
}

// Evaluate runs the full pipeline for one record on behalf of actorID:
// admission control, validation, cache lookup, domain and composite scoring,
// risk stratification, quality assessment, and recommendation generation.
// Identical records served from cache carry Cached=true.
func (o *Orchestrator) Evaluate(ctx context.Context, rec *model.IndicatorRecord, actorID string) (*model.Result, error) {
	start := time.Now()

	if o.global != nil && !o.global.Allow() {
		return nil, &resilience.RateLimitError{ActorID: actorID, RetryAfter: time.Second}
	}
	if allowed, retryAfter := o.limiter.Admit(actorID); !allowed {
		zap.L().Warn("evaluation rate limited",
			zap.String("actor_id", actorID),
			zap.Duration("retry_after", retryAfter))
		return nil, &resilience.RateLimitError{ActorID: actorID, RetryAfter: retryAfter}
	}

	if err := o.validator.Validate(rec); err != nil {
		return nil, err
	}

	key := resilience.Key(cacheScope, string(rec.Kind), canonicalRecord(rec))
	if cached, ok := o.cache.Get(key); ok {
		result := cached.(model.Result)
		result.Cached = true
		result.DurationMs = time.Since(start).Milliseconds()
		return &result, nil
	}

	// Concurrent misses for the same record compute once.
	v, err, _ := o.flight.Do(key, func() (any, error) {
		return o.evaluate(ctx, rec, key)
	})
	if err != nil {
		return nil, err
	}

	result := v.(model.Result)
	result.DurationMs = time.Since(start).Milliseconds()
	o.publishCompleted(actorID, &result)
	return &result, nil
}

// evaluate runs the scoring pipeline on a cache miss and stores the result.
func (o *Orchestrator) evaluate(ctx context.Context, rec *model.IndicatorRecord, key string) (model.Result, error) {
	kt, ok := o.tables.Kind(rec.Kind)
	if !ok {
		return model.Result{}, &ValidationError{Field: "kind", Reason: "unknown assessment kind"}
	}

	domains := make([]model.Domain, 0, len(kt.Domains))
	for d := range kt.Domains {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })

	// Domain scores are independent; compute them in parallel.
	domainScores := make([]model.DomainScore, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	for i, domain := range domains {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := o.indicators.Score(domain, rec)
			if err != nil {
				return err
			}
			domainScores[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Result{}, err
	}

	result := model.Result{
		Composite: o.composite.Combine(domainScores, kt.Weights),
		Risk:      o.stratifier.Assess(ctx, rec),
		Quality:   o.quality.Assess(rec),
	}
	result.Recommendations = o.recommender.Recommend(recommend.Inputs{
		Composite: result.Composite,
		Risk:      result.Risk,
		Quality:   result.Quality,
	})

	// A cancelled evaluation may hold partial downstream answers; never
	// let those poison the cache.
	if ctx.Err() == nil {
		o.cache.Set(key, result, o.cacheTTL)
	}
	return result, nil
}

func (o *Orchestrator) publishCompleted(actorID string, result *model.Result) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(model.Event{
		Type: model.EvaluationCompleted,
		Payload: map[string]any{
			"actorId":        actorID,
			"compositeScore": result.Composite.Score,
			"riskLevel":      string(result.Risk.Level),
			"durationMs":     result.DurationMs,
		},
	})
}

// ReportDependencyOutcome feeds an externally observed dependency outcome
// into that dependency's circuit breaker.
func (o *Orchestrator) ReportDependencyOutcome(dependency string, success bool) {
	o.breakers.Report(dependency, success)
}

// Status is a point-in-time snapshot of the resilience machinery.
type Status struct {
	ActiveActors int                        `json:"active_actors"`
	Breakers     []resilience.BreakerStatus `json:"breakers"`
	Cache        resilience.CacheStats      `json:"cache"`
}

// ResilienceStatus reports limiter, breaker, and cache health.
func (o *Orchestrator) ResilienceStatus() Status {
	return Status{
		ActiveActors: o.limiter.ActiveActors(),
		Breakers:     o.breakers.Snapshots(),
		Cache:        o.cache.Stats(),
	}
}

// canonicalRecord reduces a record to a stable, actor-independent shape for
// cache keying. Two records with the same kind, timestamp, and values always
// produce the same key.
func canonicalRecord(rec *model.IndicatorRecord) map[string]any {
	values := make(map[string]any, len(rec.Values))
	for ind, v := range rec.Values {
		if !v.Present() {
			continue
		}
		switch v.Kind() {
		case model.ValueNumeric:
			n, _ := v.Numeric()
			values[string(ind)] = n
		case model.ValueCode:
			c, _ := v.CodeValue()
			values[string(ind)] = "c:" + c
		case model.ValueDate:
			d, _ := v.DateValue()
			values[string(ind)] = "d:" + d.UTC().Format(time.RFC3339)
		}
	}
	return map[string]any{
		"recordedAt": rec.RecordedAt.UTC().Format(time.RFC3339),
		"values":     values,
		"validation": []int{rec.Validation.Checked, rec.Validation.Passed},
	}
}

// defaultValidator enforces the minimal request contract: a record must
// exist, name a configured assessment kind, and carry at least one value;
// scored numeric ratings must stay within their domain's item range.
func defaultValidator(tables *config.Tables) Validator {
	return ValidatorFunc(func(rec *model.IndicatorRecord) error {
		if rec == nil {
			return &ValidationError{Field: "record", Reason: "record is required"}
		}
		kt, ok := tables.Kind(rec.Kind)
		if !ok {
			return &ValidationError{Field: "kind", Reason: "unknown assessment kind"}
		}
		if len(rec.Values) == 0 {
			return &ValidationError{Field: "values", Reason: "at least one indicator is required"}
		}
		for domain, dt := range kt.Domains {
			for _, ind := range dt.Indicators {
				n, ok := rec.Numeric(ind)
				if !ok {
					continue
				}
				if n < 0 || n > dt.MaxItemValue {
					return &ValidationError{
						Field:  string(ind),
						Reason: "rating out of range for domain " + string(domain),
					}
				}
			}
		}
		return nil
	})
}
