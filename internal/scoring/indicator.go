// Package scoring converts raw indicator values into normalized domain
// scores and combines them into a weighted composite.
package scoring

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/carelink-health/assesscore/internal/config"
	"github.com/carelink-health/assesscore/internal/model"
)

// IndicatorScorer scores one domain of a record against the startup tables.
type IndicatorScorer struct {
	tables *config.Tables
}

// NewIndicatorScorer creates a scorer over an immutable table set.
func NewIndicatorScorer(tables *config.Tables) *IndicatorScorer {
	return &IndicatorScorer{tables: tables}
}

// Score normalizes the domain's present numeric indicators to 0-100:
// sum of present values / (itemsPresent × maxPerItemValue), scaled and
// rounded. Missing indicators are excluded from both the numerator and
// itemsCompleted — absence is never an error. Completeness is tracked
// independently of the score: an all-zero domain is fully scored and may
// still be fully complete.
func (s *IndicatorScorer) Score(domain model.Domain, rec *model.IndicatorRecord) (model.DomainScore, error) {
	kt, ok := s.tables.Kind(rec.Kind)
	if !ok {
		return model.DomainScore{}, eris.Errorf("scoring: no table for assessment kind %q", rec.Kind)
	}
	dt, ok := kt.Domains[domain]
	if !ok {
		return model.DomainScore{}, eris.Errorf("scoring: domain %q not declared for kind %q", domain, rec.Kind)
	}

	var sum float64
	completed := 0
	for _, ind := range dt.Indicators {
		if v, ok := rec.Numeric(ind); ok {
			sum += v
			completed++
		}
	}

	score := 0.0
	if completed > 0 {
		score = math.Round(sum / (float64(completed) * dt.MaxItemValue) * 100)
	}

	return model.DomainScore{
		Domain:         domain,
		Score:          score,
		ItemsCompleted: completed,
		ItemsTotal:     len(dt.Indicators),
		Category:       config.Categorize(score, dt.Bands),
	}, nil
}

// ScoreAll scores every domain declared for the record's kind, in no
// particular order.
func (s *IndicatorScorer) ScoreAll(rec *model.IndicatorRecord) ([]model.DomainScore, error) {
	kt, ok := s.tables.Kind(rec.Kind)
	if !ok {
		return nil, eris.Errorf("scoring: no table for assessment kind %q", rec.Kind)
	}

	out := make([]model.DomainScore, 0, len(kt.Domains))
	for domain := range kt.Domains {
		ds, err := s.Score(domain, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}
