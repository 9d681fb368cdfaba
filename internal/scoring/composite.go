package scoring

import (
	"math"

	"github.com/carelink-health/assesscore/internal/config"
	"github.com/carelink-health/assesscore/internal/model"
)

// CompositeScorer combines domain scores via configured weights.
type CompositeScorer struct {
	bands []config.Band
}

// NewCompositeScorer creates a combiner using the shared composite bands.
func NewCompositeScorer(tables *config.Tables) *CompositeScorer {
	return &CompositeScorer{bands: tables.CompositeBands}
}

// Combine computes Σ(score × weight) / Σ(weight for domains present).
// A domain with no completed items counts as absent and its weight is
// dropped from the denominator: an incomplete record is re-normalized over
// what it does contain, never penalized for missing whole domains.
func (c *CompositeScorer) Combine(domainScores []model.DomainScore, weights map[model.Domain]float64) model.CompositeScore {
	breakdown := make(map[model.Domain]model.DomainContribution, len(domainScores))

	var weighted, presentWeight float64
	for _, ds := range domainScores {
		w, ok := weights[ds.Domain]
		if !ok || ds.ItemsCompleted == 0 {
			continue
		}
		weighted += ds.Score * w
		presentWeight += w
	}

	score := 0.0
	if presentWeight > 0 {
		score = weighted / presentWeight
	}

	for _, ds := range domainScores {
		w, ok := weights[ds.Domain]
		if !ok || ds.ItemsCompleted == 0 {
			continue
		}
		breakdown[ds.Domain] = model.DomainContribution{
			Score:        ds.Score,
			Weight:       w,
			Contribution: ds.Score * w / presentWeight,
		}
	}

	score = math.Round(score*10) / 10

	return model.CompositeScore{
		Score:     score,
		Category:  config.Categorize(score, c.bands),
		Breakdown: breakdown,
	}
}
