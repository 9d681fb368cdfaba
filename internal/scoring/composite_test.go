package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink-health/assesscore/internal/config"
	"github.com/carelink-health/assesscore/internal/model"
)

func domainScore(d model.Domain, score float64, completed int) model.DomainScore {
	return model.DomainScore{Domain: d, Score: score, ItemsCompleted: completed, ItemsTotal: completed}
}

func TestCombine_WeightedSum(t *testing.T) {
	c := NewCompositeScorer(config.DefaultTables())

	scores := []model.DomainScore{
		domainScore(model.DomainFunctional, 80, 6),
		domainScore(model.DomainCognitive, 60, 4),
	}
	weights := map[model.Domain]float64{
		model.DomainFunctional: 0.5,
		model.DomainCognitive:  0.5,
	}

	cs := c.Combine(scores, weights)
	assert.Equal(t, 70.0, cs.Score)
	assert.Equal(t, "fair", cs.Category)
	require.Contains(t, cs.Breakdown, model.DomainFunctional)
	assert.Equal(t, 0.5, cs.Breakdown[model.DomainFunctional].Weight)
	assert.InDelta(t, 40.0, cs.Breakdown[model.DomainFunctional].Contribution, 0.001)
}

func TestCombine_RenormalizesOverPresentDomains(t *testing.T) {
	c := NewCompositeScorer(config.DefaultTables())

	// Only domain A present with weight 0.5: composite equals A's score
	// exactly, rather than being halved for the absent domain B.
	scores := []model.DomainScore{
		domainScore(model.DomainFunctional, 80, 6),
	}
	weights := map[model.Domain]float64{
		model.DomainFunctional: 0.5,
		model.DomainCognitive:  0.5,
	}

	cs := c.Combine(scores, weights)
	assert.Equal(t, 80.0, cs.Score)
	assert.NotContains(t, cs.Breakdown, model.DomainCognitive)
}

func TestCombine_ZeroCompletedDomainTreatedAsAbsent(t *testing.T) {
	c := NewCompositeScorer(config.DefaultTables())

	scores := []model.DomainScore{
		domainScore(model.DomainFunctional, 80, 6),
		{Domain: model.DomainCognitive, Score: 0, ItemsCompleted: 0, ItemsTotal: 4},
	}
	weights := map[model.Domain]float64{
		model.DomainFunctional: 0.5,
		model.DomainCognitive:  0.5,
	}

	cs := c.Combine(scores, weights)
	assert.Equal(t, 80.0, cs.Score, "a scored-but-empty domain must not drag the composite down")
}

func TestCombine_OrderInvariant(t *testing.T) {
	c := NewCompositeScorer(config.DefaultTables())

	weights := map[model.Domain]float64{
		model.DomainFunctional: 0.3,
		model.DomainCognitive:  0.3,
		model.DomainClinical:   0.4,
	}
	a := []model.DomainScore{
		domainScore(model.DomainFunctional, 90, 6),
		domainScore(model.DomainCognitive, 50, 4),
		domainScore(model.DomainClinical, 70, 5),
	}
	b := []model.DomainScore{a[2], a[0], a[1]}

	assert.Equal(t, c.Combine(a, weights).Score, c.Combine(b, weights).Score)
}

func TestCombine_EmptyInput(t *testing.T) {
	c := NewCompositeScorer(config.DefaultTables())

	cs := c.Combine(nil, map[model.Domain]float64{model.DomainFunctional: 1.0})
	assert.Equal(t, 0.0, cs.Score)
	assert.Equal(t, "critical", cs.Category)
}

func TestCombine_CategoryBands(t *testing.T) {
	c := NewCompositeScorer(config.DefaultTables())
	weights := map[model.Domain]float64{model.DomainFunctional: 1.0}

	cases := []struct {
		score float64
		want  string
	}{
		{95, "excellent"},
		{90, "excellent"},
		{85, "good"},
		{75, "fair"},
		{65, "poor"},
		{59, "critical"},
		{0, "critical"},
	}
	for _, tc := range cases {
		cs := c.Combine([]model.DomainScore{domainScore(model.DomainFunctional, tc.score, 6)}, weights)
		assert.Equal(t, tc.want, cs.Category, "score %.0f", tc.score)
	}
}
