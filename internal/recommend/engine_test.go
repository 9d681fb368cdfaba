package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink-health/assesscore/internal/model"
)

func goodInputs() Inputs {
	return Inputs{
		Composite: model.CompositeScore{Score: 92, Category: "excellent"},
		Risk: model.RiskProfile{
			Level: model.RiskMinimal,
			Factors: []model.RiskFactor{
				{Name: "fall", Score: 0.1},
				{Name: "cognitive", Score: 0.1},
				{Name: "functional", Score: 0.1},
				{Name: "medication", Score: 0.1},
				{Name: "social", Score: 0.1},
				{Name: "readmission", Score: 0.1},
			},
		},
		Quality: model.QualityProfile{
			Score:     95,
			Breakdown: model.QualityBreakdown{Timeliness: 1.0},
		},
	}
}

func setFactor(in *Inputs, name string, score float64) {
	for i := range in.Risk.Factors {
		if in.Risk.Factors[i].Name == name {
			in.Risk.Factors[i].Score = score
			return
		}
	}
}

func TestRecommend_HealthyInputsProduceNothing(t *testing.T) {
	recs := NewEngine().Recommend(goodInputs())
	assert.Empty(t, recs)
}

func TestRecommend_ElevatedFallRiskTriggersBundle(t *testing.T) {
	in := goodInputs()
	setFactor(&in, "fall", 0.65)

	recs := NewEngine().Recommend(in)
	require.Len(t, recs, 1)
	assert.Equal(t, "safety", recs[0].Category)
	assert.Equal(t, "Initiate fall prevention bundle", recs[0].Title)
	assert.Equal(t, model.PriorityHigh, recs[0].Priority)
	assert.NotEmpty(t, recs[0].Actions)
}

func TestRecommend_CriticalFactorEscalatesPriority(t *testing.T) {
	in := goodInputs()
	setFactor(&in, "fall", 0.85)

	recs := NewEngine().Recommend(in)
	require.Len(t, recs, 1)
	assert.Equal(t, model.PriorityCritical, recs[0].Priority)
}

func TestRecommend_LowCompositeTriggersCarePlanReview(t *testing.T) {
	in := goodInputs()
	in.Composite.Score = 72
	in.Composite.Category = "fair"

	recs := NewEngine().Recommend(in)
	require.Len(t, recs, 1)
	assert.Equal(t, "care_plan", recs[0].Category)
	assert.Equal(t, model.PriorityMedium, recs[0].Priority)

	in.Composite.Score = 55
	recs = NewEngine().Recommend(in)
	require.Len(t, recs, 1)
	assert.Equal(t, model.PriorityHigh, recs[0].Priority)
}

func TestRecommend_SortedByPriorityThenEvidence(t *testing.T) {
	in := goodInputs()
	setFactor(&in, "fall", 0.85)       // critical, strong
	setFactor(&in, "cognitive", 0.65)  // high, moderate
	setFactor(&in, "medication", 0.65) // high, strong
	in.Quality.Score = 65              // medium, emerging

	recs := NewEngine().Recommend(in)
	require.Len(t, recs, 4)
	assert.Equal(t, model.PriorityCritical, recs[0].Priority)
	assert.Equal(t, "medication", recs[1].Category) // strong before moderate at equal priority
	assert.Equal(t, "cognition", recs[2].Category)
	assert.Equal(t, "documentation", recs[3].Category)
}

func TestRecommend_DedupeKeepsHigherPriority(t *testing.T) {
	rules := []Rule{
		{
			Name:    "base",
			Trigger: func(Inputs) bool { return true },
			Build: func(Inputs) model.Recommendation {
				return model.Recommendation{Category: "care_plan", Title: "Review plan", Priority: model.PriorityLow}
			},
		},
		{
			Name:    "escalated",
			Trigger: func(Inputs) bool { return true },
			Build: func(Inputs) model.Recommendation {
				return model.Recommendation{Category: "care_plan", Title: "Review plan", Priority: model.PriorityCritical}
			},
		},
	}

	recs := NewEngineWithRules(rules).Recommend(goodInputs())
	require.Len(t, recs, 1)
	assert.Equal(t, model.PriorityCritical, recs[0].Priority)
}

func TestRecommend_Deterministic(t *testing.T) {
	in := goodInputs()
	setFactor(&in, "fall", 0.7)
	setFactor(&in, "readmission", 0.7)
	in.Composite.Score = 62
	in.Quality.Score = 50
	in.Quality.Breakdown.Timeliness = 0.2

	eng := NewEngine()
	first := eng.Recommend(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, eng.Recommend(in))
	}
}

func TestRecommend_StaleAssessmentSchedulesReassessment(t *testing.T) {
	in := goodInputs()
	in.Quality.Breakdown.Timeliness = 0.3

	recs := NewEngine().Recommend(in)
	require.Len(t, recs, 1)
	assert.Equal(t, "Schedule reassessment", recs[0].Title)
	assert.Equal(t, model.PriorityLow, recs[0].Priority)
}

func TestRecommend_HighRiskLevelEscalatesCare(t *testing.T) {
	in := goodInputs()
	in.Risk.Level = model.RiskCritical

	recs := NewEngine().Recommend(in)
	require.Len(t, recs, 1)
	assert.Equal(t, "Escalate to interdisciplinary case review", recs[0].Title)
	assert.Equal(t, model.PriorityCritical, recs[0].Priority)
}
