package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink-health/assesscore/internal/config"
	"github.com/carelink-health/assesscore/internal/model"
)

func testRecord(values map[model.Indicator]model.Value) *model.IndicatorRecord {
	return &model.IndicatorRecord{
		Kind:       model.KindStartOfCare,
		RecordedAt: time.Now(),
		Values:     values,
	}
}

func TestIndicatorScorer_FullDomain(t *testing.T) {
	s := NewIndicatorScorer(config.DefaultTables())

	rec := testRecord(map[model.Indicator]model.Value{
		model.IndGrooming:     model.Num(3),
		model.IndDressing:     model.Num(3),
		model.IndBathing:      model.Num(3),
		model.IndToileting:    model.Num(3),
		model.IndTransferring: model.Num(3),
		model.IndAmbulation:   model.Num(3),
	})

	ds, err := s.Score(model.DomainFunctional, rec)
	require.NoError(t, err)
	assert.Equal(t, 100.0, ds.Score)
	assert.Equal(t, 6, ds.ItemsCompleted)
	assert.Equal(t, 6, ds.ItemsTotal)
	assert.Equal(t, "independent", ds.Category)
}

func TestIndicatorScorer_MissingIndicatorsExcluded(t *testing.T) {
	s := NewIndicatorScorer(config.DefaultTables())

	// Only two of six functional indicators present: the denominator uses
	// itemsPresent, not itemsTotal.
	rec := testRecord(map[model.Indicator]model.Value{
		model.IndGrooming: model.Num(3),
		model.IndDressing: model.Num(0),
	})

	ds, err := s.Score(model.DomainFunctional, rec)
	require.NoError(t, err)
	assert.Equal(t, 50.0, ds.Score) // (3+0) / (2×3) × 100
	assert.Equal(t, 2, ds.ItemsCompleted)
	assert.Equal(t, 6, ds.ItemsTotal)
}

func TestIndicatorScorer_AllZeroDomainIsCompleteButDependent(t *testing.T) {
	s := NewIndicatorScorer(config.DefaultTables())

	rec := testRecord(map[model.Indicator]model.Value{
		model.IndGrooming:     model.Num(0),
		model.IndDressing:     model.Num(0),
		model.IndBathing:      model.Num(0),
		model.IndToileting:    model.Num(0),
		model.IndTransferring: model.Num(0),
		model.IndAmbulation:   model.Num(0),
	})

	ds, err := s.Score(model.DomainFunctional, rec)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ds.Score)
	assert.Equal(t, 6, ds.ItemsCompleted, "all-zero domain is still fully complete")
	assert.Equal(t, "dependent", ds.Category)
}

func TestIndicatorScorer_EmptyDomain(t *testing.T) {
	s := NewIndicatorScorer(config.DefaultTables())

	ds, err := s.Score(model.DomainFunctional, testRecord(nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, ds.Score)
	assert.Equal(t, 0, ds.ItemsCompleted)
}

func TestIndicatorScorer_NonNumericValuesIgnored(t *testing.T) {
	s := NewIndicatorScorer(config.DefaultTables())

	rec := testRecord(map[model.Indicator]model.Value{
		model.IndGrooming: model.Code("not-assessed"),
		model.IndDressing: model.Num(3),
	})

	ds, err := s.Score(model.DomainFunctional, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.ItemsCompleted)
	assert.Equal(t, 100.0, ds.Score)
}

func TestIndicatorScorer_UnknownDomain(t *testing.T) {
	s := NewIndicatorScorer(config.DefaultTables())

	rec := testRecord(nil)
	rec.Kind = model.KindOutcomeMeasure

	// Medication is not part of the outcome-measure table.
	_, err := s.Score(model.DomainMedication, rec)
	assert.Error(t, err)
}

func TestIndicatorScorer_UnknownKind(t *testing.T) {
	s := NewIndicatorScorer(config.DefaultTables())

	rec := testRecord(nil)
	rec.Kind = model.AssessmentKind("bogus")

	_, err := s.Score(model.DomainFunctional, rec)
	assert.Error(t, err)
}

func TestScoreAll_CoversDeclaredDomains(t *testing.T) {
	s := NewIndicatorScorer(config.DefaultTables())

	rec := testRecord(map[model.Indicator]model.Value{
		model.IndGrooming: model.Num(2),
	})
	rec.Kind = model.KindOutcomeMeasure

	scores, err := s.ScoreAll(rec)
	require.NoError(t, err)
	assert.Len(t, scores, 3)
}
