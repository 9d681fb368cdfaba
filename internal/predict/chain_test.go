package predict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carelink-health/assesscore/internal/model"
	"github.com/carelink-health/assesscore/internal/resilience"
)

type fakePredictor struct {
	name  string
	p     float64
	err   error
	calls int
}

func (f *fakePredictor) Name() string { return f.name }

func (f *fakePredictor) Predict(_ context.Context, _ *model.IndicatorRecord) (float64, error) {
	f.calls++
	return f.p, f.err
}

func testChainConfig() ChainConfig {
	return ChainConfig{
		Timeout:  time.Second,
		Baseline: 0.18,
		Retry:    resilience.RetryConfig{MaxAttempts: 1},
	}
}

func record() *model.IndicatorRecord {
	return &model.IndicatorRecord{Kind: model.KindStartOfCare}
}

func TestChain_FirstProviderWins(t *testing.T) {
	first := &fakePredictor{name: "risk-model", p: 0.7}
	second := &fakePredictor{name: "secondary", p: 0.2}
	chain := NewChain([]Predictor{first, second}, resilience.NewBreakerSet(resilience.DefaultBreakerConfig()), testChainConfig())

	p, source := chain.Predict(context.Background(), record())
	assert.Equal(t, 0.7, p)
	assert.Equal(t, "risk-model", source)
	assert.Zero(t, second.calls, "later providers must not be consulted")
}

func TestChain_FallsThroughToNextProvider(t *testing.T) {
	first := &fakePredictor{name: "risk-model", err: errors.New("down")}
	second := &fakePredictor{name: "secondary", p: 0.4}
	chain := NewChain([]Predictor{first, second}, resilience.NewBreakerSet(resilience.DefaultBreakerConfig()), testChainConfig())

	p, source := chain.Predict(context.Background(), record())
	assert.Equal(t, 0.4, p)
	assert.Equal(t, "secondary", source)
}

func TestChain_ExhaustedReturnsBaseline(t *testing.T) {
	first := &fakePredictor{name: "risk-model", err: errors.New("down")}
	chain := NewChain([]Predictor{first}, resilience.NewBreakerSet(resilience.DefaultBreakerConfig()), testChainConfig())

	p, source := chain.Predict(context.Background(), record())
	assert.Equal(t, 0.18, p)
	assert.Equal(t, "baseline", source)
}

func TestChain_OpenBreakerSkipsProviderWithoutCalling(t *testing.T) {
	breakers := resilience.NewBreakerSet(resilience.BreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
	})
	failing := &fakePredictor{name: "risk-model", err: errors.New("down")}
	chain := NewChain([]Predictor{failing}, breakers, testChainConfig())

	// Two failures trip the breaker.
	chain.Predict(context.Background(), record())
	chain.Predict(context.Background(), record())
	callsBefore := failing.calls

	p, source := chain.Predict(context.Background(), record())
	assert.Equal(t, 0.18, p)
	assert.Equal(t, "baseline", source)
	assert.Equal(t, callsBefore, failing.calls, "open breaker must short-circuit the provider")
}

func TestChain_ClampsOutOfRange(t *testing.T) {
	first := &fakePredictor{name: "risk-model", p: 1.7}
	chain := NewChain([]Predictor{first}, resilience.NewBreakerSet(resilience.DefaultBreakerConfig()), testChainConfig())

	p, _ := chain.Predict(context.Background(), record())
	assert.Equal(t, 1.0, p)
}

func TestParseProbability(t *testing.T) {
	p, err := parseProbability(" 0.42\n")
	assert.NoError(t, err)
	assert.Equal(t, 0.42, p)

	_, err = parseProbability("not a number")
	assert.Error(t, err)

	_, err = parseProbability("1.5")
	assert.Error(t, err)
}
