package predict

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/carelink-health/assesscore/internal/model"
)

// riskModelName is the circuit breaker key for the hosted prediction model.
const riskModelName = "risk-model"

const riskSystemPrompt = "You are a clinical readmission risk model. " +
	"Given a summary of assessment indicators, respond with only a decimal " +
	"probability between 0.0 and 1.0 that the patient is readmitted within " +
	"60 days. No prose."

// ModelPredictor asks a hosted model for a readmission probability. The
// model is an opaque dependency: failures and nonsense outputs are plain
// errors for the chain to absorb.
type ModelPredictor struct {
	client sdk.Client
	model  string
}

// NewModelPredictor creates a model-backed predictor.
func NewModelPredictor(apiKey, modelName string) *ModelPredictor {
	return &ModelPredictor{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  modelName,
	}
}

// Name implements Predictor.
func (p *ModelPredictor) Name() string { return riskModelName }

// Predict implements Predictor.
func (p *ModelPredictor) Predict(ctx context.Context, rec *model.IndicatorRecord) (float64, error) {
	msg, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: 16,
		System:    []sdk.TextBlockParam{{Text: riskSystemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(summarize(rec))),
		},
	})
	if err != nil {
		return 0, eris.Wrap(err, "predict: create message")
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return parseProbability(block.Text)
		}
	}
	return 0, eris.New("predict: empty model response")
}

// summarize renders the record's numeric indicators as a compact prompt.
func summarize(rec *model.IndicatorRecord) string {
	var lines []string
	for ind, val := range rec.Values {
		if v, ok := val.Numeric(); ok {
			lines = append(lines, fmt.Sprintf("%s=%.0f", ind, v))
		}
	}
	sort.Strings(lines)
	return fmt.Sprintf("assessment_kind=%s\n%s", rec.Kind, strings.Join(lines, "\n"))
}

func parseProbability(text string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "predict: unparseable probability %q", text)
	}
	if p < 0 || p > 1 {
		return 0, eris.Errorf("predict: probability %f out of range", p)
	}
	return p, nil
}
