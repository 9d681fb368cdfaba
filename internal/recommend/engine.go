package recommend

import (
	"sort"

	"github.com/carelink-health/assesscore/internal/model"
)

// Engine evaluates a rule table against assessment results.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine over the built-in rule table.
func NewEngine() *Engine {
	return &Engine{rules: defaultRules}
}

// NewEngineWithRules returns an engine over a caller-supplied table. The
// table is evaluated as given; callers own ordering-independent rules.
func NewEngineWithRules(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Recommend evaluates every rule independently, deduplicates by
// (category, title) keeping the higher-priority occurrence, and returns the
// survivors sorted by priority then evidence strength, both descending.
// Identical inputs always produce identical output.
func (e *Engine) Recommend(in Inputs) []model.Recommendation {
	type dedupeKey struct {
		category string
		title    string
	}
	seen := make(map[dedupeKey]int)
	out := make([]model.Recommendation, 0, len(e.rules))

	for _, rule := range e.rules {
		if rule.Trigger == nil || !rule.Trigger(in) {
			continue
		}
		rec := rule.Build(in)
		key := dedupeKey{category: rec.Category, title: rec.Title}
		if i, ok := seen[key]; ok {
			if rec.Priority.Rank() > out[i].Priority.Rank() {
				out[i] = rec
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.Rank() != out[j].Priority.Rank() {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		}
		return evidenceRank(out[i].Evidence) > evidenceRank(out[j].Evidence)
	})
	return out
}
