package config

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/carelink-health/assesscore/internal/model"
)

// weightTolerance is the allowed deviation of a weight table sum from 1.0.
const weightTolerance = 1e-6

// ConfigurationError reports an invalid weight or threshold table. It is a
// startup-time fatal error, never a per-request condition.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigurationError builds a ConfigurationError from a format string.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the startup invariants of a table set: every weight table
// sums to 1.0 within tolerance, weights reference declared domains, and all
// band tables and rules are well-formed.
func (t *Tables) Validate() error {
	var errs []string

	if len(t.Kinds) == 0 {
		errs = append(errs, "no assessment kinds declared")
	}

	// Deterministic iteration for stable error messages.
	kinds := make([]model.AssessmentKind, 0, len(t.Kinds))
	for k := range t.Kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, ks := range kinds {
		kt := t.Kinds[ks]
		if len(kt.Domains) == 0 {
			errs = append(errs, fmt.Sprintf("kind %s: no domains declared", ks))
		}

		var sum float64
		for domain, w := range kt.Weights {
			if w < 0 {
				errs = append(errs, fmt.Sprintf("kind %s: negative weight for domain %s", ks, domain))
			}
			if _, ok := kt.Domains[domain]; !ok {
				errs = append(errs, fmt.Sprintf("kind %s: weight references undeclared domain %s", ks, domain))
			}
			sum += w
		}
		if math.Abs(sum-1.0) > weightTolerance {
			errs = append(errs, fmt.Sprintf("kind %s: domain weights sum to %.6f, want 1.0", ks, sum))
		}

		for domain, dt := range kt.Domains {
			if len(dt.Indicators) == 0 {
				errs = append(errs, fmt.Sprintf("kind %s: domain %s declares no indicators", ks, domain))
			}
			if dt.MaxItemValue <= 0 {
				errs = append(errs, fmt.Sprintf("kind %s: domain %s max_item_value must be > 0", ks, domain))
			}
			if len(dt.Bands) == 0 {
				errs = append(errs, fmt.Sprintf("kind %s: domain %s has no category bands", ks, domain))
			}
		}
	}

	if len(t.CompositeBands) == 0 {
		errs = append(errs, "no composite bands declared")
	}

	var riskSum float64
	for name, w := range t.RiskWeights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("risk factor %s: negative weight", name))
		}
		riskSum += w
	}
	if math.Abs(riskSum-1.0) > weightTolerance {
		errs = append(errs, fmt.Sprintf("risk weights sum to %.6f, want 1.0", riskSum))
	}

	if math.Abs(t.QualityWeights.Sum()-1.0) > weightTolerance {
		errs = append(errs, fmt.Sprintf("quality weights sum to %.6f, want 1.0", t.QualityWeights.Sum()))
	}

	for _, rule := range t.Consistency {
		if rule.Name == "" {
			errs = append(errs, "consistency rule with empty name")
		}
		if rule.Penalty <= 0 || rule.Penalty > 1 {
			errs = append(errs, fmt.Sprintf("consistency rule %s: penalty must be in (0, 1]", rule.Name))
		}
		if rule.When.Max < rule.When.Min || rule.Also.Max < rule.Also.Min {
			errs = append(errs, fmt.Sprintf("consistency rule %s: inverted bounds", rule.Name))
		}
	}

	if len(errs) > 0 {
		return NewConfigurationError("table validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
