// Package recommend maps composite, risk, and quality results onto a
// prioritized, deduplicated list of care recommendations.
package recommend

import (
	"github.com/carelink-health/assesscore/internal/model"
)

// Inputs is the rule evaluation context.
type Inputs struct {
	Composite model.CompositeScore
	Risk      model.RiskProfile
	Quality   model.QualityProfile
}

// factor returns the named risk factor's score, or 0 when unknown.
func (in Inputs) factor(name string) float64 {
	for _, f := range in.Risk.Factors {
		if f.Name == name {
			return f.Score
		}
	}
	return 0
}

// Rule pairs a trigger predicate with a recommendation builder. Rules are
// evaluated independently; they are not mutually exclusive. New rules are
// added here without touching orchestration code.
type Rule struct {
	Name    string
	Trigger func(in Inputs) bool
	Build   func(in Inputs) model.Recommendation
}

// factorPriority escalates a factor-driven recommendation to critical when
// the factor itself crosses the critical alert threshold.
func factorPriority(score float64) model.Priority {
	if score >= 0.8 {
		return model.PriorityCritical
	}
	return model.PriorityHigh
}

// Evidence strength labels, strongest first.
const (
	evidenceStrong   = "strong"
	evidenceModerate = "moderate"
	evidenceEmerging = "emerging"
)

// evidenceRank orders recommendations with equal priority.
func evidenceRank(evidence string) int {
	switch evidence {
	case evidenceStrong:
		return 3
	case evidenceModerate:
		return 2
	case evidenceEmerging:
		return 1
	default:
		return 0
	}
}

// defaultRules is the built-in rule table.
var defaultRules = []Rule{
	{
		Name:    "fall_prevention_bundle",
		Trigger: func(in Inputs) bool { return in.factor("fall") >= 0.6 },
		Build: func(in Inputs) model.Recommendation {
			return model.Recommendation{
				Category:    "safety",
				Priority:    factorPriority(in.factor("fall")),
				Title:       "Initiate fall prevention bundle",
				Description: "Elevated fall risk calls for environmental and mobility interventions before the next visit.",
				Actions: []string{
					"Complete home safety evaluation",
					"Order physical therapy evaluation for gait and balance",
					"Review footwear and assistive device fit",
				},
				Evidence: evidenceStrong,
			}
		},
	},
	{
		Name:    "cognitive_support_plan",
		Trigger: func(in Inputs) bool { return in.factor("cognitive") >= 0.6 },
		Build: func(in Inputs) model.Recommendation {
			return model.Recommendation{
				Category:    "cognition",
				Priority:    factorPriority(in.factor("cognitive")),
				Title:       "Establish cognitive support plan",
				Description: "Cognitive deficits warrant supervision planning and caregiver education.",
				Actions: []string{
					"Screen with standardized cognitive instrument",
					"Educate caregiver on supervision needs",
					"Evaluate medication self-administration safety",
				},
				Evidence: evidenceModerate,
			}
		},
	},
	{
		Name:    "medication_regimen_review",
		Trigger: func(in Inputs) bool { return in.factor("medication") >= 0.6 },
		Build: func(in Inputs) model.Recommendation {
			return model.Recommendation{
				Category:    "medication",
				Priority:    factorPriority(in.factor("medication")),
				Title:       "Schedule comprehensive medication review",
				Description: "Medication management deficits increase adverse drug event risk.",
				Actions: []string{
					"Reconcile medication list with pharmacy",
					"Simplify dosing schedule where possible",
					"Flag high-risk drug interactions for prescriber",
				},
				Evidence: evidenceStrong,
			}
		},
	},
	{
		Name:    "readmission_mitigation",
		Trigger: func(in Inputs) bool { return in.factor("readmission") >= 0.6 },
		Build: func(in Inputs) model.Recommendation {
			return model.Recommendation{
				Category:    "transitions",
				Priority:    factorPriority(in.factor("readmission")),
				Title:       "Activate readmission mitigation protocol",
				Description: "Predicted readmission risk supports front-loaded visits and early physician follow-up.",
				Actions: []string{
					"Front-load skilled nursing visits in week one",
					"Confirm physician follow-up within 7 days",
					"Enroll in telehealth monitoring program",
				},
				Evidence: evidenceModerate,
			}
		},
	},
	{
		Name:    "social_support_referral",
		Trigger: func(in Inputs) bool { return in.factor("social") >= 0.6 },
		Build: func(in Inputs) model.Recommendation {
			return model.Recommendation{
				Category:    "psychosocial",
				Priority:    factorPriority(in.factor("social")),
				Title:       "Refer to medical social services",
				Description: "Limited support network jeopardizes the care plan between visits.",
				Actions: []string{
					"Refer to medical social worker",
					"Assess eligibility for community support programs",
					"Document emergency contact plan",
				},
				Evidence: evidenceModerate,
			}
		},
	},
	{
		Name:    "care_escalation",
		Trigger: func(in Inputs) bool {
			return in.Risk.Level == model.RiskHigh || in.Risk.Level == model.RiskCritical
		},
		Build: func(in Inputs) model.Recommendation {
			priority := model.PriorityHigh
			if in.Risk.Level == model.RiskCritical {
				priority = model.PriorityCritical
			}
			return model.Recommendation{
				Category:    "care_plan",
				Priority:    priority,
				Title:       "Escalate to interdisciplinary case review",
				Description: "Composite risk places this patient in the top stratification band.",
				Actions: []string{
					"Present at next interdisciplinary team conference",
					"Increase visit frequency pending review",
				},
				Evidence: evidenceStrong,
			}
		},
	},
	{
		Name:    "quality_improvement_bundle",
		Trigger: func(in Inputs) bool { return in.Composite.Score < 80 },
		Build: func(in Inputs) model.Recommendation {
			priority := model.PriorityMedium
			if in.Composite.Score < 60 {
				priority = model.PriorityHigh
			}
			return model.Recommendation{
				Category:    "care_plan",
				Priority:    priority,
				Title:       "Review care plan against functional goals",
				Description: "Composite score below target suggests the current plan is not meeting functional goals.",
				Actions: []string{
					"Reassess goal attainment by domain",
					"Adjust therapy frequency toward lowest-scoring domains",
				},
				Evidence: evidenceModerate,
			}
		},
	},
	{
		Name:    "documentation_improvement",
		Trigger: func(in Inputs) bool { return in.Quality.Score < 70 },
		Build: func(in Inputs) model.Recommendation {
			return model.Recommendation{
				Category:    "documentation",
				Priority:    model.PriorityMedium,
				Title:       "Remediate assessment documentation gaps",
				Description: "Data quality below threshold undermines downstream scoring and reporting.",
				Actions: []string{
					"Complete missing assessment items",
					"Resolve contradictory indicator pairs",
				},
				Evidence: evidenceEmerging,
			}
		},
	},
	{
		Name:    "reassessment_scheduling",
		Trigger: func(in Inputs) bool { return in.Quality.Breakdown.Timeliness < 0.5 },
		Build: func(in Inputs) model.Recommendation {
			return model.Recommendation{
				Category:    "documentation",
				Priority:    model.PriorityLow,
				Title:       "Schedule reassessment",
				Description: "The assessment on file is stale; scores no longer reflect current status.",
				Actions: []string{
					"Schedule in-home reassessment visit",
				},
				Evidence: evidenceEmerging,
			}
		},
	},
}
