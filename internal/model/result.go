package model

import (
	"time"

	"github.com/google/uuid"
)

// DomainScore is the normalized 0-100 score for a single domain, with
// completeness tracked independently of the score itself.
type DomainScore struct {
	Domain         Domain  `json:"domain"`
	Score          float64 `json:"score"`
	ItemsCompleted int     `json:"items_completed"`
	ItemsTotal     int     `json:"items_total"`
	Category       string  `json:"category"`
}

// DomainContribution records how one domain fed the composite score.
type DomainContribution struct {
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// CompositeScore is the weighted combination of all present domain scores.
type CompositeScore struct {
	Score     float64                       `json:"score"`
	Category  string                        `json:"category"`
	Breakdown map[Domain]DomainContribution `json:"breakdown"`
}

// RiskLevel is the categorical band of a composite risk score.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "minimal"
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskFactor is an independently computed 0.0-1.0 sub-score.
type RiskFactor struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// AlertSeverity grades a factor-level alert.
type AlertSeverity string

const (
	AlertHigh     AlertSeverity = "high"
	AlertCritical AlertSeverity = "critical"
)

// Alert surfaces a single severe risk factor regardless of the composite band.
type Alert struct {
	Factor   string        `json:"factor"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// RiskProfile is the full risk stratification output for one record.
type RiskProfile struct {
	CompositeRisk float64      `json:"composite_risk"`
	Level         RiskLevel    `json:"level"`
	Factors       []RiskFactor `json:"factors"`
	Alerts        []Alert      `json:"alerts"`
}

// QualityBreakdown holds the independent quality sub-scores, each 0.0-1.0.
type QualityBreakdown struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Accuracy     float64 `json:"accuracy"`
	Timeliness   float64 `json:"timeliness"`
	Compliance   float64 `json:"compliance"`
}

// QualityProfile is the composite data-quality rating for one record.
type QualityProfile struct {
	Score     float64          `json:"score"`
	Category  string           `json:"category"`
	Breakdown QualityBreakdown `json:"breakdown"`
}

// Priority orders recommendations for display and triage.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns a sortable weight for the priority, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Recommendation is a rule-driven care suggestion. Recommendations are
// request-scoped and never persisted by the core.
type Recommendation struct {
	Category    string   `json:"category"`
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
	Evidence    string   `json:"evidence"`
}

// Result is the assembled output of a full evaluation.
type Result struct {
	Composite       CompositeScore   `json:"composite"`
	Risk            RiskProfile      `json:"risk"`
	Quality         QualityProfile   `json:"quality"`
	Recommendations []Recommendation `json:"recommendations"`
	Cached          bool             `json:"cached"`
	DurationMs      int64            `json:"duration_ms"`
}

// Event is a completion notification published to the outbound bus.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// EvaluationCompleted is the event type emitted after each evaluation.
const EvaluationCompleted = "assessment.evaluation.completed"
