// Package detect orchestrates the detection pipeline: normalize, match
// rules, optionally consult the semantic classifier, and aggregate into a
// risk assessment. Every analysis call is synchronous, side-effect-free,
// and allocates its own result graph; the only shared state (rule set,
// classifier handle) is immutable after construction.
package detect

import (
	"github.com/TryMightyAI/haven/pkg/normalize"
	"github.com/TryMightyAI/haven/pkg/risk"
	"github.com/TryMightyAI/haven/pkg/rules"
)

// CategoryScore is the aggregated evidence for one category.
type CategoryScore struct {
	Category risk.Category `json:"category"`

	// RuleScore is the saturating aggregate of rule match confidences.
	RuleScore float64 `json:"rule_score"`

	// SemanticScore is the classifier's score, nil when the classifier
	// was absent or had no signal for this category.
	SemanticScore *float64 `json:"semantic_score,omitempty"`

	// CombinedScore is the weighted combination that thresholds apply to.
	CombinedScore float64 `json:"combined_score"`

	// Matches are the contributing instances, in document order.
	Matches []rules.MatchInstance `json:"matches,omitempty"`
}

// Assessment is the aggregated risk picture for one analysis call.
// Created once per call, consumed immediately, never persisted.
type Assessment struct {
	OverallLevel risk.Level                      `json:"overall_level"`
	Categories   map[risk.Category]CategoryScore `json:"categories"`

	// HasThreat is true iff a threat/ultimatum pattern matched,
	// single- or cross-sentence. Explanation text may reference threats
	// only when this is set.
	HasThreat bool `json:"has_threat"`

	// HasGuiltShifting is true when guilt_shifting cleared its yellow
	// threshold, regardless of whether it is the top category.
	HasGuiltShifting bool `json:"has_guilt_shifting"`

	// BanterSuppressed records that the bullying score was damped by the
	// mutual-teasing heuristic, with the reason for the audit trail.
	BanterSuppressed bool   `json:"banter_suppressed"`
	BanterReason     string `json:"banter_reason,omitempty"`

	// Truncated is set when the input exceeded the configured maximum
	// and analysis ran on a prefix.
	Truncated bool `json:"truncated"`

	// ClassifierUsed records whether semantic scores contributed.
	ClassifierUsed bool `json:"classifier_used"`

	// Message carries the normalization result so the explainer can
	// backmap evidence spans into the original text.
	Message *normalize.Message `json:"-"`

	thresholds map[risk.Category]risk.Thresholds
}

func (a *Assessment) thresholdFor(c risk.Category) risk.Thresholds {
	if a.thresholds != nil {
		if t, ok := a.thresholds[c]; ok {
			return t
		}
	}
	return risk.DefaultThresholds()[c]
}

// CrossedYellow reports whether the category cleared its yellow
// threshold. Exact equality does not count (conservative downgrade).
func (a *Assessment) CrossedYellow(c risk.Category) bool {
	cs, ok := a.Categories[c]
	return ok && risk.Crosses(cs.CombinedScore, a.thresholdFor(c).Yellow)
}

// CrossedRed reports whether the category cleared its red threshold.
func (a *Assessment) CrossedRed(c risk.Category) bool {
	cs, ok := a.Categories[c]
	return ok && risk.Crosses(cs.CombinedScore, a.thresholdFor(c).Red)
}
