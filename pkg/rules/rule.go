// Package rules implements the pattern side of the detection pipeline:
// a typed, validated rule set loaded once from a human-editable YAML
// store, and a stateless engine that matches it against normalized text
// with context gating and cross-sentence composites.
package rules

import (
	"regexp"

	"github.com/TryMightyAI/haven/pkg/risk"
)

// MatchKind distinguishes the simple rule variants.
type MatchKind string

const (
	MatchKeyword MatchKind = "keyword" // literal word/phrase, word-bounded
	MatchRegex   MatchKind = "regex"   // full regular expression
)

// ContextRequirement gates where a rule is allowed to count.
type ContextRequirement string

const (
	// ContextNone counts every occurrence.
	ContextNone ContextRequirement = "none"

	// ContextDemand counts only inside sentences in imperative,
	// addressed-to-other form. Keeps "I'll fix it immediately" from
	// counting while "Send it immediately" does.
	ContextDemand ContextRequirement = "demand_context"

	// ContextSelfReportExclusion suppresses the rule when the enclosing
	// sentence is a first-person self-description. "I'm busy right now"
	// is not pressure; "Answer right now" is.
	ContextSelfReportExclusion ContextRequirement = "self_report_exclusion"
)

// Rule is one compiled single-sentence pattern. Immutable after load,
// shared read-only across all analyses.
type Rule struct {
	ID          string
	Category    risk.Category
	Kind        MatchKind
	Confidence  float64
	Context     ContextRequirement
	Threat      bool // threat/ultimatum rule; drives has_threat
	Severe      bool // severe insult; blocks banter suppression
	Description string

	re *regexp.Regexp
}

// Composite is a cross-sentence rule: it fires when a bare directive
// sentence is immediately adjacent to a time-urgency sentence, even though
// neither alone satisfies a single-sentence pattern.
type Composite struct {
	ID             string
	Category       risk.Category
	Confidence     float64
	Threat         bool
	Description    string
	DirectiveTerms []string
	UrgencyTerms   []string

	directiveSet map[string]bool
	urgencyRe    *regexp.Regexp
}

// MatchInstance is one concrete occurrence of a rule in the normalized
// text. Instance count (total occurrences) and pattern count (distinct
// rule IDs) are both derivable from a slice of these.
type MatchInstance struct {
	RuleID     string  `json:"rule_id"`
	Category   risk.Category `json:"category"`
	Start      int     `json:"start"` // byte offset in normalized text
	End        int     `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Threat     bool    `json:"threat"`
	Severe     bool    `json:"severe"`
}

// Ruleset is the validated, in-memory rule collection plus the
// per-category thresholds that came with it. Built once at startup.
type Ruleset struct {
	Rules      []Rule
	Composites []Composite
	Thresholds map[risk.Category]risk.Thresholds
	Rejected   []RejectedRule
}

// RejectedRule records a malformed entry excluded at load time. A bad
// rule never aborts loading the rest.
type RejectedRule struct {
	ID  string
	Err error
}

// ByCategory returns the active rules for one category.
func (rs *Ruleset) ByCategory(c risk.Category) []Rule {
	var out []Rule
	for _, r := range rs.Rules {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// ThresholdsFor returns the category's threshold pair, falling back to
// the built-in defaults for categories the config did not override.
func (rs *Ruleset) ThresholdsFor(c risk.Category) risk.Thresholds {
	if t, ok := rs.Thresholds[c]; ok {
		return t
	}
	return risk.DefaultThresholds()[c]
}

// PatternCount reports distinct rule IDs in a match list.
func PatternCount(matches []MatchInstance) int {
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		seen[m.RuleID] = true
	}
	return len(seen)
}

// InstanceCount reports total occurrences in a match list.
func InstanceCount(matches []MatchInstance) int {
	return len(matches)
}
