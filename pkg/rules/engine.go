package rules

import (
	"sort"

	"github.com/TryMightyAI/haven/pkg/normalize"
	"github.com/TryMightyAI/haven/pkg/risk"
)

// Engine matches a loaded Ruleset against normalized messages. It is
// stateless per call; the Ruleset is read-only shared state, so one
// Engine serves any number of concurrent analyses.
type Engine struct {
	ruleset *Ruleset
}

// NewEngine wraps a validated Ruleset.
func NewEngine(rs *Ruleset) *Engine {
	return &Engine{ruleset: rs}
}

// Ruleset exposes the underlying rule collection (read-only).
func (e *Engine) Ruleset() *Ruleset {
	return e.ruleset
}

// Result maps category to its ordered match list. Matches within a
// category are in document order for deterministic evidence selection.
type Result struct {
	Matches map[risk.Category][]MatchInstance
}

// HasThreat reports whether any threat/ultimatum rule fired, single- or
// cross-sentence. This is the sole source of truth for threat wording.
func (r *Result) HasThreat() bool {
	for _, list := range r.Matches {
		for _, m := range list {
			if m.Threat {
				return true
			}
		}
	}
	return false
}

// HasSevere reports whether any severe-insult rule fired. Severe insults
// block banter suppression.
func (r *Result) HasSevere() bool {
	for _, list := range r.Matches {
		for _, m := range list {
			if m.Severe {
				return true
			}
		}
	}
	return false
}

// Match runs every active rule against the normalized text, applying
// context gates per sentence and the cross-sentence composites. A rule
// that misbehaves was already rejected at load time; nothing here fails.
func (e *Engine) Match(msg *normalize.Message) *Result {
	res := &Result{Matches: make(map[risk.Category][]MatchInstance)}
	if msg == nil || msg.Text == "" {
		return res
	}

	sentences := SegmentSentences(msg.Text)

	for _, rule := range e.ruleset.Rules {
		locs := rule.re.FindAllStringIndex(msg.Text, -1)
		for _, loc := range locs {
			if !e.contextAllows(rule, sentences, loc[0]) {
				continue
			}
			res.Matches[rule.Category] = append(res.Matches[rule.Category], MatchInstance{
				RuleID:     rule.ID,
				Category:   rule.Category,
				Start:      loc[0],
				End:        loc[1],
				Text:       msg.Text[loc[0]:loc[1]],
				Confidence: rule.Confidence,
				Threat:     rule.Threat,
				Severe:     rule.Severe,
			})
		}
	}

	for _, comp := range e.ruleset.Composites {
		for _, m := range e.matchComposite(comp, msg.Text, sentences) {
			res.Matches[comp.Category] = append(res.Matches[comp.Category], m)
		}
	}

	// Document order within each category, rule ID as tiebreak, so
	// evidence selection is deterministic.
	for cat := range res.Matches {
		list := res.Matches[cat]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Start != list[j].Start {
				return list[i].Start < list[j].Start
			}
			return list[i].RuleID < list[j].RuleID
		})
	}
	return res
}

// contextAllows applies the rule's context gate at a match position.
// A match outside any sentence (shouldn't happen, but segmentation is
// heuristic) is allowed only for context-free rules.
func (e *Engine) contextAllows(rule Rule, sentences []Sentence, offset int) bool {
	switch rule.Context {
	case ContextNone:
		return true
	case ContextDemand:
		s, ok := enclosing(sentences, offset)
		return ok && IsDemandContext(s)
	case ContextSelfReportExclusion:
		s, ok := enclosing(sentences, offset)
		if !ok {
			return true
		}
		return !IsSelfReport(s)
	default:
		return false
	}
}

// matchComposite fires when a bare directive sentence is immediately
// adjacent to a time-urgency sentence, in either order. Each adjacent
// pair yields at most one instance spanning both sentences.
func (e *Engine) matchComposite(comp Composite, text string, sentences []Sentence) []MatchInstance {
	var out []MatchInstance
	for i := 0; i+1 < len(sentences); i++ {
		a, b := sentences[i], sentences[i+1]
		directiveFirst := isBareDirective(a, comp.directiveSet) && comp.urgencyRe.MatchString(b.Text)
		urgencyFirst := isBareDirective(b, comp.directiveSet) && comp.urgencyRe.MatchString(a.Text)
		if !directiveFirst && !urgencyFirst {
			continue
		}
		out = append(out, MatchInstance{
			RuleID:     comp.ID,
			Category:   comp.Category,
			Start:      a.Start,
			End:        b.End,
			Text:       text[a.Start:b.End],
			Confidence: comp.Confidence,
			Threat:     comp.Threat,
		})
	}
	return out
}
