package rules

import (
	"testing"

	"github.com/TryMightyAI/haven/pkg/normalize"
	"github.com/TryMightyAI/haven/pkg/risk"
)

func msgFor(t *testing.T, text string) *normalize.Message {
	t.Helper()
	return normalize.New().Normalize(text)
}

func testRuleset(t *testing.T) *Ruleset {
	t.Helper()
	rs, err := Parse([]byte(`
version: 1
categories:
  bullying:
    patterns:
      - id: shut_up
        match: keyword
        pattern: "shut up"
        confidence: 0.45
      - id: insult_direct
        match: regex
        pattern: "(you('|’)?re|your|you are) (stupid|dumb|pathetic|a loser)"
        confidence: 0.5
      - id: self_harm_directive
        match: keyword
        pattern: "kill yourself"
        confidence: 0.9
        severe: true
  manipulation:
    patterns:
      - id: ultimatum
        match: regex
        pattern: "\\b(or else|or i('|’)?ll|don('|’)?t expect)\\b"
        confidence: 0.8
        threat: true
  pressure:
    patterns:
      - id: time_urgency
        match: regex
        pattern: "\\b(right now|this second)\\b"
        confidence: 0.45
        context: self_report_exclusion
      - id: immediacy_demand
        match: regex
        pattern: "\\b(answer me|reply (now|fast)|hurry up)\\b"
        confidence: 0.4
        context: demand_context
composites:
  - id: directive_then_urgency
    category: pressure
    confidence: 0.5
    directive_terms: [answer, reply, respond]
    urgency_terms: [right now, hurry up, before it's too late]
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return rs
}

func TestMatch_BasicInstances(t *testing.T) {
	e := NewEngine(testRuleset(t))

	res := e.Match(msgFor(t, "shut up. seriously shut up, you're pathetic"))

	matches := res.Matches[risk.CategoryBullying]
	if InstanceCount(matches) != 3 {
		t.Fatalf("InstanceCount = %d, want 3: %+v", InstanceCount(matches), matches)
	}
	if PatternCount(matches) != 2 {
		t.Errorf("PatternCount = %d, want 2", PatternCount(matches))
	}

	// Document order
	for i := 1; i < len(matches); i++ {
		if matches[i].Start < matches[i-1].Start {
			t.Errorf("Matches out of document order: %+v", matches)
		}
	}

	// Span text comes from the normalized text
	first := matches[0]
	if first.RuleID != "shut_up" || first.Text != "shut up" {
		t.Errorf("First match = %+v", first)
	}
}

func TestMatch_NormalizedSlangFires(t *testing.T) {
	e := NewEngine(testRuleset(t))

	// "stfu" expands to "shut up" before matching
	res := e.Match(msgFor(t, "stfu nobody asked"))
	if len(res.Matches[risk.CategoryBullying]) != 1 {
		t.Fatalf("Matches = %+v, want one bullying match", res.Matches)
	}
	if res.Matches[risk.CategoryBullying][0].RuleID != "shut_up" {
		t.Errorf("RuleID = %q, want shut_up", res.Matches[risk.CategoryBullying][0].RuleID)
	}
}

func TestMatch_ThreatAndSevereFlags(t *testing.T) {
	e := NewEngine(testRuleset(t))

	res := e.Match(msgFor(t, "do it or else"))
	if !res.HasThreat() {
		t.Error("Expected HasThreat for an ultimatum")
	}
	if res.HasSevere() {
		t.Error("Ultimatum alone should not set HasSevere")
	}

	res = e.Match(msgFor(t, "just kys already"))
	if !res.HasSevere() {
		t.Error("Expected HasSevere for a self-harm directive")
	}
	if res.HasThreat() {
		t.Error("Severe insult alone should not set HasThreat")
	}
}

func TestMatch_DemandContextGate(t *testing.T) {
	e := NewEngine(testRuleset(t))

	// Imperative, addressed to the other: gate admits
	res := e.Match(msgFor(t, "Answer me. Hurry up."))
	if len(res.Matches[risk.CategoryPressure]) == 0 {
		t.Fatal("Expected immediacy_demand to fire in imperative form")
	}

	// First-person framing: gate suppresses
	res = e.Match(msgFor(t, "I told him to hurry up"))
	for _, m := range res.Matches[risk.CategoryPressure] {
		if m.RuleID == "immediacy_demand" {
			t.Errorf("immediacy_demand fired in first-person sentence: %+v", m)
		}
	}
}

func TestMatch_SelfReportExclusion(t *testing.T) {
	e := NewEngine(testRuleset(t))

	// Demand: "right now" counts
	res := e.Match(msgFor(t, "Come over right now"))
	if len(res.Matches[risk.CategoryPressure]) == 0 {
		t.Fatal("Expected time_urgency to fire in a demand")
	}

	// Self-description: "right now" is innocuous
	res = e.Match(msgFor(t, "I'm busy right now"))
	for _, m := range res.Matches[risk.CategoryPressure] {
		if m.RuleID == "time_urgency" {
			t.Errorf("time_urgency fired in self-report: %+v", m)
		}
	}

	// Slang form normalizes into the same self-report
	res = e.Match(msgFor(t, "im busy rn"))
	for _, m := range res.Matches[risk.CategoryPressure] {
		if m.RuleID == "time_urgency" {
			t.Errorf("time_urgency fired in slang self-report: %+v", m)
		}
	}
}

func TestMatch_CompositeAdjacency(t *testing.T) {
	e := NewEngine(testRuleset(t))

	find := func(res *Result) *MatchInstance {
		for _, m := range res.Matches[risk.CategoryPressure] {
			if m.RuleID == "directive_then_urgency" {
				return &m
			}
		}
		return nil
	}

	// Directive then urgency
	res := e.Match(msgFor(t, "Answer me. Do it before it's too late."))
	m := find(res)
	if m == nil {
		t.Fatal("Expected composite for directive followed by urgency")
	}
	// The instance spans both sentences
	if m.Text == "" || m.End <= m.Start {
		t.Errorf("Composite span = %+v", m)
	}

	// Urgency then directive
	res = e.Match(msgFor(t, "It's almost too late, hurry up. Answer me."))
	if find(res) == nil {
		t.Error("Expected composite for urgency followed by directive")
	}

	// Not adjacent: a neutral sentence in between
	res = e.Match(msgFor(t, "Answer me. The weather is nice. Do it before it's too late."))
	if find(res) != nil {
		t.Error("Composite fired across a gap sentence")
	}

	// Neither alone fires
	res = e.Match(msgFor(t, "Answer me."))
	if find(res) != nil {
		t.Error("Composite fired on a bare directive alone")
	}
}

func TestMatch_EmptyAndNil(t *testing.T) {
	e := NewEngine(testRuleset(t))

	if res := e.Match(msgFor(t, "")); len(res.Matches) != 0 {
		t.Errorf("Empty text produced matches: %+v", res.Matches)
	}
	if res := e.Match(nil); len(res.Matches) != 0 {
		t.Errorf("Nil message produced matches: %+v", res.Matches)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	e := NewEngine(testRuleset(t))
	msg := msgFor(t, "shut up, you're pathetic. Answer me. Do it right now, or else.")

	first := e.Match(msg)
	for i := 0; i < 5; i++ {
		got := e.Match(msg)
		for cat, list := range first.Matches {
			other := got.Matches[cat]
			if len(other) != len(list) {
				t.Fatalf("Run %d: category %s has %d matches, first run %d", i, cat, len(other), len(list))
			}
			for j := range list {
				if list[j] != other[j] {
					t.Fatalf("Run %d: match %d differs: %+v vs %+v", i, j, list[j], other[j])
				}
			}
		}
	}
}
