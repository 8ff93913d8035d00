package explain

import (
	"context"
	"strings"
	"testing"

	"github.com/TryMightyAI/haven/pkg/detect"
	"github.com/TryMightyAI/haven/pkg/risk"
	"github.com/TryMightyAI/haven/pkg/rules"
)

func analyzer(t *testing.T) *detect.Analyzer {
	t.Helper()
	rs, err := rules.Load("../../rules.yaml")
	if err != nil {
		t.Fatalf("loading shipped rule store: %v", err)
	}
	return detect.NewAnalyzer(rs, detect.Options{})
}

func TestExplain_Green(t *testing.T) {
	a := analyzer(t)

	for _, input := range []string{"", "see you at the park tomorrow", "im busy rn, talk later"} {
		got := Explain(a.Analyze(context.Background(), input))

		if got.RiskLevel != risk.LevelGreen {
			t.Errorf("Explain(%q).RiskLevel = %s, want green", input, got.RiskLevel)
		}
		if len(got.Mentions) != 0 || len(got.EvidenceSnippets) != 0 {
			t.Errorf("Green explanation for %q carries mentions/evidence: %+v", input, got)
		}
		if got.HelpSectionVisible {
			t.Errorf("Help section visible at green for %q", input)
		}
		if got.Message == "" || got.Title == "" {
			t.Errorf("Green explanation missing text: %+v", got)
		}
	}
}

func TestExplain_YellowSecrecyNoThreatWording(t *testing.T) {
	a := analyzer(t)

	res := a.Analyze(context.Background(), "Don't tell anyone, ok? This is our secret.")
	got := Explain(res)

	if got.RiskLevel != risk.LevelYellow {
		t.Fatalf("RiskLevel = %s, want yellow", got.RiskLevel)
	}
	if got.HelpSectionVisible {
		t.Error("Help section must be hidden below red")
	}

	var mentionsSecrecy bool
	for _, m := range got.Mentions {
		if m == "secrecy" {
			mentionsSecrecy = true
		}
	}
	if !mentionsSecrecy {
		t.Errorf("Mentions = %v, want secrecy", got.Mentions)
	}

	// No threat pattern matched, so no threat wording anywhere
	lower := strings.ToLower(got.Message)
	for _, w := range []string{"threat", "ultimatum"} {
		if strings.Contains(lower, w) {
			t.Errorf("Message contains %q without a threat match: %q", w, got.Message)
		}
	}
}

func TestExplain_RedWithThreatAndHelp(t *testing.T) {
	a := analyzer(t)

	res := a.Analyze(context.Background(), "Answer me. Right now. Or I'll tell everyone what you sent me.")
	got := Explain(res)

	if got.RiskLevel != risk.LevelRed {
		t.Fatalf("RiskLevel = %s, want red", got.RiskLevel)
	}
	if !got.HelpSectionVisible {
		t.Error("Help section must be visible at red")
	}
	if len(got.HelpAdvice) == 0 {
		t.Error("Red explanation carries help advice")
	}
	if !strings.Contains(got.Message, threatSentence) {
		t.Errorf("Expected threat wording in %q", got.Message)
	}
}

func TestExplain_EvidenceQuotesRawText(t *testing.T) {
	a := analyzer(t)

	// "stfu" normalizes to "shut up"; the quote must come from the raw input
	res := a.Analyze(context.Background(), "stfu nobody likes you")
	got := Explain(res)

	if got.RiskLevel == risk.LevelGreen {
		t.Fatal("Expected elevated level")
	}
	if len(got.EvidenceSnippets) == 0 {
		t.Fatal("Expected evidence snippets")
	}
	raw := "stfu nobody likes you"
	for _, s := range got.EvidenceSnippets {
		quote := strings.TrimSuffix(s.Quote, "...")
		if !strings.Contains(raw, quote) {
			t.Errorf("Snippet %q is not a substring of the raw input", s.Quote)
		}
	}
}

func TestExplain_EvidenceLimits(t *testing.T) {
	a := analyzer(t)

	// Many matches across categories; output stays bounded
	res := a.Analyze(context.Background(),
		"shut up. you're so dumb. you're pathetic. don't tell anyone. our secret. this is all your fault.")
	got := Explain(res)

	if len(got.EvidenceSnippets) > maxSnippetsTotal {
		t.Errorf("len(EvidenceSnippets) = %d, want <= %d", len(got.EvidenceSnippets), maxSnippetsTotal)
	}
	perCat := make(map[risk.Category]int)
	for _, s := range got.EvidenceSnippets {
		perCat[s.Category]++
		if perCat[s.Category] > maxSnippetsPerCategory {
			t.Errorf("Category %s has more than %d snippets", s.Category, maxSnippetsPerCategory)
		}
		if len(s.Quote) > maxSnippetLen+len("...") {
			t.Errorf("Snippet %q exceeds length bound", s.Quote)
		}
	}
}

func TestExplain_GuiltShiftingAlwaysNamed(t *testing.T) {
	a := analyzer(t)

	// Guilt-shifting crosses yellow while manipulation dominates
	res := a.Analyze(context.Background(),
		"this is all your fault. do what i say or else, or i'll tell everyone.")
	got := Explain(res)

	var named bool
	for _, m := range got.Mentions {
		if m == "guilt-shifting" {
			named = true
		}
	}
	if !named {
		t.Errorf("Mentions = %v, want guilt-shifting named whenever flagged", got.Mentions)
	}
}

func TestExplain_MentionsOrderedByScore(t *testing.T) {
	a := analyzer(t)

	res := a.Analyze(context.Background(), "shut up. don't tell anyone, it's our secret.")
	got := Explain(res)

	if got.RiskLevel != risk.LevelYellow {
		t.Fatalf("RiskLevel = %s, want yellow", got.RiskLevel)
	}
	// secrecy (0.45 then 0.35 saturating) outscores bullying (0.45)
	if len(got.Mentions) < 2 || got.Mentions[0] != "secrecy" {
		t.Errorf("Mentions = %v, want secrecy first", got.Mentions)
	}
}

func TestExplain_Deterministic(t *testing.T) {
	a := analyzer(t)
	text := "shut up. don't tell anyone. this is all your fault."

	first := Explain(a.Analyze(context.Background(), text))
	for i := 0; i < 5; i++ {
		got := Explain(a.Analyze(context.Background(), text))
		if got.Message != first.Message {
			t.Fatalf("Run %d message differs:\n%q\n%q", i, got.Message, first.Message)
		}
		if len(got.Mentions) != len(first.Mentions) || len(got.EvidenceSnippets) != len(first.EvidenceSnippets) {
			t.Fatalf("Run %d structure differs", i)
		}
	}
}
