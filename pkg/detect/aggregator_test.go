package detect

import (
	"math"
	"testing"

	"github.com/TryMightyAI/haven/pkg/rules"
)

func TestRuleScore_Saturating(t *testing.T) {
	mk := func(confs ...float64) []rules.MatchInstance {
		out := make([]rules.MatchInstance, len(confs))
		for i, c := range confs {
			out[i] = rules.MatchInstance{Confidence: c}
		}
		return out
	}

	tests := []struct {
		name  string
		confs []float64
		want  float64
	}{
		{"no matches", nil, 0},
		{"single match", []float64{0.5}, 0.5},
		{"two matches saturate", []float64{0.5, 0.5}, 0.75},
		{"three matches", []float64{0.5, 0.5, 0.5}, 0.875},
		{"full confidence caps", []float64{1.0, 0.9}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ruleScore(mk(tt.confs...))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ruleScore(%v) = %v, want %v", tt.confs, got, tt.want)
			}
		})
	}
}

func TestRuleScore_Monotone(t *testing.T) {
	// Adding an instance never decreases the score
	var matches []rules.MatchInstance
	prev := 0.0
	for i := 0; i < 20; i++ {
		matches = append(matches, rules.MatchInstance{Confidence: 0.3})
		got := ruleScore(matches)
		if got < prev {
			t.Fatalf("Score decreased from %v to %v at %d instances", prev, got, len(matches))
		}
		if got > 1.0 {
			t.Fatalf("Score %v exceeds 1.0", got)
		}
		prev = got
	}

	// Raising a confidence never decreases the score
	low := ruleScore([]rules.MatchInstance{{Confidence: 0.3}, {Confidence: 0.4}})
	high := ruleScore([]rules.MatchInstance{{Confidence: 0.5}, {Confidence: 0.4}})
	if high < low {
		t.Errorf("Higher confidence scored lower: %v < %v", high, low)
	}
}

func TestCombine(t *testing.T) {
	sem := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		rule     float64
		semantic *float64
		want     float64
	}{
		{"rules only carry full weight", 0.5, nil, 0.5},
		{"weighted combination", 0.5, sem(0.8), 0.6*0.5 + 0.4*0.8},
		{"zero semantic pulls down", 0.8, sem(0.0), 0.48},
		{"both maxed clamps to one", 1.0, sem(1.0), 1.0},
		{"negative clamps to zero", -0.2, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := combine(tt.rule, tt.semantic)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("combine(%v, %v) = %v, want %v", tt.rule, tt.semantic, got, tt.want)
			}
		})
	}
}
