package rules

import "testing"

func TestSegmentSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"periods", "First one. Second one.", []string{"First one", "Second one"}},
		{"mixed punctuation", "Stop it! Why? Because.", []string{"Stop it", "Why", "Because"}},
		{"newlines", "line one\nline two", []string{"line one", "line two"}},
		{"run of punctuation", "What?! Really...", []string{"What", "Really"}},
		{"no terminator", "no punctuation at all", []string{"no punctuation at all"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentSentences(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("SegmentSentences(%q) = %+v, want %d sentences", tt.input, got, len(tt.want))
			}
			for i, s := range got {
				if s.Text != tt.want[i] {
					t.Errorf("sentence %d = %q, want %q", i, s.Text, tt.want[i])
				}
				if tt.input[s.Start:s.End] != s.Text {
					t.Errorf("sentence %d offsets [%d:%d] don't slice to %q", i, s.Start, s.End, s.Text)
				}
			}
		})
	}
}

func TestIsDemandContext(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Answer me", true},
		{"Come over", true},
		{"don't ignore me", true},
		{"you need to do this", true},
		{"I'm busy", false},
		{"I told you to stop", false},
		{"the weather is nice", false},
		{"", false},
	}

	for _, tt := range tests {
		s := Sentence{Text: tt.text, End: len(tt.text)}
		if got := IsDemandContext(s); got != tt.want {
			t.Errorf("IsDemandContext(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsSelfReport(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"I'm busy right now", true},
		{"im heading out", true},
		{"we can't talk", true},
		{"my phone is dying", true},
		{"Answer me right now", false}, // "me" addresses the other
		{"Come over right now", false},
		{"", false},
	}

	for _, tt := range tests {
		s := Sentence{Text: tt.text, End: len(tt.text)}
		if got := IsSelfReport(s); got != tt.want {
			t.Errorf("IsSelfReport(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsBareDirective(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Answer me", true},
		{"hurry up", true},
		{"Answer me right now please", false}, // too long
		{"I will answer", false},              // first person
		{"the answer is no", false},           // not a leading verb
		{"", false},
	}

	for _, tt := range tests {
		s := Sentence{Text: tt.text, End: len(tt.text)}
		if got := isBareDirective(s, nil); got != tt.want {
			t.Errorf("isBareDirective(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
