package normalize

import "testing"

func TestDetectTone(t *testing.T) {
	n := New()

	tests := []struct {
		name  string
		input string
		check func(Tone) bool
		desc  string
	}{
		{"joking emoji", "you're such a loser 😂", func(tn Tone) bool { return tn.Joking && tn.HasEmoji }, "Joking+HasEmoji"},
		{"friendly emoji", "good game 😊", func(tn Tone) bool { return tn.Friendly && tn.HasEmoji }, "Friendly+HasEmoji"},
		{"annoyed emoji", "whatever 🙄", func(tn Tone) bool { return tn.Annoyed && tn.HasEmoji }, "Annoyed+HasEmoji"},
		{"lol folds to joking", "you're a loser lol", func(tn Tone) bool { return tn.Joking }, "Joking"},
		{"jk folds to joking", "jk", func(tn Tone) bool { return tn.Joking }, "Joking"},
		{"bang run is intense", "stop it!!!", func(tn Tone) bool { return tn.Intense }, "Intense"},
		{"shouted word is intense", "LEAVE me alone", func(tn Tone) bool { return tn.Intense }, "Intense"},
		{"short caps not intense", "OK sure", func(tn Tone) bool { return !tn.Intense }, "not Intense"},
		{"plain text no markers", "see you tomorrow", func(tn Tone) bool {
			return !tn.Joking && !tn.Friendly && !tn.Annoyed && !tn.Intense && !tn.HasEmoji
		}, "no markers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if !tt.check(got.Tone) {
				t.Errorf("Normalize(%q).Tone = %+v, want %s", tt.input, got.Tone, tt.desc)
			}
		})
	}
}

func TestHasRepairMarker(t *testing.T) {
	n := New()

	tests := []struct {
		input string
		want  bool
	}{
		{"jk jk", true}, // expands to "just kidding"
		{"all good we're fine", true},
		{"my bad", true},
		{"didn't mean it", true},
		{"no worries", true},
		{"you're pathetic", false},
		{"", false},
	}

	for _, tt := range tests {
		msg := n.Normalize(tt.input)
		if got := HasRepairMarker(msg.Text); got != tt.want {
			t.Errorf("HasRepairMarker(%q normalized to %q) = %v, want %v", tt.input, msg.Text, got, tt.want)
		}
	}
}
