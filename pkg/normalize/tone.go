package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// Tone holds message-level tone markers derived from emoji, punctuation
// repetition, and capitalization. These are signals for the aggregator's
// banter gate, not classifications on their own.
type Tone struct {
	Joking   bool `json:"joking"`
	Friendly bool `json:"friendly"`
	Annoyed  bool `json:"annoyed"`
	Intense  bool `json:"intense"`
	HasEmoji bool `json:"has_emoji"`
}

var (
	jokingEmojis   = []string{"😂", "🤣", "😅", "😆", "😜", "😝"}
	friendlyEmojis = []string{"😊", "😄", "❤️", "💕", "🥰", "👍", "🙂"}
	annoyedEmojis  = []string{"😒", "😑", "🙄", "💢", "😤", "😠"}

	// Joking markers in normalized form ("lol" and friends have already
	// been folded into "laughing", "jk" into "just kidding").
	reJokingWord = regexp.MustCompile(`(?i)\b(just kidding|just joking|kidding|joking|laughing|haha+|hehe+)\b`)

	reBangRun = regexp.MustCompile(`!{3,}`)

	// Repair/closure markers in normalized form ("jk" has already been
	// folded into "just kidding").
	reRepairMarker = regexp.MustCompile(`(?i)\b(just kidding|just joking|kidding|all good|no worries|my bad|didn('|’)?t mean it)\b`)
)

// HasRepairMarker reports whether normalized text carries an explicit
// joking-repair or closure marker. Consumed by the banter gate.
func HasRepairMarker(normalized string) bool {
	return reRepairMarker.MatchString(normalized)
}

// detectTone derives tone markers. Emoji detection runs on the raw text
// (normalization may reorder spans); word markers run on the normalized
// text where slang is already canonical.
func detectTone(raw, normalized string) Tone {
	var t Tone
	for _, e := range jokingEmojis {
		if strings.Contains(raw, e) {
			t.Joking = true
			t.HasEmoji = true
			break
		}
	}
	for _, e := range friendlyEmojis {
		if strings.Contains(raw, e) {
			t.Friendly = true
			t.HasEmoji = true
			break
		}
	}
	for _, e := range annoyedEmojis {
		if strings.Contains(raw, e) {
			t.Annoyed = true
			t.HasEmoji = true
			break
		}
	}
	if reJokingWord.MatchString(normalized) {
		t.Joking = true
	}
	if reBangRun.MatchString(raw) || hasShoutedWord(raw) {
		t.Intense = true
	}
	return t
}

// hasShoutedWord reports whether the text contains an all-caps word of
// four or more letters. Short tokens ("OK", "LOL") don't count.
func hasShoutedWord(text string) bool {
	for _, field := range strings.Fields(text) {
		letters := 0
		upper := true
		for _, r := range field {
			if !unicode.IsLetter(r) {
				continue
			}
			letters++
			if !unicode.IsUpper(r) {
				upper = false
				break
			}
		}
		if upper && letters >= 4 {
			return true
		}
	}
	return false
}
