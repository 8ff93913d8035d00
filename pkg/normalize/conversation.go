package normalize

import (
	"regexp"
	"strings"
)

// Turn is one message in a conversation, attributed to a speaker when the
// text carries "Name: message" labels.
type Turn struct {
	Speaker string
	Text    string
}

var reSpeakerLine = regexp.MustCompile(`(?m)^\s*(\w+)\s*:\s*(.+)$`)

// ExtractTurns splits conversational text into speaker turns.
//
//   - Labelled lines ("alex: hey") become attributed turns.
//   - Unlabelled multi-line text alternates two anonymous speakers, which
//     is enough for the mutuality check without inventing identities.
//   - A single block is one turn with no speaker.
func ExtractTurns(text string) []Turn {
	labelled := reSpeakerLine.FindAllStringSubmatch(text, -1)
	if len(labelled) >= 2 {
		turns := make([]Turn, 0, len(labelled))
		for _, m := range labelled {
			turns = append(turns, Turn{
				Speaker: strings.TrimSpace(m[1]),
				Text:    strings.TrimSpace(m[2]),
			})
		}
		return turns
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) <= 1 {
		return []Turn{{Speaker: "", Text: strings.TrimSpace(text)}}
	}
	turns := make([]Turn, 0, len(lines))
	for i, line := range lines {
		speaker := "a"
		if i%2 == 1 {
			speaker = "b"
		}
		turns = append(turns, Turn{Speaker: speaker, Text: line})
	}
	return turns
}
