package rules

import (
	"regexp"
	"strings"
)

// Sentence is one segment of the normalized text, with byte offsets into
// it. Segmentation is a shared pass: context gates and cross-sentence
// composites both consume the same ordered sequence.
type Sentence struct {
	Start int
	End   int
	Text  string
}

var reSentenceBreak = regexp.MustCompile(`[.!?\n]+`)

// SegmentSentences splits text on sentence-ending punctuation and line
// breaks. The boundary choice is a heuristic, not a grammatical contract.
func SegmentSentences(text string) []Sentence {
	var out []Sentence
	prev := 0
	breaks := reSentenceBreak.FindAllStringIndex(text, -1)
	for _, b := range breaks {
		appendSentence(&out, text, prev, b[0])
		prev = b[1]
	}
	appendSentence(&out, text, prev, len(text))
	return out
}

func appendSentence(out *[]Sentence, text string, start, end int) {
	for start < end && (text[start] == ' ' || text[start] == '\t') {
		start++
	}
	for end > start && (text[end-1] == ' ' || text[end-1] == '\t') {
		end--
	}
	if start < end {
		*out = append(*out, Sentence{Start: start, End: end, Text: text[start:end]})
	}
}

// enclosing returns the sentence containing the byte offset, if any.
func enclosing(sentences []Sentence, offset int) (Sentence, bool) {
	for _, s := range sentences {
		if offset >= s.Start && offset < s.End {
			return s, true
		}
	}
	return Sentence{}, false
}

var rePunct = regexp.MustCompile(`[^\p{L}\p{N}']+`)

func tokens(s string) []string {
	cleaned := rePunct.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Fields(cleaned)
}

// firstPersonSubjects are tokens that mark the sentence as being about the
// speaker. "me" is deliberately absent: "answer me" addresses the other.
var firstPersonSubjects = map[string]bool{
	"i": true, "im": true, "i'm": true, "ive": true, "i've": true,
	"id": true, "i'd": true, "i'll": true, "we": true, "we're": true,
	"my": true, "mine": true,
}

func hasFirstPersonSubject(toks []string) bool {
	for _, t := range toks {
		if firstPersonSubjects[t] {
			return true
		}
	}
	return false
}

// directiveVerbs open a second-person imperative. Small on purpose: the
// gate should admit obvious commands, not classify English.
var directiveVerbs = map[string]bool{
	"answer": true, "reply": true, "respond": true, "send": true,
	"call": true, "text": true, "come": true, "go": true, "stop": true,
	"do": true, "delete": true, "give": true, "show": true, "tell": true,
	"listen": true, "hurry": true, "shut": true, "say": true, "prove": true,
}

// IsDemandContext reports whether a sentence is in imperative,
// addressed-to-other form: no first-person subject, and either a leading
// directive verb or an explicit second-person address.
func IsDemandContext(s Sentence) bool {
	toks := tokens(s.Text)
	if len(toks) == 0 || hasFirstPersonSubject(toks) {
		return false
	}
	if directiveVerbs[toks[0]] || (toks[0] == "dont" || toks[0] == "don't") {
		return true
	}
	for _, t := range toks {
		if t == "you" || t == "your" || t == "you're" || t == "youre" {
			return true
		}
	}
	return false
}

// IsSelfReport reports whether a sentence is a first-person present-tense
// self-description ("I'm busy right now"). Rules with the
// self_report_exclusion context are suppressed inside such sentences.
func IsSelfReport(s Sentence) bool {
	toks := tokens(s.Text)
	if len(toks) == 0 {
		return false
	}
	if toks[0] == "i" || toks[0] == "im" || toks[0] == "i'm" || toks[0] == "we" {
		return true
	}
	return hasFirstPersonSubject(toks)
}

// isBareDirective reports whether a sentence is a short, subjectless
// command ("Answer me"). One half of the cross-sentence composite.
func isBareDirective(s Sentence, directives map[string]bool) bool {
	toks := tokens(s.Text)
	if len(toks) == 0 || len(toks) > 4 {
		return false
	}
	if hasFirstPersonSubject(toks) {
		return false
	}
	if directives != nil && directives[toks[0]] {
		return true
	}
	return directiveVerbs[toks[0]]
}
