// Package normalize maps informal, obfuscated chat text to a canonical
// form the rule engine can match against, while keeping enough bookkeeping
// to quote evidence from the ORIGINAL text later.
//
// The normalizer is pure and deterministic: no I/O, no shared mutable
// state, and it never fails - unknown input always yields a best-effort
// result.
package normalize

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
)

// DefaultMaxInput bounds analyzed input. Longer text is truncated at a
// rune boundary and flagged; analysis proceeds on the prefix.
const DefaultMaxInput = 20000

// Replacement records one normalization edit, with the raw-text span it
// replaced so evidence can be backmapped.
type Replacement struct {
	RawStart    int    `json:"raw_start"`
	RawEnd      int    `json:"raw_end"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

// Message is the result of normalizing one block of chat text. It is
// created once per analysis call, owned solely by that call, and never
// mutated afterwards.
type Message struct {
	Raw          string
	Text         string // normalized text; rules match against this
	Replacements []Replacement
	Tone         Tone
	Truncated    bool

	mapping *mappedText
}

// Backmap translates a span of the normalized text into raw-input byte
// offsets. ok=false means the span could not be mapped; callers omit the
// snippet rather than fail the analysis.
func (m *Message) Backmap(start, end int) (rawStart, rawEnd int, ok bool) {
	if m.mapping == nil {
		return 0, 0, false
	}
	rawStart, rawEnd, ok = m.mapping.backmap(start, end)
	if !ok || rawStart < 0 || rawEnd > len(m.Raw) || rawStart >= rawEnd {
		return 0, 0, false
	}
	return rawStart, rawEnd, true
}

// Quote returns the raw substring behind a normalized span. Evidence
// snippets always quote the original text, never the normalized form.
func (m *Message) Quote(start, end int) (string, bool) {
	rs, re, ok := m.Backmap(start, end)
	if !ok {
		return "", false
	}
	return m.Raw[rs:re], true
}

// Normalizer holds the compiled abbreviation table. Construct once, share
// read-only across concurrent analyses.
type Normalizer struct {
	maxInput int
	rules    []abbrevRule
}

// New returns a Normalizer with the default input bound.
func New() *Normalizer {
	return NewWithLimit(DefaultMaxInput)
}

// NewWithLimit returns a Normalizer that truncates input beyond maxBytes.
func NewWithLimit(maxBytes int) *Normalizer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxInput
	}
	return &Normalizer{
		maxInput: maxBytes,
		rules:    buildAbbrevRules(),
	}
}

// invisibleSet matches format characters (zero-width spaces, joiners,
// directional marks) that are routinely abused to break up flagged words.
var invisibleSet = runes.In(unicode.Cf)

// Normalize runs the full pipeline: truncate, strip invisibles, collapse
// stretched letters, expand abbreviations (including masked spellings),
// collapse whitespace, and derive message-level tone markers.
func (n *Normalizer) Normalize(text string) *Message {
	raw := text
	truncated := false
	if len(text) > n.maxInput {
		cut := n.maxInput
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
		raw = text
		truncated = true
	}

	m := newMappedText(text)
	var replacements []Replacement

	n.stripInvisibles(m)
	n.collapseElongation(m, &replacements)
	n.expandAbbreviations(m, &replacements)
	n.collapseWhitespace(m)

	return &Message{
		Raw:          raw,
		Text:         m.text,
		Replacements: replacements,
		Tone:         detectTone(raw, m.text),
		Truncated:    truncated,
		mapping:      m,
	}
}

// stripInvisibles deletes zero-width and other format runes. Walks from
// the end so byte offsets of pending deletions stay valid.
func (n *Normalizer) stripInvisibles(m *mappedText) {
	type span struct{ start, end int }
	var drops []span
	for i, r := range m.text {
		if invisibleSet.Contains(r) {
			drops = append(drops, span{i, i + utf8.RuneLen(r)})
		}
	}
	for i := len(drops) - 1; i >= 0; i-- {
		m.replaceRange(drops[i].start, drops[i].end, "")
	}
}

// collapseElongation shortens runs of a repeated letter beyond two
// occurrences ("soooo" -> "soo"). Two copies survive so the emphasis
// signal is preserved while stretch-based obfuscation is defeated.
func (n *Normalizer) collapseElongation(m *mappedText, recs *[]Replacement) {
	type run struct {
		start, end int
		letter     rune
	}
	var runs []run
	var cur run
	count := 0
	for i, r := range m.text {
		if unicode.IsLetter(r) && count > 0 && r == cur.letter {
			count++
			cur.end = i + utf8.RuneLen(r)
			continue
		}
		if count > 2 {
			runs = append(runs, cur)
		}
		if unicode.IsLetter(r) {
			cur = run{start: i, end: i + utf8.RuneLen(r), letter: r}
			count = 1
		} else {
			count = 0
		}
	}
	if count > 2 {
		runs = append(runs, cur)
	}

	for i := len(runs) - 1; i >= 0; i-- {
		ru := runs[i]
		original := m.text[ru.start:ru.end]
		repl := string([]rune{ru.letter, ru.letter})
		rawStart, rawEnd := m.originSpan(ru.start, ru.end)
		m.replaceRange(ru.start, ru.end, repl)
		*recs = append(*recs, Replacement{
			RawStart:    rawStart,
			RawEnd:      rawEnd,
			Original:    original,
			Replacement: repl,
		})
	}
}

// expandAbbreviations applies the static many-to-one shorthand table.
// Matches are replaced from end to start per rule so positions found in
// one pass stay valid while editing.
func (n *Normalizer) expandAbbreviations(m *mappedText, recs *[]Replacement) {
	for _, rule := range n.rules {
		locs := rule.re.FindAllStringIndex(m.text, -1)
		for i := len(locs) - 1; i >= 0; i-- {
			start, end := locs[i][0], locs[i][1]
			original := m.text[start:end]
			if original == rule.canon {
				continue
			}
			rawStart, rawEnd := m.originSpan(start, end)
			m.replaceRange(start, end, rule.canon)
			*recs = append(*recs, Replacement{
				RawStart:    rawStart,
				RawEnd:      rawEnd,
				Original:    original,
				Replacement: rule.canon,
			})
		}
	}
}

// collapseWhitespace folds runs of whitespace into a single space and
// trims the ends, mirroring what the rule patterns expect.
func (n *Normalizer) collapseWhitespace(m *mappedText) {
	type span struct{ start, end int }
	var runs []span
	inRun := false
	var start int
	for i, r := range m.text {
		if unicode.IsSpace(r) {
			if !inRun {
				inRun = true
				start = i
			}
			continue
		}
		if inRun {
			runs = append(runs, span{start, i})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, span{start, len(m.text)})
	}
	for i := len(runs) - 1; i >= 0; i-- {
		ru := runs[i]
		repl := " "
		if ru.start == 0 || ru.end == len(m.text) {
			repl = ""
		}
		if m.text[ru.start:ru.end] == repl {
			continue
		}
		m.replaceRange(ru.start, ru.end, repl)
	}
}
