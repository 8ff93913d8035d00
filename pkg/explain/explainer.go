// Package explain turns a risk assessment into a fixed-template,
// age-appropriate explanation. The output is a pure function of the
// assessment: same assessment, same explanation. Every claim in the
// text is backed by evidence in the assessment, and quoted snippets
// always come from the original (pre-normalization) text.
package explain

import (
	"sort"
	"strings"

	"github.com/TryMightyAI/haven/pkg/detect"
	"github.com/TryMightyAI/haven/pkg/risk"
)

const (
	// maxSnippetLen bounds quoted evidence so explanations stay short.
	maxSnippetLen = 50

	maxSnippetsPerCategory = 2
	maxSnippetsTotal       = 3
)

// Snippet is one piece of quoted evidence, taken verbatim from the raw
// input via span backmapping.
type Snippet struct {
	Category risk.Category `json:"category"`
	Quote    string        `json:"quote"`
}

// Result is the rendered explanation for one assessment.
type Result struct {
	RiskLevel risk.Level `json:"risk_level"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`

	// Mentions lists the categories the message talks about, highest
	// combined score first.
	Mentions []string `json:"mentions,omitempty"`

	// EvidenceSnippets quote the raw text behind each mention. A span
	// that cannot be mapped back to the raw text is omitted rather than
	// quoted from the normalized form.
	EvidenceSnippets []Snippet `json:"evidence_snippets,omitempty"`

	HelpSectionVisible bool     `json:"help_section_visible"`
	HelpAdvice         []string `json:"help_advice,omitempty"`
}

// Explain renders the explanation for an assessment.
func Explain(a *detect.Assessment) Result {
	switch a.OverallLevel {
	case risk.LevelRed:
		return explainElevated(a, risk.LevelRed)
	case risk.LevelYellow:
		return explainElevated(a, risk.LevelYellow)
	default:
		return Result{
			RiskLevel: risk.LevelGreen,
			Title:     greenTitle,
			Message:   greenMessage,
		}
	}
}

func explainElevated(a *detect.Assessment, level risk.Level) Result {
	surfaced := surfacedCategories(a, level)

	var sb strings.Builder
	mentions := make([]string, 0, len(surfaced))
	for _, c := range surfaced {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(categoryTemplates[c])
		mentions = append(mentions, categoryLabels[c])
	}

	if a.HasThreat {
		sb.WriteByte(' ')
		sb.WriteString(threatSentence)
	}

	res := Result{
		RiskLevel:        level,
		Mentions:         mentions,
		EvidenceSnippets: collectSnippets(a, surfaced),
	}
	if level == risk.LevelRed {
		res.Title = redTitle
		sb.WriteByte(' ')
		sb.WriteString(redClosing)
		res.HelpSectionVisible = true
		res.HelpAdvice = helpAdvice
	} else {
		res.Title = yellowTitle
		sb.WriteByte(' ')
		sb.WriteString(yellowClosing)
	}
	res.Message = sb.String()
	return res
}

// surfacedCategories selects which categories the message names: at RED,
// the categories that crossed red; at YELLOW, those that crossed yellow.
// guilt_shifting is always included once flagged, even when another
// category dominates. Order is highest combined score first, with the
// canonical category order breaking ties so output is deterministic.
func surfacedCategories(a *detect.Assessment, level risk.Level) []risk.Category {
	crossed := func(c risk.Category) bool {
		if level == risk.LevelRed {
			return a.CrossedRed(c)
		}
		return a.CrossedYellow(c)
	}

	var out []risk.Category
	for _, c := range risk.Categories {
		if crossed(c) {
			out = append(out, c)
		} else if c == risk.CategoryGuiltShifting && a.HasGuiltShifting {
			out = append(out, c)
		}
	}

	rank := make(map[risk.Category]int, len(risk.Categories))
	for i, c := range risk.Categories {
		rank[c] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		si := a.Categories[out[i]].CombinedScore
		sj := a.Categories[out[j]].CombinedScore
		if si != sj {
			return si > sj
		}
		return rank[out[i]] < rank[out[j]]
	})
	return out
}

// collectSnippets backmaps match spans to the raw text and quotes them.
// Spans that fail to map are skipped; long quotes are truncated.
func collectSnippets(a *detect.Assessment, surfaced []risk.Category) []Snippet {
	if a.Message == nil {
		return nil
	}
	var out []Snippet
	for _, c := range surfaced {
		cs, ok := a.Categories[c]
		if !ok {
			continue
		}
		perCat := 0
		for _, m := range cs.Matches {
			if perCat >= maxSnippetsPerCategory || len(out) >= maxSnippetsTotal {
				break
			}
			quote, ok := a.Message.Quote(m.Start, m.End)
			if !ok {
				continue
			}
			out = append(out, Snippet{Category: c, Quote: truncateQuote(quote)})
			perCat++
		}
		if len(out) >= maxSnippetsTotal {
			break
		}
	}
	return out
}

func truncateQuote(s string) string {
	if len(s) <= maxSnippetLen {
		return s
	}
	cut := maxSnippetLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
