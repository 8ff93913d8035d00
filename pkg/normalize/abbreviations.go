package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// abbreviations maps informal/online shorthand to its canonical form.
// The canonical form of a hostile term is itself hostile: normalization
// must never sanitize intent away, or downstream rules stop firing.
var abbreviations = map[string]string{
	// Pronouns and single-letter shorthand
	"ur": "your",
	"u":  "you",
	"r":  "are",
	"y":  "why",
	"c":  "see",
	"b":  "be",
	"n":  "and",

	// Common phrases
	"idk":  "I don't know",
	"idc":  "I don't care",
	"brb":  "be right back",
	"btw":  "by the way",
	"omg":  "oh my god",
	"jk":   "just kidding",
	"fr":   "for real",
	"ngl":  "not going to lie",
	"wyd":  "what are you doing",
	"smh":  "shaking my head",
	"tbh":  "to be honest",
	"imo":  "in my opinion",
	"fyi":  "for your information",
	"np":   "no problem",
	"ty":   "thank you",
	"thx":  "thank you",
	"yw":   "you're welcome",
	"gg":   "good game",
	"gl":   "good luck",
	"hf":   "have fun",
	"af":   "as fuck", // intensity survives
	"rn":   "right now",
	"tmr":  "tomorrow",
	"tmrw": "tomorrow",
	"ttyl": "talk to you later",
	"ily":  "I love you",
	"ily2": "I love you too",
	"hbu":  "how about you",
	"wbu":  "what about you",
	"nvm":  "never mind",
	"ikr":  "I know right",
	"fml":  "fuck my life",
	"wtf":  "what the fuck",
	"omw":  "on my way",
	"tmi":  "too much information",

	// Hostile shorthand - canonical forms stay hostile
	"stfu": "shut up",
	"kys":  "kill yourself",
	"kms":  "kill myself",

	// Laughing expressions normalize to one token
	"lol":   "laughing",
	"lmao":  "laughing",
	"lmfao": "laughing",
	"rofl":  "laughing",
}

// maskedTerms are shorthand forms people deliberately break up with
// punctuation, symbols, or spaces ("s.t.f.u", "k y s") to dodge filters.
// Each gets a letter-gap regex so the masked spelling still resolves to
// the same canonical replacement.
var maskedTerms = []string{"stfu", "kys", "wtf", "kms"}

type abbrevRule struct {
	short string
	canon string
	re    *regexp.Regexp
}

// buildAbbrevRules compiles the abbreviation table once at construction.
// Masked-spelling rules come first (they span wider), then plain rules
// longest-first so longer shorthand wins over its prefixes.
func buildAbbrevRules() []abbrevRule {
	rules := make([]abbrevRule, 0, len(abbreviations)+len(maskedTerms))

	for _, term := range maskedTerms {
		canon, ok := abbreviations[term]
		if !ok {
			canon = term
		}
		rules = append(rules, abbrevRule{
			short: term,
			canon: canon,
			re:    regexp.MustCompile(`(?i)\b` + maskedPattern(term) + `\b`),
		})
	}

	plain := make([]string, 0, len(abbreviations))
	for short := range abbreviations {
		plain = append(plain, short)
	}
	sort.Slice(plain, func(i, j int) bool {
		if len(plain[i]) != len(plain[j]) {
			return len(plain[i]) > len(plain[j])
		}
		return plain[i] < plain[j]
	})
	for _, short := range plain {
		rules = append(rules, abbrevRule{
			short: short,
			canon: abbreviations[short],
			re:    regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(short) + `\b`),
		})
	}
	return rules
}

// maskedPattern allows a single separator (space, dot, star, dash,
// underscore) between each letter of the term: "s.t.f.u", "s t f u".
func maskedPattern(term string) string {
	letters := strings.Split(term, "")
	for i, l := range letters {
		letters[i] = regexp.QuoteMeta(l)
	}
	return strings.Join(letters, `[\s.\*\-_]`)
}
