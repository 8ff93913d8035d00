package rules

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TryMightyAI/haven/pkg/risk"
)

// ruleFile mirrors the YAML rule configuration store. The store is meant
// to be human-editable; validation happens here, once, at load time -
// never at match time.
type ruleFile struct {
	Version    int                        `yaml:"version"`
	Categories map[string]categoryConfig  `yaml:"categories"`
	Composites []compositeConfig          `yaml:"composites"`
}

type categoryConfig struct {
	Thresholds *thresholdConfig `yaml:"thresholds"`
	Patterns   []patternConfig  `yaml:"patterns"`
}

type thresholdConfig struct {
	Yellow float64 `yaml:"yellow"`
	Red    float64 `yaml:"red"`
}

type patternConfig struct {
	ID          string  `yaml:"id"`
	Match       string  `yaml:"match"` // keyword | regex
	Pattern     string  `yaml:"pattern"`
	Confidence  float64 `yaml:"confidence"`
	Context     string  `yaml:"context"`
	Threat      bool    `yaml:"threat"`
	Severe      bool    `yaml:"severe"`
	Description string  `yaml:"description"`
}

type compositeConfig struct {
	ID             string   `yaml:"id"`
	Category       string   `yaml:"category"`
	Confidence     float64  `yaml:"confidence"`
	Threat         bool     `yaml:"threat"`
	Description    string   `yaml:"description"`
	DirectiveTerms []string `yaml:"directive_terms"`
	UrgencyTerms   []string `yaml:"urgency_terms"`
}

// Load reads and validates the rule configuration. Malformed entries are
// individually rejected (logged and recorded in Ruleset.Rejected); the
// remaining valid subset still loads. Only an unreadable or unparseable
// file is a hard error.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Ruleset from raw YAML.
func Parse(data []byte) (*Ruleset, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules config: %w", err)
	}

	rs := &Ruleset{
		Thresholds: risk.DefaultThresholds(),
	}

	for _, name := range orderedCategoryNames(f.Categories) {
		cat := risk.Category(name)
		cc := f.Categories[name]
		if !cat.Valid() {
			rs.reject(name, fmt.Errorf("unknown category %q", name))
			continue
		}
		if cc.Thresholds != nil {
			t, err := validThresholds(cc.Thresholds)
			if err != nil {
				rs.reject(name+"/thresholds", err)
			} else {
				rs.Thresholds[cat] = t
			}
		}
		for _, pc := range cc.Patterns {
			rule, err := buildRule(cat, pc)
			if err != nil {
				rs.reject(pc.ID, err)
				continue
			}
			rs.Rules = append(rs.Rules, rule)
		}
	}

	for _, cc := range f.Composites {
		comp, err := buildComposite(cc)
		if err != nil {
			rs.reject(cc.ID, err)
			continue
		}
		rs.Composites = append(rs.Composites, comp)
	}

	if len(rs.Rules) == 0 && len(rs.Composites) == 0 {
		return nil, fmt.Errorf("rules config contains no valid rules")
	}
	return rs, nil
}

func (rs *Ruleset) reject(id string, err error) {
	rs.Rejected = append(rs.Rejected, RejectedRule{ID: id, Err: err})
	log.Printf("[WARN] rules: rejected entry %q: %v", id, err)
}

func orderedCategoryNames(m map[string]categoryConfig) []string {
	names := make([]string, 0, len(m))
	for _, c := range risk.Categories {
		if _, ok := m[string(c)]; ok {
			names = append(names, string(c))
		}
	}
	// Unknown names still surface (and get rejected) deterministically.
	for name := range m {
		if !risk.Category(name).Valid() {
			names = append(names, name)
		}
	}
	return names
}

func validThresholds(tc *thresholdConfig) (risk.Thresholds, error) {
	if tc.Yellow <= 0 || tc.Red <= 0 || tc.Yellow > 1 || tc.Red > 1 {
		return risk.Thresholds{}, fmt.Errorf("thresholds must be in (0, 1]")
	}
	if tc.Yellow >= tc.Red {
		return risk.Thresholds{}, fmt.Errorf("yellow threshold %.2f must be below red %.2f", tc.Yellow, tc.Red)
	}
	return risk.Thresholds{Yellow: tc.Yellow, Red: tc.Red}, nil
}

func buildRule(cat risk.Category, pc patternConfig) (Rule, error) {
	if pc.ID == "" {
		return Rule{}, fmt.Errorf("rule in category %q has no id", cat)
	}
	if pc.Confidence <= 0 || pc.Confidence > 1 {
		return Rule{}, fmt.Errorf("confidence %.2f out of range (0, 1]", pc.Confidence)
	}

	kind := MatchKind(pc.Match)
	if kind == "" {
		kind = MatchRegex
	}

	var expr string
	switch kind {
	case MatchKeyword:
		if strings.TrimSpace(pc.Pattern) == "" {
			return Rule{}, fmt.Errorf("empty keyword pattern")
		}
		expr = `(?i)\b` + regexp.QuoteMeta(pc.Pattern) + `\b`
	case MatchRegex:
		expr = `(?i)` + pc.Pattern
	default:
		return Rule{}, fmt.Errorf("unknown match kind %q", pc.Match)
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, fmt.Errorf("compile pattern: %w", err)
	}

	ctx := ContextRequirement(pc.Context)
	if ctx == "" {
		ctx = ContextNone
	}
	switch ctx {
	case ContextNone, ContextDemand, ContextSelfReportExclusion:
	default:
		return Rule{}, fmt.Errorf("unknown context requirement %q", pc.Context)
	}

	return Rule{
		ID:          pc.ID,
		Category:    cat,
		Kind:        kind,
		Confidence:  pc.Confidence,
		Context:     ctx,
		Threat:      pc.Threat,
		Severe:      pc.Severe,
		Description: pc.Description,
		re:          re,
	}, nil
}

func buildComposite(cc compositeConfig) (Composite, error) {
	if cc.ID == "" {
		return Composite{}, fmt.Errorf("composite has no id")
	}
	cat := risk.Category(cc.Category)
	if !cat.Valid() {
		return Composite{}, fmt.Errorf("composite %q: unknown category %q", cc.ID, cc.Category)
	}
	if cc.Confidence <= 0 || cc.Confidence > 1 {
		return Composite{}, fmt.Errorf("composite %q: confidence %.2f out of range", cc.ID, cc.Confidence)
	}
	if len(cc.UrgencyTerms) == 0 {
		return Composite{}, fmt.Errorf("composite %q: no urgency terms", cc.ID)
	}

	quoted := make([]string, len(cc.UrgencyTerms))
	for i, t := range cc.UrgencyTerms {
		if strings.TrimSpace(t) == "" {
			return Composite{}, fmt.Errorf("composite %q: empty urgency term", cc.ID)
		}
		quoted[i] = regexp.QuoteMeta(t)
	}
	urgencyRe, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return Composite{}, fmt.Errorf("composite %q: %w", cc.ID, err)
	}

	directiveSet := make(map[string]bool, len(cc.DirectiveTerms))
	for _, t := range cc.DirectiveTerms {
		directiveSet[strings.ToLower(strings.TrimSpace(t))] = true
	}

	return Composite{
		ID:             cc.ID,
		Category:       cat,
		Confidence:     cc.Confidence,
		Threat:         cc.Threat,
		Description:    cc.Description,
		DirectiveTerms: cc.DirectiveTerms,
		UrgencyTerms:   cc.UrgencyTerms,
		directiveSet:   directiveSet,
		urgencyRe:      urgencyRe,
	}, nil
}
