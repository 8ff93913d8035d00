package detect

import (
	"fmt"

	"github.com/TryMightyAI/haven/pkg/normalize"
	"github.com/TryMightyAI/haven/pkg/risk"
	"github.com/TryMightyAI/haven/pkg/rules"
)

// Combination weights. When a semantic score is present for a category
// the combined score is w_rule*rule + w_semantic*semantic; when it is
// absent the rules carry full weight (graceful rules-only degradation).
const (
	RuleWeight     = 0.6
	SemanticWeight = 0.4
)

// BanterSuppressionFactor damps the bullying score when the
// mutual-teasing gate holds. Applies to bullying only, never alongside
// an active hard blocker.
const BanterSuppressionFactor = 0.25

// ruleScore folds a category's matches into a saturating score: the
// first match contributes its full confidence, each further match adds
// confidence*(1-score), so the score is monotone in both instance count
// and confidence and capped at 1.0. The exact curve is a tunable, not a
// contract.
func ruleScore(matches []rules.MatchInstance) float64 {
	score := 0.0
	for _, m := range matches {
		score += m.Confidence * (1 - score)
	}
	if score > 1 {
		score = 1
	}
	return score
}

// combine applies the weighted combination for one category.
func combine(rule float64, semantic *float64) float64 {
	if semantic == nil {
		return clamp01(rule)
	}
	return clamp01(RuleWeight*rule + SemanticWeight**semantic)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// The banter gate is composed of independent pure predicates, evaluated
// in a fixed order: hard blockers first (they always win), then severe
// insults, then mutuality, then repair. Suppression applies only when
// every predicate agrees.

// hardBlockerActive reports whether any hard-blocker category sits at or
// above its red threshold. Note the >= here, unlike level promotion:
// the bias runs against suppression.
func hardBlockerActive(scores map[risk.Category]CategoryScore, thresholds map[risk.Category]risk.Thresholds) (bool, risk.Category) {
	for _, c := range risk.HardBlockers {
		cs, ok := scores[c]
		if !ok {
			continue
		}
		if cs.CombinedScore >= thresholds[c].Red {
			return true, c
		}
	}
	return false, ""
}

// mutualTeasing reports whether joking markers came from at least two
// distinct speakers within the last six turns.
func mutualTeasing(turns []normalize.Turn, norm *normalize.Normalizer) bool {
	if len(turns) < 2 {
		return false
	}
	recent := turns
	if len(recent) > 6 {
		recent = recent[len(recent)-6:]
	}
	speakers := make(map[string]bool)
	for _, t := range recent {
		if t.Speaker == "" {
			continue
		}
		if norm.Normalize(t.Text).Tone.Joking {
			speakers[t.Speaker] = true
		}
	}
	return len(speakers) >= 2
}

// repairMarker reports whether an explicit joking/repair marker appears
// in the final three turns ("jk", "my bad", "all good").
func repairMarker(turns []normalize.Turn, norm *normalize.Normalizer) bool {
	if len(turns) == 0 {
		return false
	}
	last := turns
	if len(last) > 3 {
		last = last[len(last)-3:]
	}
	for _, t := range last {
		if normalize.HasRepairMarker(norm.Normalize(t.Text).Text) {
			return true
		}
	}
	return false
}

// aggregate builds the Assessment from rule matches and optional
// semantic scores. Fail-open: with genuinely no signal the result is
// GREEN, never an error.
func aggregate(
	msg *normalize.Message,
	matchRes *rules.Result,
	semScores map[risk.Category]float64,
	turns []normalize.Turn,
	thresholds map[risk.Category]risk.Thresholds,
	norm *normalize.Normalizer,
) *Assessment {
	a := &Assessment{
		OverallLevel:   risk.LevelGreen,
		Categories:     make(map[risk.Category]CategoryScore, len(risk.Categories)),
		Message:        msg,
		Truncated:      msg.Truncated,
		ClassifierUsed: semScores != nil,
		thresholds:     thresholds,
	}

	for _, cat := range risk.Categories {
		matches := matchRes.Matches[cat]
		var semPtr *float64
		if semScores != nil {
			if s, ok := semScores[cat]; ok {
				sv := s
				semPtr = &sv
			}
		}
		rs := ruleScore(matches)
		a.Categories[cat] = CategoryScore{
			Category:      cat,
			RuleScore:     rs,
			SemanticScore: semPtr,
			CombinedScore: combine(rs, semPtr),
			Matches:       matches,
		}
	}

	a.HasThreat = matchRes.HasThreat()

	// Banter suppression: bullying only, all predicates in fixed order.
	if bullying, ok := a.Categories[risk.CategoryBullying]; ok && bullying.CombinedScore > 0 {
		blocked, blocker := hardBlockerActive(a.Categories, thresholds)
		switch {
		case blocked:
			a.BanterReason = fmt.Sprintf("skipped: hard blocker %s active", blocker)
		case matchRes.HasSevere():
			a.BanterReason = "skipped: severe insult present"
		case !mutualTeasing(turns, norm):
			// quiet: no teasing evidence, nothing to report
		case !repairMarker(turns, norm):
			a.BanterReason = "skipped: no repair marker"
		default:
			bullying.CombinedScore = clamp01(bullying.CombinedScore * BanterSuppressionFactor)
			a.Categories[risk.CategoryBullying] = bullying
			a.BanterSuppressed = true
			a.BanterReason = "mutual teasing with repair marker"
		}
	}

	a.HasGuiltShifting = a.CrossedYellow(risk.CategoryGuiltShifting)

	// Level promotion uses strict comparison: a score exactly on the
	// boundary rounds down (conservative downgrade).
	for _, cat := range risk.Categories {
		if a.CrossedRed(cat) {
			a.OverallLevel = risk.LevelRed
			break
		}
		if a.CrossedYellow(cat) {
			a.OverallLevel = risk.LevelYellow
		}
	}

	return a
}
