package detect

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/TryMightyAI/haven/pkg/normalize"
	"github.com/TryMightyAI/haven/pkg/risk"
	"github.com/TryMightyAI/haven/pkg/rules"
	"github.com/TryMightyAI/haven/pkg/semantic"
)

// DefaultClassifierTimeout bounds one semantic classifier call. The
// classifier is the pipeline's only high-latency operation; everything
// else is deterministic in-memory work.
const DefaultClassifierTimeout = 2 * time.Second

// Options configures an Analyzer.
type Options struct {
	// Scorer is the optional semantic classifier. nil means rules-only.
	Scorer semantic.Scorer

	// ClassifierTimeout bounds each Score call (default 2s).
	ClassifierTimeout time.Duration

	// MaxInput bounds analyzed text in bytes (default 20000).
	MaxInput int
}

// Analyzer runs the full detection pipeline. Construct once; Analyze is
// safe for concurrent use - all per-call state lives on the stack of the
// call.
type Analyzer struct {
	normalizer *normalize.Normalizer
	engine     *rules.Engine
	scorer     semantic.Scorer
	timeout    time.Duration
}

// NewAnalyzer wires the pipeline around a validated Ruleset.
func NewAnalyzer(rs *rules.Ruleset, opts Options) *Analyzer {
	timeout := opts.ClassifierTimeout
	if timeout <= 0 {
		timeout = DefaultClassifierTimeout
	}
	return &Analyzer{
		normalizer: normalize.NewWithLimit(opts.MaxInput),
		engine:     rules.NewEngine(rs),
		scorer:     opts.Scorer,
		timeout:    timeout,
	}
}

// Analyze classifies one block of conversational text. It never returns
// an error: every failure mode degrades (truncation, rules-only
// fallback, GREEN-on-no-signal) rather than propagating. Identical input
// against the same rule set and classifier state yields an identical
// assessment.
func (a *Analyzer) Analyze(ctx context.Context, text string) *Assessment {
	msg := a.normalizer.Normalize(text)
	matchRes := a.engine.Match(msg)
	semScores := a.scoreSemantic(ctx, msg.Text)
	turns := normalize.ExtractTurns(msg.Raw)
	thresholds := a.thresholds()
	return aggregate(msg, matchRes, semScores, turns, thresholds, a.normalizer)
}

func (a *Analyzer) thresholds() map[risk.Category]risk.Thresholds {
	t := make(map[risk.Category]risk.Thresholds, len(risk.Categories))
	for _, c := range risk.Categories {
		t[c] = a.engine.Ruleset().ThresholdsFor(c)
	}
	return t
}

// scoreSemantic consults the classifier with a bounded-latency,
// cancellable call. One retry is allowed for a transient failure; after
// that the analysis falls back to rules-only (nil result). Classifier
// absence or failure is never user-visible.
func (a *Analyzer) scoreSemantic(ctx context.Context, text string) map[risk.Category]float64 {
	if a.scorer == nil || !a.scorer.Ready() || text == "" {
		return nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		scores, err := a.scorer.Score(callCtx, text)
		cancel()
		if err == nil {
			return scores
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			// Abandoned analysis: nothing to clean up beyond aborting
			// the classifier call, which just happened.
			return nil
		}
		if attempt == 0 {
			log.Printf("[WARN] detect: classifier call failed, retrying once: %v", err)
			continue
		}
		log.Printf("[WARN] detect: classifier unavailable, falling back to rules-only: %v", err)
	}
	return nil
}
