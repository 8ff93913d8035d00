// Package semantic provides the optional semantic classifier for the
// detection pipeline. It scores normalized text against per-category
// reference phrases using local embeddings (Hugot/ONNX) stored in an
// in-memory chromem-go collection.
//
// Absence is a valid, expected state: when no model is available the
// pipeline runs rules-only and the aggregator uses w_rule = 1.0.
package semantic

import (
	"context"

	"github.com/TryMightyAI/haven/pkg/risk"
)

// Scorer is the call contract the aggregator depends on. Score returns a
// category -> [0,1] mapping; categories without signal may be absent.
// Implementations must be safe for concurrent use and respect ctx
// cancellation, since this is the pipeline's only high-latency call.
type Scorer interface {
	Score(ctx context.Context, text string) (map[risk.Category]float64, error)
	Ready() bool
}

// referencePhrases are canonical examples of each risk category used to
// seed the vector collection. Scoring is max cosine similarity between
// the input and any phrase of the category.
var referencePhrases = map[risk.Category][]string{
	risk.CategoryBullying: {
		"You are ugly and stupid",
		"Nobody likes you",
		"Everyone hates you",
	},
	risk.CategoryManipulation: {
		"If you really cared about me, you would do this",
		"You owe me after all I did for you",
		"I'm the only one who understands you",
	},
	risk.CategoryPressure: {
		"You have to do this right now",
		"Don't be a baby, everyone else does it",
		"You must send this immediately",
	},
	risk.CategorySecrecy: {
		"Don't tell anyone about this",
		"Keep this our secret",
		"Delete these messages",
	},
	risk.CategoryGuiltShifting: {
		"This is all your fault",
		"You made me do this",
		"This is because of you",
	},
	risk.CategoryGrooming: {
		"You're so mature for your age",
		"Adults won't understand us",
		"Meet me alone without telling anyone",
	},
}
