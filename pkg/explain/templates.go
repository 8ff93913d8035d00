package explain

import "github.com/TryMightyAI/haven/pkg/risk"

// Fixed-vocabulary, age-appropriate phrasing. The explainer composes an
// explanation from these templates as a pure function of the assessment;
// it never generates free text. Category templates must not imply a
// threat - threat wording is gated separately on has_threat.
var categoryTemplates = map[risk.Category]string{
	risk.CategoryBullying: "Someone is saying mean things here. That is not okay, and nobody " +
		"deserves to be talked to like that.",
	risk.CategoryManipulation: "Someone seems to be using feelings or the friendship to push for " +
		"something. Real friends respect your boundaries.",
	risk.CategoryPressure: "Someone is pushing for something quickly, without giving time to " +
		"think. It is always okay to slow down and say no.",
	risk.CategorySecrecy: "Someone is asking to keep things secret from adults you trust. " +
		"Safe people don't ask for that kind of secret.",
	risk.CategoryGuiltShifting: "Someone is trying to shift the blame or make the other person feel " +
		"guilty. Nobody is responsible for someone else's choices.",
	risk.CategoryGrooming: "Parts of this conversation look like someone building trust in an " +
		"inappropriate way. This is serious.",
}

// categoryLabels are the short names surfaced in the mentions list.
var categoryLabels = map[risk.Category]string{
	risk.CategoryBullying:      "bullying",
	risk.CategoryManipulation:  "manipulation",
	risk.CategoryPressure:      "pressure",
	risk.CategorySecrecy:       "secrecy",
	risk.CategoryGuiltShifting: "guilt-shifting",
	risk.CategoryGrooming:      "grooming",
}

const (
	greenTitle   = "Looks okay"
	greenMessage = "This conversation looks okay. Trust your feelings, and talk to " +
		"an adult you trust if something ever feels wrong."

	yellowTitle   = "Be careful"
	yellowClosing = "Be careful with this conversation and pay attention to how it " +
		"makes you feel."

	redTitle   = "This looks serious"
	redClosing = "This is a high-risk situation. Please talk to a trusted adult " +
		"right away."

	// threatSentence is appended only when a threat/ultimatum pattern
	// actually matched (strict threat-gating).
	threatSentence = "It also includes a threat or ultimatum, which is never okay."
)

// helpAdvice is shown with the help section, which is visible only at
// RED.
var helpAdvice = []string{
	"You have the right to feel safe and respected.",
	"It's okay to say no, even to friends or people you know.",
	"Trust your feelings. If something feels wrong, it probably is.",
	"Talk to a trusted adult: a parent, teacher, counselor, or family member.",
	"You are not alone. There are people who want to help you.",
}
