// Package risk defines the shared vocabulary for the Haven detection
// pipeline: the six risk categories, the three traffic-light levels, and
// the per-category threshold pairs that govern level promotion.
//
// Everything here is immutable configuration shared read-only across
// concurrent analyses.
package risk

// Category is one of the six fixed risk classes.
type Category string

const (
	CategoryBullying      Category = "bullying"
	CategoryManipulation  Category = "manipulation"
	CategoryPressure      Category = "pressure"
	CategorySecrecy       Category = "secrecy"
	CategoryGuiltShifting Category = "guilt_shifting"
	CategoryGrooming      Category = "grooming"
)

// Categories lists all risk categories in a fixed, deterministic order.
// Iterate this instead of ranging over maps wherever output ordering matters.
var Categories = []Category{
	CategoryBullying,
	CategoryManipulation,
	CategoryPressure,
	CategorySecrecy,
	CategoryGuiltShifting,
	CategoryGrooming,
}

// Valid reports whether c is one of the six known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Level is a traffic-light risk tier.
type Level string

const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelRed    Level = "red"
)

// Thresholds holds the per-category score boundaries for level promotion.
type Thresholds struct {
	Yellow float64
	Red    float64
}

// Default threshold values. Individual categories may override these in the
// rule configuration; the defaults below reflect differing base rates:
// guilt-shifting is subtler and gets a lower yellow boundary, grooming is
// severe enough to warrant a lower red boundary.
const (
	DefaultYellowThreshold = 0.20
	DefaultRedThreshold    = 0.75

	GuiltShiftingYellowThreshold = 0.18
	GroomingRedThreshold         = 0.65
)

// DefaultThresholds returns the built-in threshold table.
func DefaultThresholds() map[Category]Thresholds {
	t := make(map[Category]Thresholds, len(Categories))
	for _, c := range Categories {
		t[c] = Thresholds{Yellow: DefaultYellowThreshold, Red: DefaultRedThreshold}
	}
	t[CategoryGuiltShifting] = Thresholds{Yellow: GuiltShiftingYellowThreshold, Red: DefaultRedThreshold}
	t[CategoryGrooming] = Thresholds{Yellow: DefaultYellowThreshold, Red: GroomingRedThreshold}
	return t
}

// Crosses reports whether a score has crossed a threshold boundary.
// Exact equality rounds DOWN to the lower tier (conservative downgrade):
// a score sitting exactly on a boundary is deliberately not promoted, to
// bias the system against false alarms.
func Crosses(score, threshold float64) bool {
	return score > threshold
}

// HardBlockers are the categories that, once at or above their red
// threshold, can never be reduced by any down-weighting heuristic.
// Banter suppression is skipped entirely while one is active.
var HardBlockers = []Category{
	CategoryManipulation, // coercive control
	CategorySecrecy,      // secrecy demands
	CategoryGrooming,
}

// IsHardBlocker reports whether c participates in hard-blocker precedence.
func IsHardBlocker(c Category) bool {
	for _, hb := range HardBlockers {
		if c == hb {
			return true
		}
	}
	return false
}
