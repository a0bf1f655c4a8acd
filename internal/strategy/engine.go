package strategy

import "SurgeScreener/internal/model"

// StrongMultiplier scales the threshold into the strong highlight tier.
const StrongMultiplier = 1.5

// tiers maps threshold multiples to highlight tiers, highest first.
var tiers = []struct {
	MinMultiple float64
	Tier        model.Tier
}{
	{StrongMultiplier, model.TierStrong},
	{1.0, model.TierShock},
}

// IsShock reports whether ratio qualifies against threshold. Equality qualifies.
func IsShock(ratio, threshold float64) bool {
	return ratio >= threshold
}

// Classify maps a surge ratio to its tier for the given threshold.
func Classify(ratio, threshold float64) model.Tier {
	for _, t := range tiers {
		if ratio >= threshold*t.MinMultiple {
			return t.Tier
		}
	}
	return model.TierNone
}

// Evaluate turns a surge result into a board row, or returns false when the
// symbol does not reach the threshold.
func Evaluate(res model.SurgeResult, sector string, threshold float64) (model.Row, bool) {
	if !IsShock(res.SurgeRatio, threshold) {
		return model.Row{}, false
	}
	return model.Row{
		SurgeResult: res,
		Sector:      sector,
		Tier:        Classify(res.SurgeRatio, threshold),
	}, true
}
