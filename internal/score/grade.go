// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import "github.com/pdiddy/review-trust/pkg/types"

// Grade letters, best first.
const (
	GradeS = "S"
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
)

// Grade maps a score to its letter using descending thresholds.
func Grade(value int, g types.GradeConfig) string {
	switch {
	case value >= g.S:
		return GradeS
	case value >= g.A:
		return GradeA
	case value >= g.B:
		return GradeB
	case value >= g.C:
		return GradeC
	default:
		return GradeD
	}
}

// AdjustForContext applies the penalty for the review being evaluated.
// A verified purchase is left alone; otherwise a promotional-program item
// takes the Vine penalty and anything else the unverified penalty. The
// result is clamped to [0,100]. Analyze never calls this.
func AdjustForContext(value int, pc types.PurchaseContext, cfg types.ContextPenaltyConfig) int {
	switch {
	case pc.Verified:
	case pc.Vine:
		value += cfg.Vine
	default:
		value += cfg.Unverified
	}
	return min(100, max(0, value))
}
