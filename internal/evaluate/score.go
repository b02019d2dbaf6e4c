package evaluate

import (
	"math"
	"strings"
)

const heuristicFeedback = "Automatic grading was unavailable, so this answer was scored by its level of detail only. " +
	"Strong answers name what happened, why it happened and what you do differently today."

// Quantize snaps a judge score to the nearest quarter, rounding ties up,
// and clamps it to [0,1]. NaN scores 0.
func Quantize(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	q := math.Floor(x*4+0.5) / 4
	return min(max(q, 0), 1)
}

// HeuristicScore grades a free-text answer by word count alone. It never
// awards full marks.
func HeuristicScore(answer string) float64 {
	switch n := len(strings.Fields(answer)); {
	case n < 5:
		return 0
	case n < 15:
		return 0.25
	case n < 40:
		return 0.5
	default:
		return 0.75
	}
}
