package engine

import (
	"math"

	"opticost/core/types"
)

// weightBreakdown holds the shipped weight in kg
type weightBreakdown struct {
	structure    float64
	ballastCount int
	ballast      float64
	total        float64
}

// ballastCount returns 1 + ceil(spots/2) for an enabled ballast option, else 0
func ballastCount(enabled bool, spots int) int {
	if !enabled || spots <= 0 {
		return 0
	}
	return 1 + int(math.Ceil(float64(spots)/2))
}

func resolveWeight(in types.JobInputs, model types.ModelData, ballast *types.BallastData) weightBreakdown {
	spots := nonNegative(in.Spots)

	w := weightBreakdown{
		structure:    float64(spots) * model.StructureWeightPerSpot,
		ballastCount: ballastCount(in.BallastEnabled, spots),
	}
	if ballast != nil && ballast.WeightKg > 0 {
		w.ballast = float64(w.ballastCount) * ballast.WeightKg
	}
	w.total = w.structure + w.ballast
	return w
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
