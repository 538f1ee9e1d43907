// Package analysis aggregates Pareto fronts into summaries a human can act
// on: per-objective spread, a knee point, and weighted rankings.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"wayfarer/pkg/framework"
)

// ObjectiveStats summarizes the spread of one objective across a front.
type ObjectiveStats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// FrontSummary describes a front in aggregate. Knee is the member closest
// to the per-objective minima after normalization, a reasonable default
// pick when no preference between the objectives is known.
type FrontSummary struct {
	Size       int
	Objectives []ObjectiveStats
	Knee       framework.ObjectiveSpacePoint
	KneeIndex  int
}

// Summarize computes aggregate statistics for a front.
func Summarize(front []framework.ObjectiveSpacePoint) (FrontSummary, error) {
	if len(front) == 0 {
		return FrontSummary{}, fmt.Errorf("front is empty")
	}
	numObjectives := len(front[0])

	stats := make([]ObjectiveStats, numObjectives)
	for m := 0; m < numObjectives; m++ {
		column := make([]float64, len(front))
		for i, point := range front {
			column[i] = point[m]
		}
		stats[m] = ObjectiveStats{
			Min:  floats.Min(column),
			Max:  floats.Max(column),
			Mean: stat.Mean(column, nil),
		}
		if len(column) > 1 {
			stats[m].StdDev = stat.StdDev(column, nil)
		}
	}

	kneeIndex := 0
	best := math.Inf(1)
	for i, point := range front {
		d := 0.0
		for m, s := range stats {
			r := s.Max - s.Min
			if r == 0 {
				continue
			}
			v := (point[m] - s.Min) / r
			d += v * v
		}
		if d < best {
			best = d
			kneeIndex = i
		}
	}

	knee := make(framework.ObjectiveSpacePoint, numObjectives)
	copy(knee, front[kneeIndex])

	return FrontSummary{
		Size:       len(front),
		Objectives: stats,
		Knee:       knee,
		KneeIndex:  kneeIndex,
	}, nil
}

// RankByWeightedScore orders the members of a front by the weighted sum of
// their normalized objectives, best first, and returns indices into the
// front. Ties resolve to the lower index so rankings are stable.
func RankByWeightedScore(front []framework.ObjectiveSpacePoint, weights []float64) []int {
	if len(front) == 0 {
		return nil
	}
	numObjectives := len(front[0])

	mins := make([]float64, numObjectives)
	maxs := make([]float64, numObjectives)
	for m := 0; m < numObjectives; m++ {
		mins[m] = math.Inf(1)
		maxs[m] = math.Inf(-1)
		for _, point := range front {
			mins[m] = math.Min(mins[m], point[m])
			maxs[m] = math.Max(maxs[m], point[m])
		}
	}

	scores := make([]float64, len(front))
	for i, point := range front {
		for m := 0; m < numObjectives && m < len(weights); m++ {
			r := maxs[m] - mins[m]
			if r == 0 {
				continue
			}
			scores[i] += weights[m] * (point[m] - mins[m]) / r
		}
	}

	indices := make([]int, len(front))
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		if scores[indices[a]] != scores[indices[b]] {
			return scores[indices[a]] < scores[indices[b]]
		}
		return indices[a] < indices[b]
	})
	return indices
}
