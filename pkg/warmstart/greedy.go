// Package warmstart builds high-quality initial routes for the solver.
//
// Instead of starting from random permutations alone, nearest neighbour
// tours constructed under a sweep of objective weightings give the engine a
// rough first approximation of the Pareto front to refine.
package warmstart

import (
	"math"

	"wayfarer/pkg/motsp"
)

// ObjectiveWeights defines the weights for objectives
type ObjectiveWeights []float64

// GenerateWeightVectors creates evenly distributed weight vectors
func GenerateWeightVectors(count, numObjectives int) []ObjectiveWeights {
	weights := make([]ObjectiveWeights, count)

	for i := 0; i < count; i++ {
		weights[i] = make(ObjectiveWeights, numObjectives)

		switch {
		case numObjectives == 1:
			weights[i][0] = 1.0
		case count == 1:
			// Single weight - equal distribution
			for j := 0; j < numObjectives; j++ {
				weights[i][j] = 1.0 / float64(numObjectives)
			}
		case numObjectives == 2:
			// Linear interpolation between the two objectives
			t := float64(i) / float64(count-1)
			weights[i][0] = 1.0 - t
			weights[i][1] = t
		default:
			// Rotate emphasis across the objectives
			for j := 0; j < numObjectives; j++ {
				weights[i][j] = 0.5 / float64(numObjectives)
			}
			weights[i][i%numObjectives] += 0.5
		}
	}

	return weights
}

// GreedyTours constructs count nearest neighbour tours over weighted
// combinations of the distance matrices. Tour i starts at city i modulo n
// and uses the i-th weight vector, so the tours spread across the trade-off
// between the objectives. The construction is fully deterministic.
func GreedyTours(matrices []motsp.DistanceMatrix, count int) [][]int {
	if len(matrices) == 0 || count <= 0 {
		return nil
	}
	n := len(matrices[0])
	weightVectors := GenerateWeightVectors(count, len(matrices))

	tours := make([][]int, 0, count)
	for i := 0; i < count; i++ {
		tours = append(tours, greedyTour(matrices, weightVectors[i], i%n))
	}
	return tours
}

func greedyTour(matrices []motsp.DistanceMatrix, weights ObjectiveWeights, start int) []int {
	n := len(matrices[0])
	tour := make([]int, 0, n)
	visited := make([]bool, n)

	current := start
	tour = append(tour, current)
	visited[current] = true

	for len(tour) < n {
		next := -1
		best := math.Inf(1)
		// Ties resolve to the lowest city index.
		for city := 0; city < n; city++ {
			if visited[city] {
				continue
			}
			if d := weightedDistance(matrices, weights, current, city); d < best {
				best = d
				next = city
			}
		}
		tour = append(tour, next)
		visited[next] = true
		current = next
	}
	return tour
}

func weightedDistance(matrices []motsp.DistanceMatrix, weights ObjectiveWeights, from, to int) float64 {
	total := 0.0
	for i, m := range matrices {
		if i < len(weights) {
			total += weights[i] * m[from][to]
		}
	}
	return total
}
