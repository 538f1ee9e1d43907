package algorithms

import (
	"wayfarer/pkg/framework"
)

// FirstFront returns the rank-zero individuals of a sorted population.
func FirstFront(population []*NSGAIISolution) []*NSGAIISolution {
	front := make([]*NSGAIISolution, 0, len(population))
	for _, sol := range population {
		if sol.Rank == 0 {
			front = append(front, sol)
		}
	}
	return front
}

// GetParetoFront extracts the objective-space points of the first front from
// a sorted population.
func GetParetoFront(population []*NSGAIISolution) []framework.ObjectiveSpacePoint {
	front := FirstFront(population)
	points := make([]framework.ObjectiveSpacePoint, len(front))
	for i, sol := range front {
		point := make(framework.ObjectiveSpacePoint, len(sol.Value))
		copy(point, sol.Value)
		points[i] = point
	}
	return points
}
