package framework

import (
	"golang.org/x/exp/rand"
)

// Problem describes the contract a specific multi-objective problem needs to implement.
type Problem interface {
	Name() string

	ObjectiveFuncs() []ObjectiveFunc
	Constraints() []Constraint
	Bounds() []Bounds
	Initialize(popSize int, rng *rand.Rand) []Solution

	// TrueParetoFront is optional due to the difficulty of finding the true front
	// in some types of problems. When there isn't a way to find the true front,
	// just return nil.
	TrueParetoFront(numPoints int) []ObjectiveSpacePoint
}

// Solution is one candidate in the search space. Every stochastic operation
// draws from the rng it is handed so that a run is reproducible from a single
// seeded stream.
type Solution interface {
	Clone() Solution
	Crossover(other Solution, crossoverRate float64, rng *rand.Rand) (Solution, Solution)
	Mutate(mutationRate float64, rng *rand.Rand)

	// Key returns a canonical string identity used for duplicate elimination.
	Key() string
}

// ObjectiveFunc defines the interface for objective functions
type ObjectiveFunc func(Solution) float64

// ObjectiveSpacePoint represents an N-dimensional point in the objective space.
// As an example, for a problem with 2 objective functions f1 and f2, a point
// in the objective space could be [f1(x'), f2(x')], for the input of x'.
type ObjectiveSpacePoint []float64

// Constraint reports how strongly a solution violates the constraint.
// Zero means satisfied; positive values grade the violation so that
// infeasible solutions can still be compared against each other.
type Constraint func(Solution) float64

// Bounds is the inclusive value range of one decision variable.
type Bounds struct {
	L float64
	H float64
}
