package framework

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// PermutationSolution encodes a visiting order of the cities 0..n-1. The
// crossover and mutation operators are pluggable but always permutation
// preserving, so offspring of valid routes stay valid by construction.
type PermutationSolution struct {
	Variables []int

	crossover CrossoverFunc
	mutation  MutationFunc
}

// NewPermutationSolution wraps perm with the default operators, edge
// recombination crossover and inversion mutation.
func NewPermutationSolution(perm []int) *PermutationSolution {
	return NewPermutationSolutionWithOperators(perm, EdgeRecombinationCrossover, InversionMutation)
}

func NewPermutationSolutionWithOperators(perm []int, crossover CrossoverFunc, mutation MutationFunc) *PermutationSolution {
	return &PermutationSolution{
		Variables: perm,
		crossover: crossover,
		mutation:  mutation,
	}
}

// NewRandomPermutation samples a uniform random permutation of 0..n-1.
func NewRandomPermutation(n int, rng *rand.Rand) *PermutationSolution {
	return NewPermutationSolution(rng.Perm(n))
}

func (sol *PermutationSolution) Clone() Solution {
	perm := make([]int, len(sol.Variables))
	copy(perm, sol.Variables)
	return &PermutationSolution{
		Variables: perm,
		crossover: sol.crossover,
		mutation:  sol.mutation,
	}
}

func (sol *PermutationSolution) Crossover(other Solution, crossoverRate float64, rng *rand.Rand) (Solution, Solution) {
	o := other.(*PermutationSolution)
	child1 := sol.Clone().(*PermutationSolution)
	child2 := o.Clone().(*PermutationSolution)

	if rng.Float64() < crossoverRate {
		child1.Variables, child2.Variables = sol.crossover(sol.Variables, o.Variables, rng)
	}

	return child1, child2
}

func (sol *PermutationSolution) Mutate(mutationRate float64, rng *rand.Rand) {
	if rng.Float64() < mutationRate {
		sol.mutation(sol.Variables, rng)
	}
}

func (sol *PermutationSolution) Key() string {
	return fmt.Sprintf("%v", sol.Variables)
}
