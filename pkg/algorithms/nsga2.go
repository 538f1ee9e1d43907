package algorithms

import (
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"

	"wayfarer/pkg/framework"
)

const (
	Name = "NSGA-II"

	// maxDuplicateAttempts bounds how many consecutive duplicate candidates
	// are discarded before one is admitted anyway. Keeps small search spaces
	// from stalling the mating loop.
	maxDuplicateAttempts = 20
)

// NSGAIISolution wraps a solution in the population with Rank and Distance
// fields. Value stores the value in the objective space for the solution and
// Violation the total constraint violation (zero when feasible); both are
// used when comparing solutions.
type NSGAIISolution struct {
	Solution  framework.Solution
	Value     framework.ObjectiveSpacePoint
	Violation float64

	Rank     int
	Distance float64
}

func NewNSGAIISolution(sol framework.Solution, val framework.ObjectiveSpacePoint, violation float64) *NSGAIISolution {
	return &NSGAIISolution{
		Solution:  sol,
		Value:     val,
		Violation: violation,
	}
}

// Feasible reports whether the solution satisfies all constraints.
func (s *NSGAIISolution) Feasible() bool {
	return s.Violation == 0
}

// Observer receives the population after the initial evaluation
// (generation 0) and after every survival selection. Ranks are assigned when
// it is called; the slice must not be retained.
type Observer interface {
	ObserveGeneration(generation int, evaluations int64, population []*NSGAIISolution)
}

// NonDominatedSort performs non-dominated sorting on the population
func NonDominatedSort(population []*NSGAIISolution) [][]*NSGAIISolution {
	var fronts [][]*NSGAIISolution
	dominated := make(map[int][]int)
	domCount := make([]int, len(population))

	// Calculate domination for each individual
	for i := 0; i < len(population); i++ {
		dominated[i] = []int{}
		for j := 0; j < len(population); j++ {
			if i != j {
				if Dominates(population[i], population[j]) {
					dominated[i] = append(dominated[i], j)
				} else if Dominates(population[j], population[i]) {
					domCount[i]++
				}
			}
		}
	}

	// Find first front
	currentFront := []*NSGAIISolution{}
	currentFrontIndices := []int{}
	for i := 0; i < len(population); i++ {
		if domCount[i] == 0 {
			population[i].Rank = 0
			currentFront = append(currentFront, population[i])
			currentFrontIndices = append(currentFrontIndices, i)
		}
	}
	fronts = append(fronts, currentFront)

	// Find subsequent fronts
	frontIndex := 0
	for len(currentFront) > 0 {
		nextFront := []*NSGAIISolution{}
		nextFrontIndices := []int{}
		for _, idx := range currentFrontIndices {
			for _, dominatedIdx := range dominated[idx] {
				domCount[dominatedIdx]--
				if domCount[dominatedIdx] == 0 {
					population[dominatedIdx].Rank = frontIndex + 1
					nextFront = append(nextFront, population[dominatedIdx])
					nextFrontIndices = append(nextFrontIndices, dominatedIdx)
				}
			}
		}
		frontIndex++
		if len(nextFront) > 0 {
			fronts = append(fronts, nextFront)
		}
		currentFront = nextFront
		currentFrontIndices = nextFrontIndices
	}

	return fronts
}

// Dominates checks if individual a dominates individual b. A feasible
// individual dominates any infeasible one, a less-violating individual
// dominates a more-violating one, and between two feasible individuals the
// usual Pareto comparison applies (minimization).
func Dominates(a, b *NSGAIISolution) bool {
	switch {
	case a.Violation == 0 && b.Violation > 0:
		return true
	case a.Violation > 0 && b.Violation == 0:
		return false
	case a.Violation > 0 && b.Violation > 0:
		return a.Violation < b.Violation
	}

	better := false
	for i := 0; i < len(a.Value); i++ {
		if a.Value[i] > b.Value[i] {
			return false
		}
		if a.Value[i] < b.Value[i] {
			better = true
		}
	}
	return better
}

// CrowdingDistance calculates crowding distance for individuals in a front
func CrowdingDistance(front []*NSGAIISolution) {
	if len(front) <= 2 {
		for i := range front {
			front[i].Distance = math.Inf(1)
		}
		return
	}

	numObjectives := len(front[0].Value)
	for i := range front {
		front[i].Distance = 0
	}

	for m := 0; m < numObjectives; m++ {
		// Sort by each objective
		sort.Slice(front, func(i, j int) bool {
			return front[i].Value[m] < front[j].Value[m]
		})

		// Set boundary points to infinity
		front[0].Distance = math.Inf(1)
		front[len(front)-1].Distance = math.Inf(1)

		objectiveRange := front[len(front)-1].Value[m] - front[0].Value[m]
		if objectiveRange == 0 {
			continue
		}

		// Calculate distance for intermediate points
		for i := 1; i < len(front)-1; i++ {
			front[i].Distance += (front[i+1].Value[m] - front[i-1].Value[m]) / objectiveRange
		}
	}
}

// TournamentSelect picks the best of tournamentSize random individuals,
// comparing by rank first and crowding distance second.
func TournamentSelect(population []*NSGAIISolution, tournamentSize int, rng *rand.Rand) *NSGAIISolution {
	if tournamentSize < 2 {
		tournamentSize = 2 // minimum tournament size
	}
	best := population[rng.Intn(len(population))]

	for i := 1; i < tournamentSize; i++ {
		contestant := population[rng.Intn(len(population))]
		if contestant.Rank < best.Rank || (contestant.Rank == best.Rank && contestant.Distance > best.Distance) {
			best = contestant
		}
	}

	return best
}

// NSGA2Config holds configuration parameters for NSGA-II
type NSGA2Config struct {
	PopulationSize       int
	NumOffspring         int
	MaxGenerations       int
	CrossoverProbability float64
	MutationProbability  float64
	TournamentSize       int
	RandomSeed           int64
	EliminateDuplicates  bool
}

// Validate rejects configurations the algorithm cannot run with.
func (c NSGA2Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("population size must be positive, got %d", c.PopulationSize)
	}
	if c.NumOffspring <= 0 {
		return fmt.Errorf("offspring count must be positive, got %d", c.NumOffspring)
	}
	if c.MaxGenerations <= 0 {
		return fmt.Errorf("generation count must be positive, got %d", c.MaxGenerations)
	}
	if c.CrossoverProbability < 0 || c.CrossoverProbability > 1 {
		return fmt.Errorf("crossover probability must be in [0,1], got %v", c.CrossoverProbability)
	}
	if c.MutationProbability < 0 || c.MutationProbability > 1 {
		return fmt.Errorf("mutation probability must be in [0,1], got %v", c.MutationProbability)
	}
	return nil
}

// NSGAII represents the NSGA-II algorithm configuration
type NSGAII struct {
	PopSize             int
	NumOffspring        int
	NumGenerations      int
	Problem             framework.Problem
	CrossoverRate       float64
	MutationRate        float64
	TournamentSize      int
	EliminateDuplicates bool

	// Observer, when set, is notified after generation 0 and after every
	// survival selection.
	Observer Observer

	rng         *rand.Rand
	evaluations int64
}

// NewNSGAII creates a new instance of NSGA-II with given parameters. The
// random seed in the config feeds the single stream every stochastic call of
// the run draws from.
func NewNSGAII(config NSGA2Config, problem framework.Problem) (*NSGAII, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &NSGAII{
		PopSize:             config.PopulationSize,
		NumOffspring:        config.NumOffspring,
		NumGenerations:      config.MaxGenerations,
		Problem:             problem,
		CrossoverRate:       config.CrossoverProbability,
		MutationRate:        config.MutationProbability,
		TournamentSize:      config.TournamentSize,
		EliminateDuplicates: config.EliminateDuplicates,
		rng:                 rand.New(rand.NewSource(uint64(config.RandomSeed))),
	}, nil
}

// Evaluations returns how many objective evaluations the run has performed.
func (n *NSGAII) Evaluations() int64 {
	return n.evaluations
}

// Evaluate computes the objective vector and the total constraint violation
// for an individual. Infeasible individuals keep their real objective values;
// feasibility is handled during domination comparison instead of through
// penalty values.
func (n *NSGAII) Evaluate(individual framework.Solution) (framework.ObjectiveSpacePoint, float64) {
	violation := 0.0
	for _, c := range n.Problem.Constraints() {
		violation += c(individual)
	}

	objectives := n.Problem.ObjectiveFuncs()
	res := make(framework.ObjectiveSpacePoint, len(objectives))
	for i, objFunc := range objectives {
		res[i] = objFunc(individual)
	}
	n.evaluations++
	return res, violation
}

func (n *NSGAII) evaluateSolution(sol framework.Solution) *NSGAIISolution {
	val, violation := n.Evaluate(sol)
	return NewNSGAIISolution(sol, val, violation)
}

// Run executes the NSGA-II algorithm and returns the final population.
func (n *NSGAII) Run() []*NSGAIISolution {
	startTime := time.Now()
	klog.V(2).InfoS("Starting evolution",
		"algorithm", Name,
		"problem", n.Problem.Name(),
		"popSize", n.PopSize,
		"offspring", n.NumOffspring,
		"generations", n.NumGenerations,
		"crossoverRate", n.CrossoverRate,
		"mutationRate", n.MutationRate,
		"eliminateDuplicates", n.EliminateDuplicates)

	population := n.initialPopulation()

	// Rank the initial population so the first tournament has something to
	// compare, then record generation 0.
	for _, front := range NonDominatedSort(population) {
		CrowdingDistance(front)
	}
	n.notify(0, population)

	for gen := 1; gen <= n.NumGenerations; gen++ {
		offspring := n.makeOffspring(population)

		// Combine populations
		combined := append(population, offspring...)

		// Non-dominated sorting
		fronts := NonDominatedSort(combined)

		// Clear population for next generation
		population = make([]*NSGAIISolution, 0, n.PopSize)
		frontIndex := 0

		// Add fronts to new population
		for len(population)+len(fronts[frontIndex]) <= n.PopSize {
			CrowdingDistance(fronts[frontIndex])
			population = append(population, fronts[frontIndex]...)
			frontIndex++
			if frontIndex >= len(fronts) {
				break
			}
		}

		// If needed, add remaining individuals based on crowding distance
		if len(population) < n.PopSize && frontIndex < len(fronts) {
			CrowdingDistance(fronts[frontIndex])
			sort.Slice(fronts[frontIndex], func(i, j int) bool {
				return fronts[frontIndex][i].Distance > fronts[frontIndex][j].Distance
			})
			population = append(population, fronts[frontIndex][:n.PopSize-len(population)]...)
		}

		n.notify(gen, population)
	}

	klog.V(2).InfoS("Evolution complete",
		"algorithm", Name,
		"problem", n.Problem.Name(),
		"evaluations", n.evaluations,
		"elapsed", time.Since(startTime))
	return population
}

// initialPopulation samples and evaluates the starting population, resampling
// duplicates (up to a bounded number of attempts each) when duplicate
// elimination is on.
func (n *NSGAII) initialPopulation() []*NSGAIISolution {
	initPop := n.Problem.Initialize(n.PopSize, n.rng)

	population := make([]*NSGAIISolution, 0, n.PopSize)
	var seen map[string]bool
	if n.EliminateDuplicates {
		seen = make(map[string]bool, n.PopSize)
	}

	for _, sol := range initPop {
		if n.EliminateDuplicates {
			for attempts := 0; seen[sol.Key()] && attempts < maxDuplicateAttempts; attempts++ {
				sol = n.Problem.Initialize(1, n.rng)[0]
			}
			seen[sol.Key()] = true
		}
		population = append(population, n.evaluateSolution(sol))
	}
	return population
}

// makeOffspring breeds NumOffspring children from the current population.
// With duplicate elimination on, a child whose key already appears among the
// parents or the accepted offspring is discarded and bred again; after
// maxDuplicateAttempts consecutive discards the next child is admitted
// regardless.
func (n *NSGAII) makeOffspring(population []*NSGAIISolution) []*NSGAIISolution {
	offspring := make([]*NSGAIISolution, 0, n.NumOffspring)

	var seen map[string]bool
	if n.EliminateDuplicates {
		seen = make(map[string]bool, len(population)+n.NumOffspring)
		for _, sol := range population {
			seen[sol.Solution.Key()] = true
		}
	}

	var pending []framework.Solution
	attempts := 0
	for len(offspring) < n.NumOffspring {
		if len(pending) == 0 {
			parent1 := TournamentSelect(population, n.TournamentSize, n.rng)
			parent2 := TournamentSelect(population, n.TournamentSize, n.rng)

			child1, child2 := parent1.Solution.Crossover(parent2.Solution, n.CrossoverRate, n.rng)
			child1.Mutate(n.MutationRate, n.rng)
			child2.Mutate(n.MutationRate, n.rng)
			pending = append(pending, child1, child2)
		}

		child := pending[0]
		pending = pending[1:]

		if n.EliminateDuplicates {
			if seen[child.Key()] && attempts < maxDuplicateAttempts {
				attempts++
				continue
			}
			seen[child.Key()] = true
		}
		attempts = 0
		offspring = append(offspring, n.evaluateSolution(child))
	}

	return offspring
}

func (n *NSGAII) notify(generation int, population []*NSGAIISolution) {
	if n.Observer == nil {
		return
	}
	n.Observer.ObserveGeneration(generation, n.evaluations, population)
}
