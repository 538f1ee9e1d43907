package motsp

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/rand"

	"wayfarer/pkg/framework"
)

// MOTSP is the multi-objective travelling salesman problem over permutation
// routes. Each objective is the open-path cost of the route under one
// distance matrix; all objectives are minimized over the same route.
type MOTSP struct {
	numCities int
	matrices  []DistanceMatrix

	seeds     [][]int
	crossover framework.CrossoverFunc
	mutation  framework.MutationFunc
}

// New builds a problem instance from explicit distance matrices, one per
// objective. All matrices must be valid and agree on the number of cities.
func New(matrices []DistanceMatrix) (*MOTSP, error) {
	if len(matrices) == 0 {
		return nil, fmt.Errorf("at least one distance matrix is required")
	}
	n := len(matrices[0])
	if n < 2 {
		return nil, fmt.Errorf("at least two cities are required, got %d", n)
	}
	for i, m := range matrices {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("objective %d: %w", i, err)
		}
		if len(m) != n {
			return nil, fmt.Errorf("objective %d covers %d cities, want %d", i, len(m), n)
		}
	}
	return &MOTSP{
		numCities: n,
		matrices:  matrices,
		crossover: framework.EdgeRecombinationCrossover,
		mutation:  framework.InversionMutation,
	}, nil
}

// NewRandom builds an instance with uniformly random distance matrices. The
// matrices depend on the seed alone, so the same seed always reproduces the
// same instance. The seed is scrambled before use to keep the instance
// stream apart from a search stream built on the same seed.
func NewRandom(numCities, numObjectives int, seed int64) (*MOTSP, error) {
	if numCities < 2 {
		return nil, fmt.Errorf("at least two cities are required, got %d", numCities)
	}
	if numObjectives < 1 {
		return nil, fmt.Errorf("at least one objective is required, got %d", numObjectives)
	}
	rng := rand.New(rand.NewSource(splitMix64(uint64(seed))))
	matrices := make([]DistanceMatrix, numObjectives)
	for i := range matrices {
		matrices[i] = RandomDistanceMatrix(numCities, rng)
	}
	return New(matrices)
}

func (p *MOTSP) Name() string {
	return fmt.Sprintf("MOTSP-n%d-m%d", p.numCities, len(p.matrices))
}

// NumCities returns the number of cities in the instance.
func (p *MOTSP) NumCities() int { return p.numCities }

// NumObjectives returns the number of distance matrices.
func (p *MOTSP) NumObjectives() int { return len(p.matrices) }

// Matrices exposes the distance matrices backing the objectives.
func (p *MOTSP) Matrices() []DistanceMatrix { return p.matrices }

func (p *MOTSP) ObjectiveFuncs() []framework.ObjectiveFunc {
	funcs := make([]framework.ObjectiveFunc, len(p.matrices))
	for i, matrix := range p.matrices {
		matrix := matrix
		funcs[i] = func(s framework.Solution) float64 {
			return matrix.Cost(s.(*framework.PermutationSolution).Variables)
		}
	}
	return funcs
}

// Constraints grades how far a route is from being a permutation of the
// cities. The violation is the number of positions at which the sorted route
// differs from 0..n-1; routes built by the permutation operators always
// score zero.
func (p *MOTSP) Constraints() []framework.Constraint {
	return []framework.Constraint{p.permutationViolation}
}

func (p *MOTSP) permutationViolation(s framework.Solution) float64 {
	route := s.(*framework.PermutationSolution).Variables
	if len(route) != p.numCities {
		return float64(p.numCities)
	}
	sorted := make([]int, len(route))
	copy(sorted, route)
	sort.Ints(sorted)
	violations := 0
	for i, v := range sorted {
		if v != i {
			violations++
		}
	}
	return float64(violations)
}

// Bounds is nil, permutations carry no box constraints.
func (p *MOTSP) Bounds() []framework.Bounds { return nil }

// Initialize samples popSize routes. Routes registered through SeedRoutes
// are consumed first, then random permutations fill the remainder.
func (p *MOTSP) Initialize(popSize int, rng *rand.Rand) []framework.Solution {
	solutions := make([]framework.Solution, 0, popSize)
	for len(p.seeds) > 0 && len(solutions) < popSize {
		route := p.seeds[0]
		p.seeds = p.seeds[1:]
		solutions = append(solutions, framework.NewPermutationSolutionWithOperators(route, p.crossover, p.mutation))
	}
	for len(solutions) < popSize {
		solutions = append(solutions, framework.NewPermutationSolutionWithOperators(rng.Perm(p.numCities), p.crossover, p.mutation))
	}
	return solutions
}

// SeedRoutes registers routes to emit ahead of random sampling on upcoming
// Initialize calls. Routes of the wrong length are dropped; the rest are
// copied.
func (p *MOTSP) SeedRoutes(routes [][]int) {
	for _, route := range routes {
		if len(route) != p.numCities {
			continue
		}
		r := make([]int, len(route))
		copy(r, route)
		p.seeds = append(p.seeds, r)
	}
}

// SetOperators replaces the crossover and mutation operators attached to
// newly sampled routes. Nil arguments leave the current operator in place.
func (p *MOTSP) SetOperators(crossover framework.CrossoverFunc, mutation framework.MutationFunc) {
	if crossover != nil {
		p.crossover = crossover
	}
	if mutation != nil {
		p.mutation = mutation
	}
}

// TrueParetoFront is unknown for arbitrary instances.
func (p *MOTSP) TrueParetoFront(numPoints int) []framework.ObjectiveSpacePoint {
	return nil
}

// Fingerprint returns a short stable identifier derived from the exact
// matrix entries. Two instances with equal fingerprints describe the same
// cities and costs, which makes archived results portable across runs.
func (p *MOTSP) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cities:%d|objectives:%d", p.numCities, len(p.matrices))
	for _, m := range p.matrices {
		for _, row := range m {
			for _, d := range row {
				fmt.Fprintf(&b, "|%.17g", d)
			}
		}
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)[:16]
}

// splitMix64 scrambles a seed with the SplitMix64 finalizer.
func splitMix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4b5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
