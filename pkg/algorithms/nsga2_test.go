package algorithms_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/rand"

	"wayfarer/pkg/algorithms"
	"wayfarer/pkg/benchmarks"
	"wayfarer/pkg/framework"
	"wayfarer/pkg/motsp"
	"wayfarer/pkg/util"
)

// Test problem: ZDT1 benchmark function
func TestNSGAIIWithZDT1(t *testing.T) {
	numVars := 30

	// Create the ZDT1 problem instance
	zdt1 := benchmarks.NewZDT1(numVars)

	// Configure NSGA-II
	config := algorithms.NSGA2Config{
		PopulationSize:       100,
		NumOffspring:         100,
		MaxGenerations:       250,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0 / float64(numVars),
		TournamentSize:       2,
		RandomSeed:           1,
	}

	// Create NSGA-II instance
	nsga, err := algorithms.NewNSGAII(config, zdt1)
	if err != nil {
		t.Fatalf("NewNSGAII failed: %v", err)
	}

	// Run algorithm
	finalPop := nsga.Run()

	// Basic validation
	if len(finalPop) != config.PopulationSize {
		t.Errorf("Expected population size %d, got %d", config.PopulationSize, len(finalPop))
	}

	// Verify Pareto front characteristics
	fronts := algorithms.NonDominatedSort(finalPop)
	if len(fronts) == 0 {
		t.Error("No fronts found in final population")
	}

	firstFront := fronts[0]
	results := make([]framework.ObjectiveSpacePoint, len(firstFront))
	for i := range len(firstFront) {
		results[i] = firstFront[i].Value
	}
	err = util.PlotResults(results, zdt1, algorithms.Name, filepath.Join(t.TempDir(), "zdt1.html"))
	if err != nil {
		t.Errorf("Plot failed: %v", err)
	}

	// Check if first front is non-dominated
	for i := 0; i < len(firstFront); i++ {
		for j := 0; j < len(firstFront); j++ {
			if i != j && algorithms.Dominates(firstFront[i], firstFront[j]) {
				t.Error("First front contains dominated solutions")
			}
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := algorithms.NSGA2Config{
		PopulationSize:       10,
		NumOffspring:         10,
		MaxGenerations:       5,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0,
		TournamentSize:       2,
	}

	tests := []struct {
		name    string
		mutate  func(*algorithms.NSGA2Config)
		wantErr bool
	}{
		{"valid", func(c *algorithms.NSGA2Config) {}, false},
		{"zero population", func(c *algorithms.NSGA2Config) { c.PopulationSize = 0 }, true},
		{"zero offspring", func(c *algorithms.NSGA2Config) { c.NumOffspring = 0 }, true},
		{"negative offspring", func(c *algorithms.NSGA2Config) { c.NumOffspring = -5 }, true},
		{"zero generations", func(c *algorithms.NSGA2Config) { c.MaxGenerations = 0 }, true},
		{"crossover below zero", func(c *algorithms.NSGA2Config) { c.CrossoverProbability = -0.1 }, true},
		{"crossover above one", func(c *algorithms.NSGA2Config) { c.CrossoverProbability = 1.1 }, true},
		{"mutation above one", func(c *algorithms.NSGA2Config) { c.MutationProbability = 1.5 }, true},
	}

	problem := benchmarks.NewZDT1(5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			_, err := algorithms.NewNSGAII(config, problem)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewNSGAII error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func newSol(vals framework.ObjectiveSpacePoint, violation float64) *algorithms.NSGAIISolution {
	return algorithms.NewNSGAIISolution(nil, vals, violation)
}

func TestDominates(t *testing.T) {
	tests := []struct {
		name string
		a    *algorithms.NSGAIISolution
		b    *algorithms.NSGAIISolution
		want bool
	}{
		{"strictly better", newSol(framework.ObjectiveSpacePoint{1, 2}, 0), newSol(framework.ObjectiveSpacePoint{2, 3}, 0), true},
		{"better on one equal on other", newSol(framework.ObjectiveSpacePoint{5, 1}, 0), newSol(framework.ObjectiveSpacePoint{5, 7}, 0), true},
		{"equal points", newSol(framework.ObjectiveSpacePoint{1, 1}, 0), newSol(framework.ObjectiveSpacePoint{1, 1}, 0), false},
		{"incomparable", newSol(framework.ObjectiveSpacePoint{1, 3}, 0), newSol(framework.ObjectiveSpacePoint{3, 1}, 0), false},
		{"worse point", newSol(framework.ObjectiveSpacePoint{2, 3}, 0), newSol(framework.ObjectiveSpacePoint{1, 2}, 0), false},
		{"feasible beats infeasible with better values", newSol(framework.ObjectiveSpacePoint{10, 10}, 0), newSol(framework.ObjectiveSpacePoint{0, 0}, 2), true},
		{"infeasible never beats feasible", newSol(framework.ObjectiveSpacePoint{0, 0}, 2), newSol(framework.ObjectiveSpacePoint{10, 10}, 0), false},
		{"lower violation wins among infeasible", newSol(framework.ObjectiveSpacePoint{9, 9}, 1), newSol(framework.ObjectiveSpacePoint{0, 0}, 3), true},
		{"equal violations are incomparable", newSol(framework.ObjectiveSpacePoint{0, 0}, 2), newSol(framework.ObjectiveSpacePoint{9, 9}, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := algorithms.Dominates(tt.a, tt.b); got != tt.want {
				t.Errorf("Dominates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNonDominatedSortLayersFeasibilityAndRank(t *testing.T) {
	population := []*algorithms.NSGAIISolution{
		newSol(framework.ObjectiveSpacePoint{1, 5}, 0),
		newSol(framework.ObjectiveSpacePoint{5, 1}, 0),
		newSol(framework.ObjectiveSpacePoint{3, 3}, 0),
		newSol(framework.ObjectiveSpacePoint{4, 4}, 0),
		newSol(framework.ObjectiveSpacePoint{2, 6}, 0),
		newSol(framework.ObjectiveSpacePoint{5, 7}, 0),
		// Infeasible solutions sort behind every feasible one no matter
		// how good their objective values look.
		newSol(framework.ObjectiveSpacePoint{0.5, 0.5}, 2),
		newSol(framework.ObjectiveSpacePoint{0.1, 0.1}, 5),
	}

	fronts := algorithms.NonDominatedSort(population)

	wantSizes := []int{3, 2, 1, 1, 1}
	if len(fronts) != len(wantSizes) {
		t.Fatalf("got %d fronts, want %d", len(fronts), len(wantSizes))
	}
	for i, want := range wantSizes {
		if len(fronts[i]) != want {
			t.Errorf("front %d has %d members, want %d", i, len(fronts[i]), want)
		}
		for _, sol := range fronts[i] {
			if sol.Rank != i {
				t.Errorf("front %d member has rank %d", i, sol.Rank)
			}
		}
	}

	if fronts[3][0].Violation != 2 {
		t.Errorf("second to last front should hold the less violating solution, got violation %v", fronts[3][0].Violation)
	}
	if fronts[4][0].Violation != 5 {
		t.Errorf("last front should hold the most violating solution, got violation %v", fronts[4][0].Violation)
	}
}

func TestCrowdingDistance(t *testing.T) {
	front := []*algorithms.NSGAIISolution{
		newSol(framework.ObjectiveSpacePoint{0, 4}, 0),
		newSol(framework.ObjectiveSpacePoint{1, 3}, 0),
		newSol(framework.ObjectiveSpacePoint{2, 2}, 0),
		newSol(framework.ObjectiveSpacePoint{4, 0}, 0),
	}
	algorithms.CrowdingDistance(front)

	wantByFirstObjective := map[float64]float64{
		0: math.Inf(1),
		1: 1.0,
		2: 1.5,
		4: math.Inf(1),
	}
	for _, sol := range front {
		want := wantByFirstObjective[sol.Value[0]]
		if sol.Distance != want {
			t.Errorf("point %v has distance %v, want %v", sol.Value, sol.Distance, want)
		}
	}
}

func TestCrowdingDistanceSmallFrontsAreUnbounded(t *testing.T) {
	front := []*algorithms.NSGAIISolution{
		newSol(framework.ObjectiveSpacePoint{1, 2}, 0),
		newSol(framework.ObjectiveSpacePoint{2, 1}, 0),
	}
	algorithms.CrowdingDistance(front)

	for _, sol := range front {
		if !math.IsInf(sol.Distance, 1) {
			t.Errorf("point %v has distance %v, want +Inf", sol.Value, sol.Distance)
		}
	}
}

func TestTournamentSelect(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	// A single candidate always wins, including with a clamped tournament
	// size.
	only := newSol(framework.ObjectiveSpacePoint{1, 1}, 0)
	if got := algorithms.TournamentSelect([]*algorithms.NSGAIISolution{only}, 0, rng); got != only {
		t.Error("single candidate was not selected")
	}

	// With one clearly better candidate the selection should strongly
	// prefer it. Rank is compared first, crowding distance breaks ties.
	better := newSol(framework.ObjectiveSpacePoint{1, 1}, 0)
	better.Rank = 0
	better.Distance = 0.1
	worse := newSol(framework.ObjectiveSpacePoint{2, 2}, 0)
	worse.Rank = 1
	worse.Distance = 10

	population := []*algorithms.NSGAIISolution{worse, better}
	betterWins := 0
	for i := 0; i < 200; i++ {
		if algorithms.TournamentSelect(population, 2, rng) == better {
			betterWins++
		}
	}
	// Expected win rate is 3/4, anything at or below half means the
	// comparison is inverted.
	if betterWins <= 100 {
		t.Errorf("better candidate won only %d of 200 tournaments", betterWins)
	}

	crowded := newSol(framework.ObjectiveSpacePoint{1, 2}, 0)
	crowded.Rank = 0
	crowded.Distance = 0.5
	spread := newSol(framework.ObjectiveSpacePoint{2, 1}, 0)
	spread.Rank = 0
	spread.Distance = 2.5

	population = []*algorithms.NSGAIISolution{crowded, spread}
	spreadWins := 0
	for i := 0; i < 200; i++ {
		if algorithms.TournamentSelect(population, 2, rng) == spread {
			spreadWins++
		}
	}
	if spreadWins <= 100 {
		t.Errorf("less crowded candidate won only %d of 200 tournaments", spreadWins)
	}
}

func TestEvaluateKeepsValuesAndCounts(t *testing.T) {
	m1 := motsp.DistanceMatrix{{0, 1, 2}, {1, 0, 4}, {2, 4, 0}}
	m2 := motsp.DistanceMatrix{{0, 8, 3}, {8, 0, 1}, {3, 1, 0}}
	problem, err := motsp.New([]motsp.DistanceMatrix{m1, m2})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	config := algorithms.NSGA2Config{
		PopulationSize:       4,
		NumOffspring:         4,
		MaxGenerations:       1,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0,
		TournamentSize:       2,
	}
	nsga, err := algorithms.NewNSGAII(config, problem)
	if err != nil {
		t.Fatalf("NewNSGAII failed: %v", err)
	}

	val, violation := nsga.Evaluate(framework.NewPermutationSolution([]int{2, 0, 1}))
	if diff := cmp.Diff(framework.ObjectiveSpacePoint{3, 11}, val); diff != "" {
		t.Errorf("objective vector mismatch (-want +got):\n%s", diff)
	}
	if violation != 0 {
		t.Errorf("valid route scored violation %v", violation)
	}

	// Broken routes keep their real objective values, only the violation
	// score marks them infeasible.
	val, violation = nsga.Evaluate(framework.NewPermutationSolution([]int{0, 0, 1}))
	if violation == 0 {
		t.Error("duplicate city route should be infeasible")
	}
	if diff := cmp.Diff(framework.ObjectiveSpacePoint{1, 8}, val); diff != "" {
		t.Errorf("objective vector mismatch (-want +got):\n%s", diff)
	}

	if got := nsga.Evaluations(); got != 2 {
		t.Errorf("Evaluations() = %d, want 2", got)
	}
}

// generationLog records every observer notification of a run.
type generationLog struct {
	generations []int
	evaluations []int64
	sizes       []int
}

func (l *generationLog) ObserveGeneration(generation int, evaluations int64, population []*algorithms.NSGAIISolution) {
	l.generations = append(l.generations, generation)
	l.evaluations = append(l.evaluations, evaluations)
	l.sizes = append(l.sizes, len(population))
}

func TestRunNotifiesObserverEveryGeneration(t *testing.T) {
	problem, err := motsp.NewRandom(6, 2, 11)
	if err != nil {
		t.Fatalf("NewRandom failed: %v", err)
	}

	config := algorithms.NSGA2Config{
		PopulationSize:       5,
		NumOffspring:         4,
		MaxGenerations:       3,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0,
		TournamentSize:       2,
		RandomSeed:           5,
		EliminateDuplicates:  true,
	}
	nsga, err := algorithms.NewNSGAII(config, problem)
	if err != nil {
		t.Fatalf("NewNSGAII failed: %v", err)
	}

	log := &generationLog{}
	nsga.Observer = log
	finalPop := nsga.Run()

	if len(finalPop) != config.PopulationSize {
		t.Errorf("final population size = %d, want %d", len(finalPop), config.PopulationSize)
	}

	// One notification for the initial population and one per generation.
	if diff := cmp.Diff([]int{0, 1, 2, 3}, log.generations); diff != "" {
		t.Errorf("generation sequence mismatch (-want +got):\n%s", diff)
	}

	// Discarded duplicates are never evaluated, so the counter advances by
	// exactly the population size and then the offspring count.
	if diff := cmp.Diff([]int64{5, 9, 13, 17}, log.evaluations); diff != "" {
		t.Errorf("evaluation counts mismatch (-want +got):\n%s", diff)
	}
	if got := nsga.Evaluations(); got != 17 {
		t.Errorf("Evaluations() = %d, want 17", got)
	}

	for i, size := range log.sizes {
		if size != config.PopulationSize {
			t.Errorf("notification %d carried population of %d, want %d", i, size, config.PopulationSize)
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() ([]string, []framework.ObjectiveSpacePoint) {
		problem, err := motsp.NewRandom(8, 2, 21)
		if err != nil {
			t.Fatalf("NewRandom failed: %v", err)
		}
		config := algorithms.NSGA2Config{
			PopulationSize:       10,
			NumOffspring:         10,
			MaxGenerations:       15,
			CrossoverProbability: 0.9,
			MutationProbability:  1.0,
			TournamentSize:       2,
			RandomSeed:           7,
			EliminateDuplicates:  true,
		}
		nsga, err := algorithms.NewNSGAII(config, problem)
		if err != nil {
			t.Fatalf("NewNSGAII failed: %v", err)
		}
		pop := nsga.Run()

		keys := make([]string, len(pop))
		values := make([]framework.ObjectiveSpacePoint, len(pop))
		for i, sol := range pop {
			keys[i] = sol.Solution.Key()
			values[i] = sol.Value
		}
		return keys, values
	}

	keys1, values1 := run()
	keys2, values2 := run()

	if diff := cmp.Diff(keys1, keys2); diff != "" {
		t.Errorf("routes differ between identical runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(values1, values2); diff != "" {
		t.Errorf("objective values differ between identical runs (-first +second):\n%s", diff)
	}
}

func TestFirstFrontIsNonDominatedAndStable(t *testing.T) {
	problem, err := motsp.NewRandom(7, 2, 13)
	if err != nil {
		t.Fatalf("NewRandom failed: %v", err)
	}
	config := algorithms.NSGA2Config{
		PopulationSize:       12,
		NumOffspring:         12,
		MaxGenerations:       10,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0,
		TournamentSize:       2,
		RandomSeed:           3,
		EliminateDuplicates:  true,
	}
	nsga, err := algorithms.NewNSGAII(config, problem)
	if err != nil {
		t.Fatalf("NewNSGAII failed: %v", err)
	}
	pop := nsga.Run()

	front := algorithms.FirstFront(pop)
	if len(front) == 0 {
		t.Fatal("empty first front")
	}

	// Sorting the front alone must reproduce a single front with every
	// member in it.
	resorted := algorithms.NonDominatedSort(front)
	if len(resorted) != 1 {
		t.Errorf("re-sorting the first front produced %d fronts, want 1", len(resorted))
	}
	if len(resorted[0]) != len(front) {
		t.Errorf("re-sorted front has %d members, want %d", len(resorted[0]), len(front))
	}

	// GetParetoFront hands out copies, mutating them must not leak into
	// the population.
	points := algorithms.GetParetoFront(pop)
	if len(points) != len(front) {
		t.Fatalf("GetParetoFront returned %d points, want %d", len(points), len(front))
	}
	points[0][0] = -1
	if algorithms.GetParetoFront(pop)[0][0] == -1 {
		t.Error("GetParetoFront returned a live reference into the population")
	}
}

// constantSolution always encodes the same candidate, forcing every
// duplicate elimination path.
type constantSolution struct{}

func (constantSolution) Clone() framework.Solution { return constantSolution{} }
func (constantSolution) Crossover(other framework.Solution, crossoverRate float64, rng *rand.Rand) (framework.Solution, framework.Solution) {
	return constantSolution{}, constantSolution{}
}
func (constantSolution) Mutate(mutationRate float64, rng *rand.Rand) {}
func (constantSolution) Key() string                                 { return "constant" }

type constantProblem struct{}

func (constantProblem) Name() string { return "constant" }
func (constantProblem) ObjectiveFuncs() []framework.ObjectiveFunc {
	return []framework.ObjectiveFunc{func(framework.Solution) float64 { return 0 }}
}
func (constantProblem) Constraints() []framework.Constraint { return nil }
func (constantProblem) Bounds() []framework.Bounds          { return nil }
func (constantProblem) Initialize(popSize int, rng *rand.Rand) []framework.Solution {
	population := make([]framework.Solution, popSize)
	for i := range population {
		population[i] = constantSolution{}
	}
	return population
}
func (constantProblem) TrueParetoFront(numPoints int) []framework.ObjectiveSpacePoint { return nil }

func TestDuplicateSaturationStillTerminates(t *testing.T) {
	// Every candidate collides, so the bounded resampling has to give up
	// and admit duplicates instead of spinning forever.
	config := algorithms.NSGA2Config{
		PopulationSize:       3,
		NumOffspring:         2,
		MaxGenerations:       2,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0,
		TournamentSize:       2,
		RandomSeed:           1,
		EliminateDuplicates:  true,
	}
	nsga, err := algorithms.NewNSGAII(config, constantProblem{})
	if err != nil {
		t.Fatalf("NewNSGAII failed: %v", err)
	}

	pop := nsga.Run()
	if len(pop) != config.PopulationSize {
		t.Errorf("final population size = %d, want %d", len(pop), config.PopulationSize)
	}
	// Only admitted candidates are evaluated: the initial three plus two
	// offspring per generation.
	if got := nsga.Evaluations(); got != 7 {
		t.Errorf("Evaluations() = %d, want 7", got)
	}
}

func TestDuplicateEliminationKeepsInitialPopulationUnique(t *testing.T) {
	problem, err := motsp.NewRandom(4, 2, 7)
	if err != nil {
		t.Fatalf("NewRandom failed: %v", err)
	}
	config := algorithms.NSGA2Config{
		PopulationSize:       6,
		NumOffspring:         6,
		MaxGenerations:       1,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0,
		TournamentSize:       2,
		RandomSeed:           3,
		EliminateDuplicates:  true,
	}
	nsga, err := algorithms.NewNSGAII(config, problem)
	if err != nil {
		t.Fatalf("NewNSGAII failed: %v", err)
	}

	log := &generationLog{}
	keys := map[string]int{}
	nsga.Observer = observerFunc(func(generation int, evaluations int64, population []*algorithms.NSGAIISolution) {
		log.ObserveGeneration(generation, evaluations, population)
		if generation == 0 {
			for _, sol := range population {
				keys[sol.Solution.Key()]++
			}
		}
	})
	nsga.Run()

	// With 24 possible routes and 6 slots the resampling should always
	// find fresh candidates.
	for key, count := range keys {
		if count > 1 {
			t.Errorf("route %s appears %d times in the initial population", key, count)
		}
	}
	if len(keys) != config.PopulationSize {
		t.Errorf("initial population has %d distinct routes, want %d", len(keys), config.PopulationSize)
	}
}

// observerFunc adapts a function to the Observer interface.
type observerFunc func(generation int, evaluations int64, population []*algorithms.NSGAIISolution)

func (f observerFunc) ObserveGeneration(generation int, evaluations int64, population []*algorithms.NSGAIISolution) {
	f(generation, evaluations, population)
}
