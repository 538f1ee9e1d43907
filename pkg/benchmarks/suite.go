package benchmarks

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"wayfarer/pkg/algorithms"
	"wayfarer/pkg/framework"
	"wayfarer/pkg/util"
)

// TestSuite runs a set of benchmark problems
type TestSuite struct {
	problems []framework.Problem
	config   algorithms.NSGA2Config
}

// NewTestSuite creates a new benchmark test suite
func NewTestSuite(config algorithms.NSGA2Config) *TestSuite {
	return &TestSuite{
		config: config,
	}
}

// AddProblem adds a problem to the test suite
func (ts *TestSuite) AddProblem(p framework.Problem) {
	ts.problems = append(ts.problems, p)
}

// AddStandardProblems adds common benchmark problems
func (ts *TestSuite) AddStandardProblems() {
	// ZDT problems with 30 variables (standard)
	ts.AddProblem(NewZDT1(30))
	ts.AddProblem(NewZDT2(30))
	ts.AddProblem(NewZDT3(30))

	// DTLZ problems
	// 2 objectives, 7 variables (M + k - 1, where k=5 for DTLZ1)
	ts.AddProblem(NewDTLZ1(7, 2))
	// 2 objectives, 12 variables (M + k - 1, where k=10 for DTLZ2)
	ts.AddProblem(NewDTLZ2(12, 2))

	// 3 objectives versions
	ts.AddProblem(NewDTLZ1(8, 3))
	ts.AddProblem(NewDTLZ2(13, 3))
}

// Run executes the test suite
func (ts *TestSuite) Run(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, problem := range ts.problems {
		klog.InfoS("Running benchmark", "algorithm", algorithms.Name, "problem", problem.Name())

		nsga2, err := algorithms.NewNSGAII(ts.config, problem)
		if err != nil {
			return fmt.Errorf("configuring %s for %s: %w", algorithms.Name, problem.Name(), err)
		}
		finalPop := nsga2.Run()

		// Extract Pareto front
		paretoFront := algorithms.GetParetoFront(finalPop)

		// For 2D problems, create plots
		if len(problem.ObjectiveFuncs()) == 2 {
			plotFile := filepath.Join(outputDir, fmt.Sprintf("%s_%s_results.html", problem.Name(), algorithms.Name))
			if err := util.PlotResults(paretoFront, problem, algorithms.Name, plotFile); err != nil {
				klog.ErrorS(err, "Failed to plot results", "problem", problem.Name())
			}
		}

		// Report IGD when the true front is known
		trueFront := problem.TrueParetoFront(500)
		if trueFront != nil {
			klog.InfoS("Benchmark finished",
				"problem", problem.Name(),
				"frontSize", len(paretoFront),
				"evaluations", nsga2.Evaluations(),
				"igd", fmt.Sprintf("%.6f", igd(paretoFront, trueFront)))
		} else {
			klog.InfoS("Benchmark finished",
				"problem", problem.Name(),
				"frontSize", len(paretoFront),
				"evaluations", nsga2.Evaluations())
		}
	}

	return nil
}

// igd is the inverted generational distance: the mean over the true front of
// the distance to the nearest obtained point. Distances stay squared to save
// the square root.
func igd(obtained, trueFront []framework.ObjectiveSpacePoint) float64 {
	total := 0.0
	for _, truePoint := range trueFront {
		minDist := math.Inf(1)
		for _, obtPoint := range obtained {
			if d := squaredDistance(truePoint, obtPoint); d < minDist {
				minDist = d
			}
		}
		total += minDist
	}
	return total / float64(len(trueFront))
}

func squaredDistance(a, b framework.ObjectiveSpacePoint) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
