// Package solver ties the MOTSP problem, the NSGA-II engine, run history,
// archiving and plotting into a single entry point.
package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"k8s.io/klog/v2"

	"wayfarer/pkg/algorithms"
	"wayfarer/pkg/framework"
	"wayfarer/pkg/history"
	"wayfarer/pkg/metrics"
	"wayfarer/pkg/motsp"
	"wayfarer/pkg/storage"
	"wayfarer/pkg/tracing"
	"wayfarer/pkg/util"
	"wayfarer/pkg/warmstart"
)

// Options carries the side effects surrounding a run. All of them are
// optional; a zero Options solves the problem and returns the result.
type Options struct {
	// Store, when set, archives the finished run and its history.
	Store storage.Store
	// SeedFromArchive seeds the initial population with the front of the
	// latest archived run over the same problem instance. Requires Store.
	SeedFromArchive bool
	// PlotDir, when set, receives front and convergence charts.
	PlotDir string
}

// Result is the outcome of one solver run.
type Result struct {
	RunID       string
	Problem     string
	Fingerprint string
	Config      Config
	Front       []history.FrontMember
	History     []history.GenerationRecord
	Evaluations int64
	Elapsed     time.Duration
}

// Run solves a random MOTSP instance derived from the configuration. The
// run is reproducible: the same configuration always yields the same front.
func Run(ctx context.Context, cfg Config, opts Options) (*Result, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	problem, err := motsp.NewRandom(cfg.NumCities, cfg.NumObjectives, cfg.RandomSeed)
	if err != nil {
		return nil, err
	}
	return RunInstance(ctx, cfg, problem, opts)
}

// RunInstance solves an explicit MOTSP instance. The instance dimensions
// override NumCities and NumObjectives in the configuration.
func RunInstance(ctx context.Context, cfg Config, problem *motsp.MOTSP, opts Options) (*Result, error) {
	cfg.NumCities = problem.NumCities()
	cfg.NumObjectives = problem.NumObjectives()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer().Start(ctx, "solver.Run")
	defer span.End()

	crossover, err := framework.CrossoverByName(cfg.Crossover)
	if err != nil {
		return nil, err
	}
	mutation, err := framework.MutationByName(cfg.Mutation)
	if err != nil {
		return nil, err
	}
	problem.SetOperators(crossover, mutation)

	if opts.SeedFromArchive && opts.Store != nil {
		seedFromArchive(ctx, opts.Store, problem)
	}
	if cfg.WarmStart {
		// Greedy tours fill at most a quarter of the population, random
		// sampling keeps the rest diverse.
		tours := warmstart.GreedyTours(problem.Matrices(), cfg.PopulationSize/4)
		problem.SeedRoutes(tours)
		klog.V(2).InfoS("Warm start enabled", "problem", problem.Name(), "tours", len(tours))
	}

	engine, err := algorithms.NewNSGAII(algorithms.NSGA2Config{
		PopulationSize:       cfg.PopulationSize,
		NumOffspring:         cfg.NumOffspring,
		MaxGenerations:       cfg.NumGenerations,
		CrossoverProbability: cfg.CrossoverProbability,
		MutationProbability:  cfg.MutationProbability,
		TournamentSize:       cfg.TournamentSize,
		RandomSeed:           cfg.RandomSeed,
		EliminateDuplicates:  cfg.EliminateDuplicates,
	}, problem)
	if err != nil {
		return nil, err
	}

	recorder := history.NewRecorder()
	engine.Observer = &runObserver{recorder: recorder, problem: problem.Name()}

	start := time.Now()
	engine.Run()
	elapsed := time.Since(start)

	final := recorder.Final()
	result := &Result{
		RunID:       uuid.NewString(),
		Problem:     problem.Name(),
		Fingerprint: problem.Fingerprint(),
		Config:      cfg,
		Front:       final.Front,
		History:     recorder.Records(),
		Evaluations: engine.Evaluations(),
		Elapsed:     elapsed,
	}
	metrics.RunsTotal.Inc()
	span.SetAttributes(
		attribute.String("run.id", result.RunID),
		attribute.String("run.problem", result.Problem),
		attribute.Int64("run.evaluations", result.Evaluations),
		attribute.Int("run.front_size", len(result.Front)),
	)

	if opts.Store != nil {
		// Archiving is best effort, a failed save never fails the run.
		if err := saveResult(ctx, opts.Store, result); err != nil {
			span.RecordError(err)
			klog.ErrorS(err, "Archiving run failed", "runID", result.RunID)
		}
	}
	if opts.PlotDir != "" {
		if err := writePlots(result, recorder, problem, opts.PlotDir); err != nil {
			klog.ErrorS(err, "Writing plots failed", "runID", result.RunID)
		}
	}

	klog.InfoS("Run complete",
		"runID", result.RunID,
		"problem", result.Problem,
		"frontSize", len(result.Front),
		"evaluations", result.Evaluations,
		"elapsed", elapsed)
	return result, nil
}

// runObserver feeds every generation snapshot into the history recorder and
// the Prometheus collectors.
type runObserver struct {
	recorder  *history.Recorder
	problem   string
	lastEvals int64
}

func (o *runObserver) ObserveGeneration(generation int, evaluations int64, population []*algorithms.NSGAIISolution) {
	o.recorder.ObserveGeneration(generation, evaluations, population)

	metrics.EvaluationsTotal.Add(float64(evaluations - o.lastEvals))
	o.lastEvals = evaluations
	if generation > 0 {
		metrics.GenerationsTotal.Inc()
	}
	metrics.FrontSize.WithLabelValues(o.problem).Set(float64(len(o.recorder.Final().Front)))
}

// seedFromArchive looks up the latest archived run over the same problem
// instance and registers its front as initial routes.
func seedFromArchive(ctx context.Context, store storage.Store, problem *motsp.MOTSP) {
	prev, ok, err := store.LatestRunByFingerprint(ctx, problem.Fingerprint())
	if err != nil {
		klog.ErrorS(err, "Archive lookup failed", "fingerprint", problem.Fingerprint())
		return
	}
	if !ok {
		klog.V(2).InfoS("No archived run for instance", "fingerprint", problem.Fingerprint())
		return
	}

	routes := make([][]int, 0, len(prev.Front))
	for _, member := range prev.Front {
		routes = append(routes, member.Route)
	}
	problem.SeedRoutes(routes)
	klog.InfoS("Seeded population from archive",
		"runID", prev.ID, "routes", len(routes), "fingerprint", problem.Fingerprint())
}

func saveResult(ctx context.Context, store storage.Store, result *Result) error {
	rawCfg, err := json.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	record := storage.RunRecord{
		ID:          result.RunID,
		CreatedAt:   time.Now().UTC(),
		Problem:     result.Problem,
		Fingerprint: result.Fingerprint,
		Config:      rawCfg,
		Front:       frontRecords(result.Front),
		Evaluations: result.Evaluations,
		Elapsed:     result.Elapsed,
	}
	if err := store.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	histRecords := make([]storage.HistoryRecord, len(result.History))
	for i, rec := range result.History {
		histRecords[i] = storage.HistoryRecord{
			Generation:  rec.Generation,
			Evaluations: rec.Evaluations,
			Front:       frontRecords(rec.Front),
		}
	}
	if err := store.SaveHistory(ctx, result.RunID, histRecords); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

func frontRecords(front []history.FrontMember) []storage.FrontRecord {
	records := make([]storage.FrontRecord, len(front))
	for i, member := range front {
		records[i] = storage.FrontRecord{
			Route:      member.Solution.(*framework.PermutationSolution).Variables,
			Objectives: member.Objectives,
		}
	}
	return records
}

func writePlots(result *Result, recorder *history.Recorder, problem framework.Problem, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if result.Config.NumObjectives == 2 {
		points := make([]framework.ObjectiveSpacePoint, len(result.Front))
		for i, member := range result.Front {
			points[i] = member.Objectives
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_front.html", result.Problem))
		if err := util.PlotResults(points, problem, algorithms.Name, path); err != nil {
			return err
		}
	}

	series := recorder.BestObjectiveSeries(0)
	path := filepath.Join(dir, fmt.Sprintf("%s_convergence.html", result.Problem))
	return util.PlotConvergence(series, fmt.Sprintf("%s best f1", result.Problem), path)
}
