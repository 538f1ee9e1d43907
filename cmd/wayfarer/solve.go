package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"wayfarer/pkg/analysis"
	"wayfarer/pkg/framework"
	"wayfarer/pkg/solver"
	"wayfarer/pkg/storage"
	"wayfarer/pkg/tracing"
)

type solveOptions struct {
	configPath      string
	storeKind       string
	storePath       string
	seedFromArchive bool
	plotDir         string
	metricsAddr     string
	tracingEndpoint string
}

func newSolveCommand() *cobra.Command {
	opts := &solveOptions{}
	cfg := solver.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a random MOTSP instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, opts, cfg)
		},
	}

	flags := cmd.Flags()
	addConfigFlags(flags, &cfg)
	flags.StringVar(&opts.configPath, "config", "", "YAML config file; explicitly set flags override its values")
	flags.StringVar(&opts.storeKind, "store", "", "archive backend: memory|sqlite (empty disables archiving)")
	flags.StringVar(&opts.storePath, "store-path", "wayfarer.db", "sqlite database path")
	flags.BoolVar(&opts.seedFromArchive, "seed-from-archive", false, "seed the population from the latest archived run over the same instance")
	flags.StringVar(&opts.plotDir, "plot-dir", "", "directory for front and convergence charts")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9090")
	flags.StringVar(&opts.tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces")
	return cmd
}

func addConfigFlags(flags *pflag.FlagSet, cfg *solver.Config) {
	flags.IntVar(&cfg.NumCities, "cities", cfg.NumCities, "number of cities")
	flags.IntVar(&cfg.NumObjectives, "objectives", cfg.NumObjectives, "number of objectives")
	flags.IntVar(&cfg.PopulationSize, "pop", cfg.PopulationSize, "population size")
	flags.IntVar(&cfg.NumOffspring, "offspring", cfg.NumOffspring, "offspring per generation (-1 matches the population size)")
	flags.IntVar(&cfg.NumGenerations, "gens", cfg.NumGenerations, "generation count")
	flags.Float64Var(&cfg.CrossoverProbability, "crossover-prob", cfg.CrossoverProbability, "crossover probability")
	flags.Float64Var(&cfg.MutationProbability, "mutation-prob", cfg.MutationProbability, "mutation probability")
	flags.IntVar(&cfg.TournamentSize, "tournament", cfg.TournamentSize, "tournament size")
	flags.Int64Var(&cfg.RandomSeed, "seed", cfg.RandomSeed, "rng seed for the instance and the search")
	flags.BoolVar(&cfg.EliminateDuplicates, "dedup", cfg.EliminateDuplicates, "eliminate duplicate routes from the population")
	flags.StringVar(&cfg.Crossover, "crossover", cfg.Crossover, "crossover operator: erx|ox|pmx")
	flags.StringVar(&cfg.Mutation, "mutation", cfg.Mutation, "mutation operator: inversion|swap")
	flags.BoolVar(&cfg.WarmStart, "warm-start", cfg.WarmStart, "seed part of the population with greedy nearest-neighbour tours")
}

// applyChangedFlags copies every explicitly set config flag over the file
// configuration, so flags always win over the file.
func applyChangedFlags(flags *pflag.FlagSet, dst *solver.Config, flagged solver.Config) {
	appliers := map[string]func(){
		"cities":         func() { dst.NumCities = flagged.NumCities },
		"objectives":     func() { dst.NumObjectives = flagged.NumObjectives },
		"pop":            func() { dst.PopulationSize = flagged.PopulationSize },
		"offspring":      func() { dst.NumOffspring = flagged.NumOffspring },
		"gens":           func() { dst.NumGenerations = flagged.NumGenerations },
		"crossover-prob": func() { dst.CrossoverProbability = flagged.CrossoverProbability },
		"mutation-prob":  func() { dst.MutationProbability = flagged.MutationProbability },
		"tournament":     func() { dst.TournamentSize = flagged.TournamentSize },
		"seed":           func() { dst.RandomSeed = flagged.RandomSeed },
		"dedup":          func() { dst.EliminateDuplicates = flagged.EliminateDuplicates },
		"crossover":      func() { dst.Crossover = flagged.Crossover },
		"mutation":       func() { dst.Mutation = flagged.Mutation },
		"warm-start":     func() { dst.WarmStart = flagged.WarmStart },
	}
	for name, apply := range appliers {
		if flags.Changed(name) {
			apply()
		}
	}
}

func runSolve(cmd *cobra.Command, opts *solveOptions, cfg solver.Config) error {
	ctx := cmd.Context()

	if opts.configPath != "" {
		fileCfg, err := solver.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		applyChangedFlags(cmd.Flags(), &fileCfg, cfg)
		cfg = fileCfg
	}

	shutdown, err := tracing.Setup(ctx, opts.tracingEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			klog.ErrorS(err, "Tracing shutdown failed")
		}
	}()

	if opts.metricsAddr != "" {
		go serveMetrics(opts.metricsAddr)
	}

	runOpts := solver.Options{
		SeedFromArchive: opts.seedFromArchive,
		PlotDir:         opts.plotDir,
	}
	if opts.storeKind != "" {
		store, err := storage.NewStore(opts.storeKind, opts.storePath)
		if err != nil {
			return err
		}
		if err := store.Init(ctx); err != nil {
			return err
		}
		defer func() {
			_ = storage.CloseIfSupported(store)
		}()
		runOpts.Store = store
	}

	res, err := solver.Run(ctx, cfg, runOpts)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, res *solver.Result) {
	fmt.Fprintf(w, "run %s solved %s in %s\n", res.RunID, res.Problem, res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "evaluations=%s front=%d\n", humanize.Comma(res.Evaluations), len(res.Front))

	points := make([]framework.ObjectiveSpacePoint, len(res.Front))
	for i, member := range res.Front {
		points[i] = member.Objectives
	}
	summary, err := analysis.Summarize(points)
	if err != nil {
		fmt.Fprintln(w, "no non-dominated solutions found")
		return
	}

	for m, s := range summary.Objectives {
		fmt.Fprintf(w, "objective %d: min=%.4f mean=%.4f max=%.4f\n", m, s.Min, s.Mean, s.Max)
	}
	knee := res.Front[summary.KneeIndex]
	fmt.Fprintf(w, "knee point: objectives=%s route=%v\n",
		formatPoint(summary.Knee),
		knee.Solution.(*framework.PermutationSolution).Variables)
}

func formatPoint(p framework.ObjectiveSpacePoint) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	klog.InfoS("Serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		klog.ErrorS(err, "Metrics server failed", "addr", addr)
	}
}
