package main

import (
	"github.com/spf13/cobra"

	"wayfarer/pkg/algorithms"
	"wayfarer/pkg/benchmarks"
)

func newBenchmarkCommand() *cobra.Command {
	var outputDir string
	config := algorithms.NSGA2Config{
		PopulationSize:       200,
		NumOffspring:         200,
		MaxGenerations:       500,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0 / 30.0,
		TournamentSize:       2,
		RandomSeed:           1,
		EliminateDuplicates:  false,
	}

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run NSGA-II against the ZDT and DTLZ reference problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			suite := benchmarks.NewTestSuite(config)
			suite.AddStandardProblems()
			return suite.Run(outputDir)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&outputDir, "output-dir", "benchmark_results", "directory for result charts")
	flags.IntVar(&config.PopulationSize, "pop", config.PopulationSize, "population size")
	flags.IntVar(&config.NumOffspring, "offspring", config.NumOffspring, "offspring per generation")
	flags.IntVar(&config.MaxGenerations, "gens", config.MaxGenerations, "generation count")
	flags.Int64Var(&config.RandomSeed, "seed", config.RandomSeed, "rng seed")
	return cmd
}
