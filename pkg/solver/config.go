package solver

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"wayfarer/pkg/framework"
)

// Config holds every knob of a solver run. The zero value is not runnable;
// start from DefaultConfig or load a file over it.
type Config struct {
	NumCities            int     `json:"num_cities"`
	NumObjectives        int     `json:"num_objectives"`
	PopulationSize       int     `json:"population_size"`
	NumOffspring         int     `json:"num_offspring"`
	NumGenerations       int     `json:"num_generations"`
	CrossoverProbability float64 `json:"crossover_probability"`
	MutationProbability  float64 `json:"mutation_probability"`
	TournamentSize       int     `json:"tournament_size"`
	RandomSeed           int64   `json:"random_seed"`
	EliminateDuplicates  bool    `json:"eliminate_duplicates"`
	Crossover            string  `json:"crossover"`
	Mutation             string  `json:"mutation"`
	WarmStart            bool    `json:"warm_start"`
}

// DefaultConfig returns a runnable configuration for a small random
// instance.
func DefaultConfig() Config {
	return Config{
		NumCities:            20,
		NumObjectives:        2,
		PopulationSize:       100,
		NumOffspring:         100,
		NumGenerations:       100,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0,
		TournamentSize:       2,
		RandomSeed:           1,
		EliminateDuplicates:  true,
		Crossover:            "erx",
		Mutation:             "inversion",
		WarmStart:            false,
	}
}

// LoadConfig reads a YAML (or JSON) file over the default configuration.
// Unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// SetDefaults fills the fields that have a derivable default. NumOffspring
// below zero means "same as the population size"; an explicit zero is left
// alone so validation can reject it.
func (c *Config) SetDefaults() {
	if c.NumOffspring < 0 {
		c.NumOffspring = c.PopulationSize
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = 2
	}
	if c.Crossover == "" {
		c.Crossover = "erx"
	}
	if c.Mutation == "" {
		c.Mutation = "inversion"
	}
}

// Validate rejects configurations a run cannot start with. The first
// problem found is reported.
func (c Config) Validate() error {
	if c.NumCities < 2 {
		return fmt.Errorf("at least two cities are required, got %d", c.NumCities)
	}
	if c.NumObjectives < 1 {
		return fmt.Errorf("at least one objective is required, got %d", c.NumObjectives)
	}
	if c.PopulationSize <= 0 {
		return fmt.Errorf("population size must be positive, got %d", c.PopulationSize)
	}
	if c.NumOffspring <= 0 {
		return fmt.Errorf("offspring count must be positive, got %d", c.NumOffspring)
	}
	if c.NumGenerations <= 0 {
		return fmt.Errorf("generation count must be positive, got %d", c.NumGenerations)
	}
	if c.CrossoverProbability < 0 || c.CrossoverProbability > 1 {
		return fmt.Errorf("crossover probability must be in [0,1], got %v", c.CrossoverProbability)
	}
	if c.MutationProbability < 0 || c.MutationProbability > 1 {
		return fmt.Errorf("mutation probability must be in [0,1], got %v", c.MutationProbability)
	}
	if _, err := framework.CrossoverByName(c.Crossover); err != nil {
		return err
	}
	if _, err := framework.MutationByName(c.Mutation); err != nil {
		return err
	}
	return nil
}
