// Package history records per-generation snapshots of an evolution run.
package history

import (
	"fmt"
	"math"

	"wayfarer/pkg/algorithms"
	"wayfarer/pkg/framework"
)

// FrontMember pairs a cloned solution with its objective values.
type FrontMember struct {
	Solution   framework.Solution
	Objectives framework.ObjectiveSpacePoint
}

// GenerationRecord is the snapshot taken after one survival selection.
type GenerationRecord struct {
	Generation  int
	Evaluations int64
	Front       []FrontMember
}

// Recorder captures the non-dominated front of every generation of a run.
// It implements the observer contract of the NSGA-II engine.
type Recorder struct {
	records []GenerationRecord
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// ObserveGeneration snapshots the first front of the population. Members are
// cloned so later generations cannot mutate history, and only one
// representative per distinct objective vector is kept.
func (r *Recorder) ObserveGeneration(generation int, evaluations int64, population []*algorithms.NSGAIISolution) {
	r.records = append(r.records, GenerationRecord{
		Generation:  generation,
		Evaluations: evaluations,
		Front:       uniqueFront(population),
	})
}

func uniqueFront(population []*algorithms.NSGAIISolution) []FrontMember {
	seen := make(map[string]bool)
	var front []FrontMember
	for _, sol := range algorithms.FirstFront(population) {
		key := fmt.Sprintf("%v", sol.Value)
		if seen[key] {
			continue
		}
		seen[key] = true

		objectives := make(framework.ObjectiveSpacePoint, len(sol.Value))
		copy(objectives, sol.Value)
		front = append(front, FrontMember{
			Solution:   sol.Solution.Clone(),
			Objectives: objectives,
		})
	}
	return front
}

// Records returns all snapshots in generation order.
func (r *Recorder) Records() []GenerationRecord {
	return r.records
}

// Final returns the last snapshot, or a zero record when nothing was
// recorded.
func (r *Recorder) Final() GenerationRecord {
	if len(r.records) == 0 {
		return GenerationRecord{}
	}
	return r.records[len(r.records)-1]
}

// BestObjectiveSeries extracts, per generation, the best recorded value of
// one objective. The series feeds convergence plots.
func (r *Recorder) BestObjectiveSeries(objective int) []float64 {
	series := make([]float64, len(r.records))
	for i, rec := range r.records {
		best := math.Inf(1)
		for _, member := range rec.Front {
			if objective < len(member.Objectives) && member.Objectives[objective] < best {
				best = member.Objectives[objective]
			}
		}
		series[i] = best
	}
	return series
}
