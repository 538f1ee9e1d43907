package framework

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// CrossoverFunc represents a crossover operation on permutation chromosomes.
// Implementations must return valid permutations whenever both parents are
// valid permutations of the same set.
type CrossoverFunc func(parent1, parent2 []int, rng *rand.Rand) (child1, child2 []int)

// MutationFunc mutates a permutation in place, preserving validity.
type MutationFunc func(p []int, rng *rand.Rand)

// CrossoverByName resolves a crossover operator from its configuration name.
func CrossoverByName(name string) (CrossoverFunc, error) {
	switch name {
	case "erx":
		return EdgeRecombinationCrossover, nil
	case "ox":
		return OrderCrossover, nil
	case "pmx":
		return PartiallyMappedCrossover, nil
	default:
		return nil, fmt.Errorf("unknown crossover operator %q", name)
	}
}

// MutationByName resolves a mutation operator from its configuration name.
func MutationByName(name string) (MutationFunc, error) {
	switch name {
	case "inversion":
		return InversionMutation, nil
	case "swap":
		return SwapMutation, nil
	default:
		return nil, fmt.Errorf("unknown mutation operator %q", name)
	}
}

// EdgeRecombinationCrossover builds each child by walking an adjacency table
// that merges the neighborhoods of both parents. The next city is the unused
// neighbor of the current city with the fewest remaining neighbors, ties
// broken at random; when the current city has no unused neighbor left, a
// random unused city is chosen instead. Adjacency follows the path reading of
// a route: the first and last cities of a parent have a single neighbor.
func EdgeRecombinationCrossover(p1, p2 []int, rng *rand.Rand) ([]int, []int) {
	return erxChild(p1, p2, rng), erxChild(p2, p1, rng)
}

func erxChild(p1, p2 []int, rng *rand.Rand) []int {
	n := len(p1)
	adj := buildEdgeTable(p1, p2)
	used := make([]bool, n)
	child := make([]int, 0, n)
	ties := make([]int, 0, 4)

	current := p1[0]
	used[current] = true
	child = append(child, current)

	for len(child) < n {
		// A visited city is removed from every neighbor list, so the lists
		// only ever hold unused cities.
		for _, nb := range adj[current] {
			adj[nb] = removeCity(adj[nb], current)
		}

		ties = ties[:0]
		minCount := 0
		for _, nb := range adj[current] {
			count := len(adj[nb])
			switch {
			case len(ties) == 0 || count < minCount:
				minCount = count
				ties = append(ties[:0], nb)
			case count == minCount:
				ties = append(ties, nb)
			}
		}

		var next int
		if len(ties) > 0 {
			next = ties[rng.Intn(len(ties))]
		} else {
			next = randomUnused(used, n-len(child), rng)
		}

		current = next
		used[current] = true
		child = append(child, current)
	}

	return child
}

// buildEdgeTable returns the union of each city's path neighbors in both
// parents. Slice-indexed on purpose: map iteration order must never leak into
// the stochastic choices above.
func buildEdgeTable(p1, p2 []int) [][]int {
	adj := make([][]int, len(p1))
	for i := range adj {
		adj[i] = make([]int, 0, 4)
	}
	for _, p := range [][]int{p1, p2} {
		for i, city := range p {
			if i > 0 {
				addNeighbor(adj, city, p[i-1])
			}
			if i < len(p)-1 {
				addNeighbor(adj, city, p[i+1])
			}
		}
	}
	return adj
}

func addNeighbor(adj [][]int, city, neighbor int) {
	for _, existing := range adj[city] {
		if existing == neighbor {
			return
		}
	}
	adj[city] = append(adj[city], neighbor)
}

func removeCity(neighbors []int, city int) []int {
	for i, nb := range neighbors {
		if nb == city {
			return append(neighbors[:i], neighbors[i+1:]...)
		}
	}
	return neighbors
}

// randomUnused picks uniformly among the remaining unused cities.
func randomUnused(used []bool, remaining int, rng *rand.Rand) int {
	k := rng.Intn(remaining)
	for city, u := range used {
		if u {
			continue
		}
		if k == 0 {
			return city
		}
		k--
	}
	// Unreachable while remaining matches the number of false entries.
	return -1
}

// OrderCrossover keeps a random segment from the first parent in place and
// fills the remaining positions with the other parent's cities in their
// original order.
func OrderCrossover(p1, p2 []int, rng *rand.Rand) ([]int, []int) {
	a, b := cutPoints(len(p1), rng)
	return oxChild(p1, p2, a, b), oxChild(p2, p1, a, b)
}

func oxChild(p1, p2 []int, a, b int) []int {
	n := len(p1)
	child := make([]int, n)
	inSegment := make([]bool, n)
	for i := a; i <= b; i++ {
		child[i] = p1[i]
		inSegment[p1[i]] = true
	}

	pos := (b + 1) % n
	for i := 0; i < n; i++ {
		city := p2[(b+1+i)%n]
		if inSegment[city] {
			continue
		}
		child[pos] = city
		pos = (pos + 1) % n
	}
	return child
}

// PartiallyMappedCrossover exchanges a random segment between the parents and
// repairs the duplicates outside it through the segment's position mapping.
func PartiallyMappedCrossover(p1, p2 []int, rng *rand.Rand) ([]int, []int) {
	a, b := cutPoints(len(p1), rng)
	return pmxChild(p1, p2, a, b), pmxChild(p2, p1, a, b)
}

func pmxChild(p1, p2 []int, a, b int) []int {
	n := len(p1)
	child := make([]int, n)
	for i := range child {
		child[i] = -1
	}

	inSegment := make([]bool, n)
	for i := a; i <= b; i++ {
		child[i] = p1[i]
		inSegment[p1[i]] = true
	}

	posInP2 := make([]int, n)
	for i, city := range p2 {
		posInP2[city] = i
	}

	for i := a; i <= b; i++ {
		city := p2[i]
		if inSegment[city] {
			continue
		}
		j := i
		for child[j] != -1 {
			j = posInP2[child[j]]
		}
		child[j] = city
	}

	for i := range child {
		if child[i] == -1 {
			child[i] = p2[i]
		}
	}
	return child
}

func cutPoints(n int, rng *rand.Rand) (int, int) {
	a := rng.Intn(n)
	b := rng.Intn(n)
	if a > b {
		a, b = b, a
	}
	return a, b
}
