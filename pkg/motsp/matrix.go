package motsp

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// DistanceMatrix holds pairwise travel costs between cities. A valid matrix
// is square, symmetric, non-negative and zero on the diagonal.
type DistanceMatrix [][]float64

// Validate checks the structural invariants of the matrix.
func (m DistanceMatrix) Validate() error {
	n := len(m)
	if n == 0 {
		return fmt.Errorf("distance matrix is empty")
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("distance matrix is not square: row %d has %d entries, want %d", i, len(row), n)
		}
	}
	for i := 0; i < n; i++ {
		if m[i][i] != 0 {
			return fmt.Errorf("distance matrix diagonal entry [%d][%d] is %v, want 0", i, i, m[i][i])
		}
		for j := i + 1; j < n; j++ {
			if m[i][j] < 0 {
				return fmt.Errorf("distance matrix entry [%d][%d] is negative: %v", i, j, m[i][j])
			}
			if m[i][j] != m[j][i] {
				return fmt.Errorf("distance matrix is not symmetric at [%d][%d]: %v != %v", i, j, m[i][j], m[j][i])
			}
		}
	}
	return nil
}

// Cost sums the distances along route as an open path. The route does not
// return to its starting city, so a route over n cities crosses n-1 edges.
func (m DistanceMatrix) Cost(route []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		total += m[route[i]][route[i+1]]
	}
	return total
}

// RandomDistanceMatrix draws a symmetric zero-diagonal matrix with entries
// uniform in [0,1). Only the upper triangle is sampled and mirrored, so the
// result costs n*(n-1)/2 draws from rng.
func RandomDistanceMatrix(n int, rng *rand.Rand) DistanceMatrix {
	m := make(DistanceMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := rng.Float64()
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}
