package framework

import (
	"golang.org/x/exp/rand"
)

// InversionMutation reverses the segment between two random cut points.
func InversionMutation(p []int, rng *rand.Rand) {
	i := rng.Intn(len(p))
	j := rng.Intn(len(p))
	if i > j {
		i, j = j, i
	}
	for i < j {
		p[i], p[j] = p[j], p[i]
		i++
		j--
	}
}

// SwapMutation exchanges two random positions.
func SwapMutation(p []int, rng *rand.Rand) {
	i := rng.Intn(len(p))
	j := rng.Intn(len(p))
	p[i], p[j] = p[j], p[i]
}
