package utils

import "math/rand"

// Clamp limits v to the closed range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sign returns -1 for negative values and 1 otherwise.
func Sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// RandomSign returns -1 or 1 with equal probability.
func RandomSign(rng *rand.Rand) float64 {
	if rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

// RandomRange returns a uniform value in [-max, max).
func RandomRange(rng *rand.Rand, max float64) float64 {
	return rng.Float64()*2*max - max
}
