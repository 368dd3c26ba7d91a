package ik

// SquaredNorm returns the dot product of a vector with itself.
func SquaredNorm(vec []float64) float64 {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	return norm
}

// WeightedSquaredNorm returns the dot product of a vector with itself, applying the
// given weights to each piece.
func WeightedSquaredNorm(vec, weights []float64) float64 {
	norm := 0.0
	for i, v := range vec {
		norm += v * v * weights[i]
	}
	return norm
}
