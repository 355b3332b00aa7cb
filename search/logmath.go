package search

import (
	"math"

	"golang.org/x/exp/constraints"
)

// LogSumExp returns log(sum(exp(x))) without overflow. It is -Inf for an empty slice
// or when every element is -Inf.
func LogSumExp[F constraints.Float](xs []F) F {
	hi := F(math.Inf(-1))
	for _, x := range xs {
		if x > hi {
			hi = x
		}
	}
	if math.IsInf(float64(hi), 0) {
		return hi
	}
	var sum float64
	for _, x := range xs {
		sum += math.Exp(float64(x - hi))
	}
	return hi + F(math.Log(sum))
}

// Normalize shifts xs in place so that exp(xs) sums to one. A slice of -Inf values is
// left as is.
func Normalize[F constraints.Float](xs []F) {
	z := LogSumExp(xs)
	if math.IsInf(float64(z), 0) {
		return
	}
	for i := range xs {
		xs[i] -= z
	}
}

// Fuse combines the log distributions of an ensemble by averaging them and
// renormalizing. Every distribution must have the same length. A single distribution
// is returned unchanged.
func Fuse(dists [][]float64) []float64 {
	if len(dists) == 1 {
		return dists[0]
	}
	out := make([]float64, len(dists[0]))
	n := float64(len(dists))
	for _, d := range dists {
		for i, x := range d {
			out[i] += x / n
		}
	}
	Normalize(out)
	return out
}
