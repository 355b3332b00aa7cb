package search

import (
	"fmt"
	"math"
	"slices"
)

// Alignment is the result of walking a reference output with teacher forcing.
type Alignment struct {
	Tokens []int
	// NegLogProbs holds, per output position, the negative log probability of the
	// reference token under the fused distribution.
	NegLogProbs []float64
	// Weights holds, per output position, the fused attention over source positions.
	// It is nil unless every model is an Aligner.
	Weights [][]float64
}

// Loss is the total negative log probability of the reference.
func (a *Alignment) Loss() float64 {
	var sum float64
	for _, nll := range a.NegLogProbs {
		sum += nll
	}
	return sum
}

// ForceDecode scores target as the output for source without searching. Every target
// token must be allowed by the constraint; the first one that is not is reported
// with ErrTokenNotAllowed.
func (d *Decoder) ForceDecode(source, target []int) (*Alignment, error) {
	members, err := startMembers(d.models, source)
	if err != nil {
		return nil, err
	}
	aligners := make([]Aligner, 0, len(d.models))
	for _, m := range d.models {
		if a, ok := m.(Aligner); ok {
			aligners = append(aligners, a)
		}
	}
	withWeights := len(aligners) == len(d.models)

	out := &Alignment{Tokens: slices.Clone(target)}
	h := &hypothesis{members: members, state: d.constraint.Start()}
	for i, token := range target {
		if i > 0 && d.constraint.Complete(h.state) {
			return nil, fmt.Errorf("reference position %d: output already complete: %w", i, ErrTokenNotAllowed)
		}
		allowed, dist := d.distribution(h)
		j := slices.Index(allowed, token)
		if j < 0 {
			return nil, fmt.Errorf("reference position %d: token %d: %w", i, token, ErrTokenNotAllowed)
		}
		out.NegLogProbs = append(out.NegLogProbs, -dist[j])

		if withWeights {
			weights := make([][]float64, len(h.members))
			for k, m := range h.members {
				weights[k] = aligners[k].Alignment(m.state)
			}
			fused, err := fuseWeights(weights)
			if err != nil {
				return nil, fmt.Errorf("reference position %d: %w", i, err)
			}
			out.Weights = append(out.Weights, fused)
		}

		h = h.extend(d.constraint, token)
	}
	return out, nil
}

// Loss returns the total negative log probability of target given source.
func (d *Decoder) Loss(source, target []int) (float64, error) {
	a, err := d.ForceDecode(source, target)
	if err != nil {
		return 0, err
	}
	return a.Loss(), nil
}

// fuseWeights combines per-model attention vectors the same way Fuse combines
// distributions, in log space.
func fuseWeights(weights [][]float64) ([]float64, error) {
	if len(weights) == 1 {
		return slices.Clone(weights[0]), nil
	}
	logs := make([][]float64, len(weights))
	for i, w := range weights {
		if len(w) != len(weights[0]) {
			return nil, fmt.Errorf("alignment of model %d has %d positions, want %d", i, len(w), len(weights[0]))
		}
		logs[i] = make([]float64, len(w))
		for j, x := range w {
			logs[i][j] = math.Log(x)
		}
	}
	fused := Fuse(logs)
	out := make([]float64, len(fused))
	for j, x := range fused {
		out[j] = math.Exp(x)
	}
	return out, nil
}
