package search

import (
	"fmt"
	"maps"
	"math"
	"math/rand"
	"slices"
)

// Sample is a distinct output drawn by Sample together with the number of draws
// that produced it.
type Sample struct {
	Tokens    []int
	Count     int
	Score     float64
	Truncated bool
}

type draft struct {
	h     *hypothesis
	count int
	score float64
}

// Sample draws n outputs for source from the fused distribution. Draws that agree on
// a prefix share its expansion, so every distinct prefix advances the models once.
// Samples are returned in the order they complete, ties in ascending token order.
func (d *Decoder) Sample(source []int, n int, rng *rand.Rand) ([]Sample, error) {
	if n < 1 {
		return nil, fmt.Errorf("sample: count %d < 1", n)
	}
	members, err := startMembers(d.models, source)
	if err != nil {
		return nil, err
	}

	frontier := []draft{{h: &hypothesis{members: members, state: d.constraint.Start()}, count: n}}
	var samples []Sample
	for step := 0; step < d.maxLength && len(frontier) > 0; step++ {
		var next []draft
		for _, dr := range frontier {
			tokens, dist := d.distribution(dr.h)
			if len(tokens) == 0 {
				continue
			}
			counts := make(map[int]int)
			for range dr.count {
				counts[draw(dist, rng)]++
			}

			for _, j := range slices.Sorted(maps.Keys(counts)) {
				child := dr.h.extend(d.constraint, tokens[j])
				score := dr.score + dist[j] + d.lengthBonus
				done := d.constraint.Complete(child.state)
				if !done && step+1 < d.maxLength {
					next = append(next, draft{h: child, count: counts[j], score: score})
					continue
				}
				if !done && d.truncation == DropTruncated {
					continue
				}
				sampledTotal.Inc()
				samples = append(samples, Sample{Tokens: child.tokens, Count: counts[j], Score: score, Truncated: !done})
			}
		}
		log.Debugf("sample step %d: %d distinct prefixes", step, len(next))
		frontier = next
	}

	if len(samples) == 0 {
		exhaustedTotal.Inc()
		return nil, fmt.Errorf("sample source of length %d: %w", len(source), ErrNoHypotheses)
	}
	return samples, nil
}

// draw picks an index of dist, a log distribution, by inverse transform sampling.
func draw(dist []float64, rng *rand.Rand) int {
	r := rng.Float64()
	cum := 0.0
	last := -1
	for i, lp := range dist {
		p := math.Exp(lp)
		if p == 0 {
			continue
		}
		last = i
		cum += p
		if r < cum {
			return i
		}
	}
	// Rounding can leave the total just below r.
	if last < 0 {
		return len(dist) - 1
	}
	return last
}
