package search

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dhamidi/treebeam/kbest"
)

// ErrNoHypotheses is returned when a search ends without any completed output.
var ErrNoHypotheses = errors.New("no hypotheses")

// ErrTokenNotAllowed is returned when a reference token is outside the allowed set.
var ErrTokenNotAllowed = errors.New("token not allowed")

// Truncation decides what happens to outputs cut off at the maximum length.
type Truncation int

const (
	KeepTruncated Truncation = iota
	DropTruncated
)

func (t Truncation) String() string {
	if t == DropTruncated {
		return "drop"
	}
	return "keep"
}

// Defaults used when no option overrides them.
const (
	DefaultBeamSize  = 5
	DefaultKBestSize = 1
	DefaultMaxLength = 100
)

type Option func(*Decoder)

// WithBeamSize sets the number of partial hypotheses kept per step.
func WithBeamSize(b int) Option {
	return func(d *Decoder) {
		d.beamSize = b
	}
}

// WithKBestSize sets the number of completed outputs returned.
func WithKBestSize(k int) Option {
	return func(d *Decoder) {
		d.kbestSize = k
	}
}

// WithMaxLength bounds the number of output tokens.
func WithMaxLength(l int) Option {
	return func(d *Decoder) {
		d.maxLength = l
	}
}

// WithLengthBonus adds c to the score of every emitted token. c must not be positive.
func WithLengthBonus(c float64) Option {
	return func(d *Decoder) {
		d.lengthBonus = c
	}
}

func WithTruncation(t Truncation) Option {
	return func(d *Decoder) {
		d.truncation = t
	}
}

// WithConstraint sets the output space. Without it the decoder stops on EOS.
func WithConstraint(c Constraint) Option {
	return func(d *Decoder) {
		d.constraint = c
	}
}

// Decoder searches the output space of an ensemble of models. A Decoder is not safe
// for concurrent use; decode independent sentences with independent decoders.
type Decoder struct {
	models      []Model
	beamSize    int
	kbestSize   int
	maxLength   int
	lengthBonus float64
	truncation  Truncation
	constraint  Constraint
}

// NewDecoder returns a decoder over the given ensemble. eos is the end of sentence
// token used unless WithConstraint replaces the output space.
func NewDecoder(models []Model, eos int, opts ...Option) (*Decoder, error) {
	d := &Decoder{
		models:     models,
		beamSize:   DefaultBeamSize,
		kbestSize:  DefaultKBestSize,
		maxLength:  DefaultMaxLength,
		truncation: KeepTruncated,
		constraint: TokenConstraint{EOS: eos},
	}
	for _, opt := range opts {
		opt(d)
	}

	switch {
	case len(d.models) == 0:
		return nil, fmt.Errorf("decoder: no models")
	case d.beamSize < 1:
		return nil, fmt.Errorf("decoder: beam size %d < 1", d.beamSize)
	case d.kbestSize < 1:
		return nil, fmt.Errorf("decoder: k-best size %d < 1", d.kbestSize)
	case d.maxLength < 1:
		return nil, fmt.Errorf("decoder: max length %d < 1", d.maxLength)
	case d.lengthBonus > 0:
		return nil, fmt.Errorf("decoder: length bonus %g > 0", d.lengthBonus)
	case d.constraint == nil:
		return nil, fmt.Errorf("decoder: nil constraint")
	}
	return d, nil
}

func (d *Decoder) Constraint() Constraint {
	return d.constraint
}

// Result is one decoded output.
type Result struct {
	Tokens    []int
	Score     float64
	Truncated bool
	// State is the constraint state after the last token.
	State int
}

type hypothesis struct {
	tokens  []int
	members []member
	state   int
}

func (h *hypothesis) extend(c Constraint, token int) *hypothesis {
	return &hypothesis{
		tokens:  append(slices.Clip(h.tokens), token),
		members: advanceMembers(h.members, token),
		state:   c.Next(h.state, token),
	}
}

// distribution returns the tokens allowed after h and their fused log probabilities,
// renormalized over that set.
func (d *Decoder) distribution(h *hypothesis) ([]int, []float64) {
	allowed := d.constraint.Allowed(h.state)
	dists := make([][]float64, len(h.members))
	for i, m := range h.members {
		full := m.model.LogProbs(m.state)
		if allowed == nil {
			allowed = make([]int, len(full))
			for t := range allowed {
				allowed[t] = t
			}
		}
		dist := make([]float64, len(allowed))
		for j, t := range allowed {
			if t < len(full) {
				dist[j] = full[t]
			} else {
				dist[j] = math.Inf(-1)
			}
		}
		Normalize(dist)
		dists[i] = dist
	}
	return allowed, Fuse(dists)
}

// Decode runs beam search over source and returns up to K completed outputs, best
// first. An empty result is reported as ErrNoHypotheses.
func (d *Decoder) Decode(source []int) ([]Result, error) {
	members, err := startMembers(d.models, source)
	if err != nil {
		return nil, err
	}

	top := kbest.New[*hypothesis](d.beamSize)
	top.Add(0, &hypothesis{members: members, state: d.constraint.Start()})
	completed := kbest.New[Result](d.kbestSize)
	margin := max(d.lengthBonus, 0)

	for step := 0; step < d.maxLength && top.Len() > 0; step++ {
		next := kbest.New[*hypothesis](d.beamSize)
		beam := top.Sorted()
		for i, s := range beam {
			if completed.Len() >= d.kbestSize && s.Score < completed.WorstScore()-margin {
				earlyStoppedTotal.Add(float64(len(beam) - i))
				log.Debugf("step %d: stopping after %d of %d hypotheses", step, i, len(beam))
				break
			}
			expandedTotal.Inc()

			tokens, dist := d.distribution(s.Item)
			candidates := kbest.New[int](d.beamSize)
			for j, t := range tokens {
				candidates.Add(dist[j], t)
			}

			for _, c := range candidates.Sorted() {
				child := s.Item.extend(d.constraint, c.Item)
				score := s.Score + c.Score + d.lengthBonus
				done := d.constraint.Complete(child.state)
				if !done && step+1 < d.maxLength {
					next.Add(score, child)
					continue
				}
				if !done {
					completedTotal.WithLabelValues(ReasonTruncated).Inc()
					if d.truncation == DropTruncated {
						continue
					}
				} else {
					completedTotal.WithLabelValues(ReasonComplete).Inc()
				}
				completed.Add(score, Result{Tokens: child.tokens, Score: score, Truncated: !done, State: child.state})
			}
		}
		log.Debugf("step %d: %d open, %d completed", step, next.Len(), completed.Len())
		top = next
	}

	if completed.Len() == 0 {
		exhaustedTotal.Inc()
		return nil, fmt.Errorf("decode source of length %d: %w", len(source), ErrNoHypotheses)
	}
	sorted := completed.Sorted()
	results := make([]Result, len(sorted))
	for i, s := range sorted {
		results[i] = s.Item
	}
	return results, nil
}
