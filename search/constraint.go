package search

import (
	"fmt"
	"slices"

	"github.com/dhamidi/treebeam/action"
	"github.com/dhamidi/treebeam/rnng"
)

// Constraint restricts the output space of a decode. States are private to the
// constraint and threaded through the search alongside each hypothesis.
type Constraint interface {
	// Start resets the constraint for a new output and returns its initial state.
	Start() int
	// Allowed lists the tokens that may follow state in ascending order. Nil means
	// every token of the model vocabulary.
	Allowed(state int) []int
	// Next returns the state after emitting token, which must be allowed at state.
	Next(state, token int) int
	// Complete reports whether state ends an output.
	Complete(state int) bool
}

// TokenConstraint allows every token and completes once EOS is emitted.
type TokenConstraint struct {
	EOS int
}

const (
	tokenOpen = iota
	tokenEnded
)

func (c TokenConstraint) Start() int          { return tokenOpen }
func (c TokenConstraint) Allowed(int) []int   { return nil }
func (c TokenConstraint) Complete(s int) bool { return s == tokenEnded }

func (c TokenConstraint) Next(_, token int) int {
	if token == c.EOS {
		return tokenEnded
	}
	return tokenOpen
}

// ParserConstraint restricts the output to parser actions that keep the emitted
// sequence a valid tree prefix, and completes when the tree is done. It mirrors every
// hypothesis in a shadow transition engine that tracks tree shape only.
type ParserConstraint struct {
	engine *rnng.Engine[struct{}]
	vocab  *action.Vocabulary
	nts    []int // flat id of NT(i)
}

// NewParserConstraint builds a constraint over the actions of v.
func NewParserConstraint(v *action.Vocabulary) (*ParserConstraint, error) {
	c := &ParserConstraint{
		engine: rnng.NewEngine[struct{}](rnng.Structure{}, v.NTCount()),
		vocab:  v,
		nts:    make([]int, v.NTCount()),
	}
	for i := range c.nts {
		id, err := v.ToID(action.NTOf(i))
		if err != nil {
			return nil, fmt.Errorf("parser constraint: %w", err)
		}
		c.nts[i] = id
	}
	if len(v.IDsOfKind(action.Reduce)) == 0 {
		return nil, fmt.Errorf("parser constraint: %w", &action.LookupError{Op: "load", Entry: "REDUCE", Reason: "missing from vocabulary"})
	}
	if len(c.nts) == 0 {
		return nil, fmt.Errorf("parser constraint: %w", &action.LookupError{Op: "load", Entry: "NT(...)", Reason: "no nonterminals in vocabulary"})
	}
	return c, nil
}

// Start discards the states of any previous decode.
func (c *ParserConstraint) Start() int {
	return int(c.engine.NewSentence())
}

// Allowed is empty, not nil, once the tree is done.
func (c *ParserConstraint) Allowed(state int) []int {
	ids := make([]int, 0, c.vocab.Size())
	for _, idx := range c.engine.ValidActions(rnng.Handle(state)) {
		switch {
		case idx == action.ShiftIndex:
			ids = append(ids, c.vocab.IDsOfKind(action.Shift)...)
		case idx == action.ReduceIndex:
			ids = append(ids, c.vocab.IDsOfKind(action.Reduce)...)
		default:
			ids = append(ids, c.nts[idx-action.FirstNTIndex])
		}
	}
	slices.Sort(ids)
	return ids
}

// Next panics if token is not an action of the vocabulary or not allowed at state.
func (c *ParserConstraint) Next(state, token int) int {
	a, err := c.vocab.ToAction(token)
	if err != nil {
		panic(err)
	}
	return int(c.engine.PerformAction(rnng.Handle(state), a))
}

func (c *ParserConstraint) Complete(state int) bool {
	return c.engine.IsDone(rnng.Handle(state))
}

// Actions returns the actions emitted on the way to state.
func (c *ParserConstraint) Actions(state int) []action.Action {
	return c.engine.History(rnng.Handle(state))
}
