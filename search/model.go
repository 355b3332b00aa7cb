// Package search decodes output sequences from one or more scoring models: beam
// search with a bounded K-best result list, ancestral sampling, and teacher-forced
// scoring and alignment of a reference sequence.
//
// Models are opaque. The package only asks them for log distributions over their
// output vocabulary and to advance their state by one token. A Constraint restricts
// which tokens may follow and decides when an output is complete; TokenConstraint
// ends on an EOS token, ParserConstraint ends when the emitted parser actions form a
// complete tree.
package search

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("treebeam.search")

// StateID identifies a model's decoding state. Its meaning is private to the model.
type StateID int

// Model scores continuations of an output prefix.
type Model interface {
	// Start encodes source and returns the state preceding the first output token.
	Start(source []int) (StateID, error)
	// LogProbs returns the log distribution over the full output vocabulary at state.
	LogProbs(state StateID) []float64
	// Advance returns the state after emitting token at state. The old state stays
	// valid.
	Advance(state StateID, token int) StateID
}

// Aligner is implemented by models that attend over source positions.
type Aligner interface {
	// Alignment returns the attention weights over source positions used to predict
	// the token following state.
	Alignment(state StateID) []float64
}

// member is one model of the ensemble together with its state for a hypothesis.
type member struct {
	model Model
	state StateID
}

func startMembers(models []Model, source []int) ([]member, error) {
	members := make([]member, len(models))
	for i, m := range models {
		st, err := m.Start(source)
		if err != nil {
			return nil, fmt.Errorf("start model %d: %w", i, err)
		}
		members[i] = member{model: m, state: st}
	}
	return members, nil
}

func advanceMembers(members []member, token int) []member {
	next := make([]member, len(members))
	for i, m := range members {
		next[i] = member{model: m.model, state: m.model.Advance(m.state, token)}
	}
	return next
}
