// Package rnng implements the transition system of a recurrent neural network
// grammar: Shift, Reduce and NT(label) actions building a constituency tree on an
// explicit stack.
//
// States live in an append-only Store and are addressed by Handle. Applying an action
// never changes an existing state; it appends a successor. Search branches can
// therefore share ancestors freely.
//
// Representations of words and subtrees are opaque to this package. They are produced
// by a Composer supplied by the scorer and only moved around here.
package rnng

import "github.com/dhamidi/treebeam/action"

// MaxOpenNTs bounds the number of unmatched nonterminals: NT is forbidden once
// MaxOpenNTs are open.
const MaxOpenNTs = 100

// Handle addresses a state within a Store.
type Handle int

// NoParent marks the root state of a sentence.
const NoParent Handle = -1

// closed marks an OpenParen position that does not hold an unmatched nonterminal.
const closed = -1

// State is one parser configuration. Stack[0] is always the guard.
type State[R any] struct {
	Stack     []R
	OpenParen []int // closed (-1) or the label of the NT that opened the position
	OpenCount int
	Prev      action.Action
	Terms     []int // terminal ids shifted so far
	Parent    Handle
}

// Depth is the number of stack entries above the guard.
func (s *State[R]) Depth() int {
	return len(s.Stack) - 1
}

// Store is an append-only arena of states.
type Store[R any] struct {
	states []State[R]
}

func NewStore[R any]() *Store[R] {
	return &Store[R]{}
}

// Add appends st and returns its handle.
func (s *Store[R]) Add(st State[R]) Handle {
	s.states = append(s.states, st)
	return Handle(len(s.states) - 1)
}

// Get returns the state at h. The returned value shares slices with the stored state;
// callers must not modify them.
func (s *Store[R]) Get(h Handle) State[R] {
	if h < 0 || int(h) >= len(s.states) {
		violate("get", h, "handle out of range [0, %d)", len(s.states))
	}
	return s.states[h]
}

func (s *Store[R]) Len() int {
	return len(s.states)
}

// Reset drops every state. Handles issued before Reset are invalid afterwards.
func (s *Store[R]) Reset() {
	clear(s.states)
	s.states = s.states[:0]
}
