package rnng

import (
	"slices"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/treebeam/action"
)

var log = commonlog.GetLogger("treebeam.rnng")

// Composer produces the representations the engine keeps on its stack.
type Composer[R any] interface {
	// Guard returns the stack guard sentinel.
	Guard() R
	EmbedTerminal(word int) R
	EmbedNonterminal(label int) R
	// Compose builds the representation of a closed constituent from its children,
	// given in left-to-right order.
	Compose(label int, children []R) R
}

// Structure is a Composer without representations. An engine built on it tracks only
// the shape of the tree, which is all that action validity depends on.
type Structure struct{}

func (Structure) Guard() struct{}                  { return struct{}{} }
func (Structure) EmbedTerminal(int) struct{}       { return struct{}{} }
func (Structure) EmbedNonterminal(int) struct{}    { return struct{}{} }
func (Structure) Compose(int, []struct{}) struct{} { return struct{}{} }

// Engine applies actions to states held in its Store.
type Engine[R any] struct {
	store    *Store[R]
	composer Composer[R]
	ntCount  int
}

// NewEngine returns an engine over ntCount nonterminal labels.
func NewEngine[R any](c Composer[R], ntCount int) *Engine[R] {
	return &Engine[R]{
		store:    NewStore[R](),
		composer: c,
		ntCount:  ntCount,
	}
}

// NewSentence discards all states and returns the initial state: only the guard on the
// stack, nothing open, no previous action.
func (e *Engine[R]) NewSentence() Handle {
	e.store.Reset()
	return e.store.Add(State[R]{
		Stack:     []R{e.composer.Guard()},
		OpenParen: []int{closed},
		Prev:      action.Action{Kind: action.None},
		Parent:    NoParent,
	})
}

// State returns the state at h.
func (e *Engine[R]) State(h Handle) State[R] {
	return e.store.Get(h)
}

// Len is the number of states created since the last NewSentence.
func (e *Engine[R]) Len() int {
	return e.store.Len()
}

func (e *Engine[R]) NTCount() int {
	return e.ntCount
}

// IsForbidden reports whether an action of kind k may not be applied at h.
func (e *Engine[R]) IsForbidden(h Handle, k action.Kind) bool {
	st := e.store.Get(h)
	return forbidden(&st, k)
}

func forbidden[R any](st *State[R], k action.Kind) bool {
	switch k {
	case action.Shift, action.Reduce, action.NT:
	default:
		return true
	}

	if k == action.NT && st.OpenCount >= MaxOpenNTs {
		return true
	}
	// Only NT may start a tree.
	if len(st.Stack) == 1 {
		return k != action.NT
	}
	// A finished tree takes no further actions.
	if done(st) {
		return true
	}
	// No reducing an empty constituent right after opening it.
	if k == action.Reduce && st.Prev.Kind == action.NT {
		return true
	}
	return false
}

// ValidActions lists the action indices legal at h: Shift (0), then Reduce (1), then
// NT(i) as 2+i for every label in id order.
func (e *Engine[R]) ValidActions(h Handle) []int {
	st := e.store.Get(h)
	var valid []int
	if !forbidden(&st, action.Shift) {
		valid = append(valid, action.ShiftIndex)
	}
	if !forbidden(&st, action.Reduce) {
		valid = append(valid, action.ReduceIndex)
	}
	if !forbidden(&st, action.NT) {
		for i := 0; i < e.ntCount; i++ {
			valid = append(valid, action.FirstNTIndex+i)
		}
	}
	return valid
}

// PerformAction applies a to the state at h and returns the handle of the new state.
// The state at h is left untouched. Applying a forbidden action panics with an
// *InvariantError.
func (e *Engine[R]) PerformAction(h Handle, a action.Action) Handle {
	parent := e.store.Get(h)
	if forbidden(&parent, a.Kind) {
		violate("perform", h, "%s is forbidden", a)
	}

	next := State[R]{
		OpenCount: parent.OpenCount,
		Prev:      a,
		Terms:     parent.Terms,
		Parent:    h,
	}

	// Clip before append: siblings derived from one parent must not share a backing array.
	switch a.Kind {
	case action.Shift:
		next.Stack = append(slices.Clip(parent.Stack), e.composer.EmbedTerminal(a.Arg))
		next.OpenParen = append(slices.Clip(parent.OpenParen), closed)
		next.Terms = append(slices.Clip(parent.Terms), a.Arg)

	case action.NT:
		if a.Arg < 0 || a.Arg >= e.ntCount {
			violate("perform", h, "nonterminal %d out of range [0, %d)", a.Arg, e.ntCount)
		}
		next.OpenCount++
		next.Stack = append(slices.Clip(parent.Stack), e.composer.EmbedNonterminal(a.Arg))
		next.OpenParen = append(slices.Clip(parent.OpenParen), a.Arg)

	case action.Reduce:
		if parent.Depth() < 2 {
			violate("reduce", h, "need at least 2 entries above the guard, have %d", parent.Depth())
		}
		open := lastOpen(parent.OpenParen)
		if open < 1 {
			violate("reduce", h, "no open nonterminal on the stack")
		}
		label := parent.OpenParen[open]
		children := slices.Clone(parent.Stack[open+1:])
		composed := e.composer.Compose(label, children)

		next.OpenCount--
		next.Stack = append(slices.Clone(parent.Stack[:open]), composed)
		next.OpenParen = append(slices.Clone(parent.OpenParen[:open]), closed)
	}

	return e.store.Add(next)
}

func lastOpen(openParen []int) int {
	for i := len(openParen) - 1; i >= 0; i-- {
		if openParen[i] != closed {
			return i
		}
	}
	return -1
}

// IsDone reports whether h holds a single completed tree above the guard.
func (e *Engine[R]) IsDone(h Handle) bool {
	st := e.store.Get(h)
	return done(&st)
}

func done[R any](st *State[R]) bool {
	return st.Prev.Kind != action.None && st.OpenCount == 0
}

// History returns the actions leading from the initial state to h.
func (e *Engine[R]) History(h Handle) []action.Action {
	var actions []action.Action
	for cur := h; cur != NoParent; {
		st := e.store.Get(cur)
		if st.Parent == NoParent {
			break
		}
		actions = append(actions, st.Prev)
		cur = st.Parent
	}
	slices.Reverse(actions)
	return actions
}

// Replay starts a new sentence and applies a reference action sequence to it. Unlike
// PerformAction it never panics: the first action that cannot be applied is reported
// as a *ReplayError.
func (e *Engine[R]) Replay(actions []action.Action) (Handle, error) {
	h := e.NewSentence()
	for i, a := range actions {
		if reason := e.check(h, a); reason != "" {
			log.Debugf("replay stopped at action %d (%s): %s", i, a, reason)
			return h, &ReplayError{Step: i, Action: a.String(), Reason: reason}
		}
		h = e.PerformAction(h, a)
	}
	return h, nil
}

func (e *Engine[R]) check(h Handle, a action.Action) string {
	st := e.store.Get(h)
	if forbidden(&st, a.Kind) {
		if done(&st) {
			return "tree is already complete"
		}
		return "forbidden in this state"
	}
	if a.Kind == action.NT && (a.Arg < 0 || a.Arg >= e.ntCount) {
		return "unknown nonterminal"
	}
	return ""
}
