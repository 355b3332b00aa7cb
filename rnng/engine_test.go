package rnng

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/treebeam/action"
)

// bracketComposer renders representations as bracketed strings so tests can read the
// tree back off the stack.
type bracketComposer struct {
	words  []string
	labels []string
}

func (c bracketComposer) Guard() string                 { return "<guard>" }
func (c bracketComposer) EmbedTerminal(w int) string    { return c.words[w] }
func (c bracketComposer) EmbedNonterminal(l int) string { return "(" + c.labels[l] }
func (c bracketComposer) Compose(l int, children []string) string {
	return "(" + c.labels[l] + " " + strings.Join(children, " ") + ")"
}

var testComposer = bracketComposer{
	words:  []string{"w0", "w1", "w2"},
	labels: []string{"S", "VP"},
}

func recoverInvariant(t *testing.T, fn func()) *InvariantError {
	t.Helper()
	var got *InvariantError
	func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			require.True(t, ok, "expected panic with error, got %v", r)
			require.True(t, errors.As(err, &got))
		}()
		fn()
	}()
	return got
}

func TestNewSentence(t *testing.T) {
	e := NewEngine[string](testComposer, 2)
	h := e.NewSentence()
	st := e.State(h)

	assert.Equal(t, []string{"<guard>"}, st.Stack)
	assert.Equal(t, []int{-1}, st.OpenParen)
	assert.Equal(t, 0, st.OpenCount)
	assert.Equal(t, action.None, st.Prev.Kind)
	assert.False(t, e.IsDone(h))
	assert.Equal(t, []int{2, 3}, e.ValidActions(h), "only NT may start a tree")
}

func TestThreeWordSentence(t *testing.T) {
	e := NewEngine[string](testComposer, 2)
	actions := []action.Action{
		action.NTOf(0),
		action.ShiftOf(0),
		action.ShiftOf(1),
		action.NTOf(1),
		action.ShiftOf(2),
		action.ReduceOf(),
		action.ReduceOf(),
	}

	h := e.NewSentence()
	for i, a := range actions {
		require.False(t, e.IsDone(h), "done before action %d", i)
		h = e.PerformAction(h, a)
	}

	st := e.State(h)
	assert.Len(t, st.Stack, 2)
	assert.True(t, e.IsDone(h))
	assert.Equal(t, 0, st.OpenCount)
	assert.Equal(t, "(S w0 w1 (VP w2))", st.Stack[1])
	assert.Equal(t, []int{0, 1, 2}, st.Terms)
	assert.Equal(t, actions, e.History(h))
	assert.Empty(t, e.ValidActions(h))
}

func TestValidActionsOrdering(t *testing.T) {
	e := NewEngine[string](testComposer, 2)
	h := e.NewSentence()
	h = e.PerformAction(h, action.NTOf(0))
	assert.Equal(t, []int{0, 2, 3}, e.ValidActions(h), "no Reduce right after NT")

	h = e.PerformAction(h, action.ShiftOf(0))
	assert.Equal(t, []int{0, 1, 2, 3}, e.ValidActions(h))
}

func TestPerformActionDoesNotMutateParent(t *testing.T) {
	e := NewEngine[string](testComposer, 2)
	h := e.NewSentence()
	h = e.PerformAction(h, action.NTOf(0))
	h = e.PerformAction(h, action.ShiftOf(0))
	before := e.State(h)
	stackBefore := append([]string(nil), before.Stack...)
	parenBefore := append([]int(nil), before.OpenParen...)

	shifted := e.PerformAction(h, action.ShiftOf(1))
	opened := e.PerformAction(h, action.NTOf(1))
	reduced := e.PerformAction(h, action.ReduceOf())

	assert.Equal(t, stackBefore, e.State(h).Stack)
	assert.Equal(t, parenBefore, e.State(h).OpenParen)
	assert.Equal(t, []string{"<guard>", "(S", "w0", "w1"}, e.State(shifted).Stack)
	assert.Equal(t, []string{"<guard>", "(S", "w0", "(VP"}, e.State(opened).Stack)
	assert.Equal(t, []string{"<guard>", "(S w0)"}, e.State(reduced).Stack)
	assert.Equal(t, []int{-1, 0, -1, 1}, e.State(opened).OpenParen)
	assert.Equal(t, h, e.State(opened).Parent)
}

func TestForbiddenActionPanics(t *testing.T) {
	tests := []struct {
		name    string
		prefix  []action.Action
		illegal action.Action
	}{
		{"shift on empty stack", nil, action.ShiftOf(0)},
		{"reduce on empty stack", nil, action.ReduceOf()},
		{"reduce after nt", []action.Action{action.NTOf(0)}, action.ReduceOf()},
		{"shift after done", []action.Action{action.NTOf(0), action.ShiftOf(0), action.ReduceOf()}, action.ShiftOf(1)},
		{"unknown label", nil, action.NTOf(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine[string](testComposer, 2)
			h := e.NewSentence()
			for _, a := range tt.prefix {
				h = e.PerformAction(h, a)
			}
			err := recoverInvariant(t, func() { e.PerformAction(h, tt.illegal) })
			assert.Equal(t, h, err.Handle)
		})
	}
}

func TestMaxOpenNTs(t *testing.T) {
	e := NewEngine[struct{}](Structure{}, 1)
	h := e.NewSentence()
	for i := 0; i < MaxOpenNTs; i++ {
		require.False(t, e.IsForbidden(h, action.NT), "NT %d", i)
		h = e.PerformAction(h, action.NTOf(0))
	}
	assert.Equal(t, MaxOpenNTs, e.State(h).OpenCount)
	assert.True(t, e.IsForbidden(h, action.NT))
	assert.Equal(t, []int{action.ShiftIndex}, e.ValidActions(h))
}

func TestRandomValidSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := NewEngine[string](testComposer, 2)

	for trial := 0; trial < 200; trial++ {
		h := e.NewSentence()
		var prev action.Action
		for step := 0; step < 300 && !e.IsDone(h); step++ {
			valid := e.ValidActions(h)
			require.NotEmpty(t, valid)

			idx := valid[rng.Intn(len(valid))]
			// Lean towards closing constituents so walks terminate.
			if step > 20 && !e.IsForbidden(h, action.Reduce) {
				idx = action.ReduceIndex
			}
			a := action.FromIndex(idx)
			if a.Kind == action.Shift {
				a.Arg = rng.Intn(3)
			}

			if step == 0 {
				assert.Equal(t, action.NT, a.Kind, "first action must be NT")
			}
			if prev.Kind == action.NT {
				assert.NotEqual(t, action.Reduce, a.Kind, "NT followed by Reduce")
			}

			h = e.PerformAction(h, a)
			prev = a

			st := e.State(h)
			assert.GreaterOrEqual(t, len(st.Stack), 1)
			assert.Equal(t, len(st.Stack), len(st.OpenParen))
			assert.LessOrEqual(t, st.OpenCount, MaxOpenNTs)
			if e.IsDone(h) {
				assert.Len(t, st.Stack, 2, "done state holds guard and root")
			}
		}
	}
}

func TestReplay(t *testing.T) {
	e := NewEngine[string](testComposer, 2)
	h, err := e.Replay([]action.Action{action.NTOf(0), action.ShiftOf(2), action.ReduceOf()})
	require.NoError(t, err)
	assert.True(t, e.IsDone(h))
	assert.Equal(t, "(S w2)", e.State(h).Stack[1])
}

func TestReplayErrors(t *testing.T) {
	tests := []struct {
		name    string
		actions []action.Action
		step    int
		reason  string
	}{
		{"starts with shift", []action.Action{action.ShiftOf(0)}, 0, "forbidden"},
		{"reduce after nt", []action.Action{action.NTOf(0), action.ReduceOf()}, 1, "forbidden"},
		{"after completion", []action.Action{action.NTOf(0), action.ShiftOf(0), action.ReduceOf(), action.NTOf(1)}, 3, "complete"},
		{"unknown label", []action.Action{action.NTOf(5)}, 0, "unknown nonterminal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine[string](testComposer, 2)
			_, err := e.Replay(tt.actions)
			var replayErr *ReplayError
			require.True(t, errors.As(err, &replayErr), "got %v", err)
			assert.Equal(t, tt.step, replayErr.Step)
			assert.Contains(t, replayErr.Reason, tt.reason)
		})
	}
}

func TestStoreGetOutOfRange(t *testing.T) {
	s := NewStore[int]()
	s.Add(State[int]{})
	err := recoverInvariant(t, func() { s.Get(3) })
	assert.Equal(t, "get", err.Op)
}
