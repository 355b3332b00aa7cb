// Package action defines parser actions and the bijection between actions and the
// flat token ids a scorer predicts over.
package action

import "fmt"

type Kind uint8

const (
	None Kind = iota
	Shift
	Reduce
	NT
)

func (k Kind) String() string {
	switch k {
	case None:
		return "NONE"
	case Shift:
		return "SHIFT"
	case Reduce:
		return "REDUCE"
	case NT:
		return "NT"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Action is an immutable parser operation. Arg holds the terminal id for Shift and the
// nonterminal label id for NT; it is zero otherwise.
type Action struct {
	Kind Kind
	Arg  int
}

// Indices of the action kinds within a valid-action list. Nonterminal i sits at
// FirstNTIndex+i.
const (
	ShiftIndex   = 0
	ReduceIndex  = 1
	FirstNTIndex = 2
)

func ShiftOf(word int) Action {
	return Action{Kind: Shift, Arg: word}
}

func NTOf(label int) Action {
	return Action{Kind: NT, Arg: label}
}

func ReduceOf() Action {
	return Action{Kind: Reduce}
}

// Index returns the position of the action's kind in a valid-action list: Shift is 0,
// Reduce is 1 and NT(i) is 2+i. It panics for None.
func (a Action) Index() int {
	switch a.Kind {
	case Shift:
		return ShiftIndex
	case Reduce:
		return ReduceIndex
	case NT:
		return FirstNTIndex + a.Arg
	default:
		panic(fmt.Sprintf("action: no index for %s", a.Kind))
	}
}

// FromIndex is the inverse of Index. Shift indices carry no terminal, so the returned
// Shift has Arg 0.
func FromIndex(i int) Action {
	switch {
	case i == ShiftIndex:
		return Action{Kind: Shift}
	case i == ReduceIndex:
		return Action{Kind: Reduce}
	case i >= FirstNTIndex:
		return NTOf(i - FirstNTIndex)
	default:
		panic(fmt.Sprintf("action: invalid index %d", i))
	}
}

func (a Action) String() string {
	switch a.Kind {
	case Shift:
		return fmt.Sprintf("SHIFT(%d)", a.Arg)
	case NT:
		return fmt.Sprintf("NT(%d)", a.Arg)
	default:
		return a.Kind.String()
	}
}
