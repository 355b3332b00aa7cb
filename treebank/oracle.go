package treebank

import (
	"fmt"
	"strings"
)

// Action strings as they appear in action vocabularies and oracle files.
const (
	Reduce      = "REDUCE"
	shiftPrefix = "SHIFT("
	ntPrefix    = "NT("
)

// ShiftString returns the action string shifting word.
func ShiftString(word string) string { return shiftPrefix + word + ")" }

// NTString returns the action string opening label.
func NTString(label string) string { return ntPrefix + label + ")" }

// Oracle returns the top-down action sequence that builds n: NT(label) on entering an
// interior node, SHIFT(word) for every leaf, REDUCE on leaving an interior node.
func Oracle(n *Node) []string {
	var actions []string
	var walk func(*Node)
	walk = func(n *Node) {
		if n.IsTerminal() {
			actions = append(actions, ShiftString(n.Word))
			return
		}
		actions = append(actions, NTString(n.Label))
		for _, c := range n.Children {
			walk(c)
		}
		actions = append(actions, Reduce)
	}
	walk(n)
	return actions
}

// CollapseUnary rewrites every NT(X) SHIFT(w) REDUCE to SHIFT(w) until no such
// triple remains. Preterminals disappear this way. The input is not modified.
func CollapseUnary(actions []string) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a)
		// A collapse leaves SHIFT on top, which can complete an enclosing triple.
		for {
			n := len(out)
			if n < 3 || out[n-1] != Reduce || !isShift(out[n-2]) || !isNT(out[n-3]) {
				break
			}
			shift := out[n-2]
			out = append(out[:n-3], shift)
		}
	}
	return out
}

func isShift(a string) bool { return strings.HasPrefix(a, shiftPrefix) && strings.HasSuffix(a, ")") }
func isNT(a string) bool    { return strings.HasPrefix(a, ntPrefix) && strings.HasSuffix(a, ")") }

// FromActions rebuilds a tree from action strings. The sequence must open the root
// first and close it last.
func FromActions(actions []string) (*Node, error) {
	var stack []*Node
	var root *Node
	for i, a := range actions {
		if root != nil {
			return nil, fmt.Errorf("action %d (%s): tree is already complete", i, a)
		}
		switch {
		case a == Reduce:
			if len(stack) == 0 {
				return nil, fmt.Errorf("action %d: REDUCE without open nonterminal", i)
			}
			top := stack[len(stack)-1]
			if len(top.Children) == 0 {
				return nil, fmt.Errorf("action %d: REDUCE of empty constituent %q", i, top.Label)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = top
			} else {
				stack[len(stack)-1].AddChild(top)
			}
		case isNT(a):
			label := a[len(ntPrefix) : len(a)-1]
			if label == "" {
				return nil, fmt.Errorf("action %d: empty nonterminal label", i)
			}
			stack = append(stack, NewNonTerminal(label))
		case isShift(a):
			if len(stack) == 0 {
				return nil, fmt.Errorf("action %d (%s): no open nonterminal", i, a)
			}
			stack[len(stack)-1].AddChild(NewLeaf(a[len(shiftPrefix) : len(a)-1]))
		default:
			return nil, fmt.Errorf("action %d: invalid action %q", i, a)
		}
	}
	if root == nil {
		return nil, fmt.Errorf("incomplete tree: %d nonterminals still open", len(stack))
	}
	return root, nil
}

// RemoveUnaryChains returns a copy of n in which every chain of single-child nodes
// below the root is replaced by its lowest node, and a root whose only child is an
// interior node takes over that child's children.
func RemoveUnaryChains(n *Node) *Node {
	out := clone(n)
	removeUnary(out, true)
	return out
}

func removeUnary(n *Node, root bool) {
	for i := range n.Children {
		for len(n.Children[i].Children) == 1 {
			n.Children[i] = n.Children[i].Children[0]
		}
	}
	for _, c := range n.Children {
		removeUnary(c, false)
	}
	if root {
		for len(n.Children) == 1 && !n.Children[0].IsTerminal() {
			n.Children = n.Children[0].Children
		}
	}
}

func clone(n *Node) *Node {
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = clone(child)
		}
	}
	return &c
}
