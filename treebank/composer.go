package treebank

import (
	"github.com/dhamidi/treebeam/rnng"
	"github.com/dhamidi/treebeam/vocab"
)

// Composer builds Nodes on the parser stack, so the completed state of an engine
// holds the tree its actions describe.
type Composer struct {
	Terms  *vocab.Dict
	Labels *vocab.Dict
}

var _ rnng.Composer[*Node] = Composer{}

// NewComposer names terminals and labels with the given dictionaries.
func NewComposer(terms, labels *vocab.Dict) Composer {
	return Composer{Terms: terms, Labels: labels}
}

// Guard returns nil; the guard never becomes part of a tree.
func (c Composer) Guard() *Node { return nil }

func (c Composer) EmbedTerminal(word int) *Node {
	return NewLeaf(name(c.Terms, word))
}

func (c Composer) EmbedNonterminal(label int) *Node {
	return NewNonTerminal(name(c.Labels, label))
}

func (c Composer) Compose(label int, children []*Node) *Node {
	n := NewNonTerminal(name(c.Labels, label))
	for _, child := range children {
		n.AddChild(child)
	}
	return n
}

func name(d *vocab.Dict, id int) string {
	w, err := d.Word(id)
	if err != nil {
		return vocab.UNK
	}
	return w
}
