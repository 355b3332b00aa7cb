package treebank

import (
	"fmt"
	"io"
	"strings"
)

// Span represents a range in the input.
type Span struct {
	Start Position
	End   Position
}

// Node is a constituent. Leaves carry a Word; interior nodes carry a Label and
// Children.
type Node struct {
	Label    string
	Word     string
	Children []*Node
	Span     Span
}

// NewLeaf creates a terminal node.
func NewLeaf(word string) *Node {
	return &Node{Word: word}
}

// NewNonTerminal creates an interior node without children.
func NewNonTerminal(label string) *Node {
	return &Node{Label: label, Children: make([]*Node, 0)}
}

// IsTerminal returns true if this is a leaf node.
func (n *Node) IsTerminal() bool {
	return n.Children == nil && n.Label == ""
}

// AddChild appends a child node and updates the span.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
	if len(n.Children) == 1 && n.Span.Start.Line == 0 {
		n.Span.Start = child.Span.Start
	}
	if child.Span.End.Line != 0 {
		n.Span.End = child.Span.End
	}
}

// Words returns the terminals of the tree from left to right.
func (n *Node) Words() []string {
	var words []string
	var walk func(*Node)
	walk = func(n *Node) {
		if n.IsTerminal() {
			words = append(words, n.Word)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return words
}

// String renders the tree on one line, e.g. "(S (NP the dog) barks)".
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.IsTerminal() {
		sb.WriteString(n.Word)
		return
	}
	sb.WriteByte('(')
	sb.WriteString(n.Label)
	for _, c := range n.Children {
		sb.WriteByte(' ')
		c.write(sb)
	}
	sb.WriteByte(')')
}

// SyntaxError describes malformed tree input.
type SyntaxError struct {
	Position Position
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Position, e.Message)
}

type parser struct {
	tokens []Token
	pos    int
}

// Parse reads a single bracketed tree. A root without a label, as in "( (S ...) )",
// is unwrapped when it has exactly one child.
func Parse(filename string, input []byte) (*Node, error) {
	lx, err := NewLexer(input, filename)
	if err != nil {
		return nil, err
	}
	all, err := lx.Tokenize()
	if err != nil && err != io.EOF {
		return nil, err
	}

	p := &parser{}
	for _, tok := range all {
		if tok.Kind != KindSpace {
			p.tokens = append(p.tokens, tok)
		}
	}

	root, err := p.parseTree()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != KindEOF {
		return nil, &SyntaxError{Position: tok.Position, Message: fmt.Sprintf("unexpected %q after tree", tok.Literal)}
	}
	if root.Label == "" && len(root.Children) == 1 {
		root = root.Children[0]
	}
	return root, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != KindEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseTree() (*Node, error) {
	open := p.next()
	if open.Kind != KindLParen {
		return nil, &SyntaxError{Position: open.Position, Message: fmt.Sprintf("expected \"(\", got %s", describe(open))}
	}

	n := NewNonTerminal("")
	n.Span.Start = open.Position
	if tok := p.peek(); tok.Kind == KindWord {
		n.Label = p.next().Literal
	}

	for {
		tok := p.peek()
		switch tok.Kind {
		case KindRParen:
			p.next()
			n.Span.End = tok.Position
			n.Span.End.Offset++
			n.Span.End.Column++
			if len(n.Children) == 0 {
				return nil, &SyntaxError{Position: tok.Position, Message: fmt.Sprintf("empty constituent %q", n.Label)}
			}
			return n, nil
		case KindLParen:
			child, err := p.parseTree()
			if err != nil {
				return nil, err
			}
			n.AddChild(child)
		case KindWord:
			p.next()
			if n.Label == "" {
				return nil, &SyntaxError{Position: tok.Position, Message: fmt.Sprintf("word %q under unlabeled constituent", tok.Literal)}
			}
			leaf := NewLeaf(tok.Literal)
			leaf.Span = Span{Start: tok.Position, End: endOf(tok)}
			n.AddChild(leaf)
		default:
			return nil, &SyntaxError{Position: tok.Position, Message: fmt.Sprintf("unexpected %s inside %q", describe(tok), n.Label)}
		}
	}
}

func endOf(tok Token) Position {
	end := tok.Position
	end.Offset += len(tok.Literal)
	end.Column += len(tok.Literal)
	return end
}

func describe(tok Token) string {
	if tok.Kind == KindEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Literal)
}
