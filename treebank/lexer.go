// Package treebank reads bracketed constituency trees and converts them to and from
// the top-down action sequences a transition parser consumes.
package treebank

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/exp/ebnf"
)

// tokenGrammar lists the token kinds of a bracketed tree. Uppercase productions are
// tokens; anything no token matches is part of a Word.
const tokenGrammar = `
Input  = { LParen | RParen | Space } .
LParen = "(" .
RParen = ")" .
Space  = blank { blank } .
blank  = " " | "\t" | "\n" | "\r" .
`

// Token kinds.
const (
	KindLParen = "LParen"
	KindRParen = "RParen"
	KindSpace  = "Space"
	KindWord   = "Word"
	KindEOF    = "EOF"
)

// Position represents a location in the input.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token with its position.
type Token struct {
	Kind     string
	Literal  string
	Position Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

// Lexer splits bracketed tree text into tokens.
type Lexer struct {
	rules []tokenRule
	input []byte
	pos   Position
}

// NewLexer creates a lexer for input.
func NewLexer(input []byte, filename string) (*Lexer, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	return &Lexer{
		rules: rules,
		input: input,
		pos:   Position{Filename: filename, Line: 1, Column: 1},
	}, nil
}

// Position returns the current position in the input.
func (l *Lexer) Position() Position {
	return l.pos
}

func (l *Lexer) skip(n int) {
	for _, b := range l.input[l.pos.Offset : l.pos.Offset+n] {
		if b == '\n' {
			l.pos.Line++
			l.pos.Column = 1
		} else {
			l.pos.Column++
		}
	}
	l.pos.Offset += n
}

// match returns the kind and length of the longest token at off, or a length of
// zero when no token starts there. Rules are sorted, so the first of equally long
// matches wins.
func (l *Lexer) match(off int) (string, int) {
	var kind string
	var length int
	for _, r := range l.rules {
		if n := r.match(l.input, off); n > length {
			kind, length = r.kind, n
		}
	}
	return kind, length
}

// NextToken returns the next token, or an EOF token together with io.EOF.
func (l *Lexer) NextToken() (Token, error) {
	start := l.pos
	if start.Offset >= len(l.input) {
		return Token{Kind: KindEOF, Position: start}, io.EOF
	}

	kind, n := l.match(start.Offset)
	if n == 0 {
		kind = KindWord
		for end := start.Offset; end < len(l.input); end++ {
			if _, m := l.match(end); m > 0 {
				break
			}
			n++
		}
	}
	l.skip(n)
	return Token{Kind: kind, Literal: string(l.input[start.Offset : start.Offset+n]), Position: start}, nil
}

// Tokenize reads all tokens, the final one being EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		tokens = append(tokens, tok)
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
	}
}

// matchFunc returns the number of bytes an expression matches at off, or -1.
type matchFunc func(input []byte, off int) int

type tokenRule struct {
	kind  string
	match matchFunc
}

// loadRules compiles the uppercase productions of tokenGrammar, ordered by name.
var loadRules = sync.OnceValues(func() ([]tokenRule, error) {
	g, err := ebnf.Parse("tree.ebnf", strings.NewReader(tokenGrammar))
	if err != nil {
		return nil, fmt.Errorf("parse token grammar: %w", err)
	}
	if err := ebnf.Verify(g, "Input"); err != nil {
		return nil, fmt.Errorf("verify token grammar: %w", err)
	}

	c := &compiler{grammar: g, prods: make(map[string]matchFunc)}
	var rules []tokenRule
	for _, name := range slices.Sorted(maps.Keys(g)) {
		if name == "Input" || !unicode.IsUpper(rune(name[0])) {
			continue
		}
		rules = append(rules, tokenRule{kind: name, match: c.production(name)})
	}
	return rules, nil
})

type compiler struct {
	grammar ebnf.Grammar
	prods   map[string]matchFunc
}

func noMatch([]byte, int) int { return -1 }

// production compiles the named production once. The entry is registered before
// its body is compiled so recursive references resolve.
func (c *compiler) production(name string) matchFunc {
	if f, ok := c.prods[name]; ok {
		return f
	}
	var body matchFunc
	c.prods[name] = func(input []byte, off int) int { return body(input, off) }
	body = noMatch
	if prod, ok := c.grammar[name]; ok && prod.Expr != nil {
		body = c.compile(prod.Expr)
	}
	return c.prods[name]
}

func (c *compiler) compile(expr ebnf.Expression) matchFunc {
	switch e := expr.(type) {
	case *ebnf.Token:
		lit := []byte(e.String)
		return func(input []byte, off int) int {
			if len(lit) > 0 && bytes.HasPrefix(input[off:], lit) {
				return len(lit)
			}
			return -1
		}

	case ebnf.Sequence:
		parts := make([]matchFunc, len(e))
		for i, item := range e {
			parts[i] = c.compile(item)
		}
		return func(input []byte, off int) int {
			total := 0
			for _, part := range parts {
				n := part(input, off+total)
				if n < 0 {
					return -1
				}
				total += n
			}
			return total
		}

	case ebnf.Alternative:
		alts := make([]matchFunc, len(e))
		for i, alt := range e {
			alts[i] = c.compile(alt)
		}
		return func(input []byte, off int) int {
			best := -1
			for _, alt := range alts {
				best = max(best, alt(input, off))
			}
			return best
		}

	case *ebnf.Repetition:
		body := c.compile(e.Body)
		return func(input []byte, off int) int {
			total := 0
			for {
				n := body(input, off+total)
				if n <= 0 {
					return total
				}
				total += n
			}
		}

	case *ebnf.Option:
		body := c.compile(e.Body)
		return func(input []byte, off int) int {
			return max(body(input, off), 0)
		}

	case *ebnf.Group:
		return c.compile(e.Body)

	case *ebnf.Name:
		return c.production(e.String)

	default:
		return noMatch
	}
}
