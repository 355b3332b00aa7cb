package treebank

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/treebeam/action"
	"github.com/dhamidi/treebeam/rnng"
)

func TestLexer(t *testing.T) {
	lx, err := NewLexer([]byte("(S (NP the\tdog)\n barks)"), "t.tree")
	require.NoError(t, err)
	tokens, err := lx.Tokenize()
	require.NoError(t, err)

	var kinds, literals []string
	for _, tok := range tokens {
		if tok.Kind == KindSpace {
			continue
		}
		kinds = append(kinds, tok.Kind)
		literals = append(literals, tok.Literal)
	}
	assert.Equal(t, []string{"LParen", "Word", "LParen", "Word", "Word", "Word", "RParen", "Word", "RParen", "EOF"}, kinds)
	assert.Equal(t, []string{"(", "S", "(", "NP", "the", "dog", ")", "barks", ")", ""}, literals)

	barks := tokens[len(tokens)-3]
	assert.Equal(t, "barks", barks.Literal)
	assert.Equal(t, 2, barks.Position.Line)
	assert.Equal(t, 2, barks.Position.Column)
	assert.Equal(t, "t.tree:2:2", barks.Position.String())
}

func TestLexerSpaceRuns(t *testing.T) {
	lx, err := NewLexer([]byte("a  \t b"), "")
	require.NoError(t, err)
	tokens, err := lx.Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, KindSpace, tokens[1].Kind)
	assert.Equal(t, "  \t ", tokens[1].Literal)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "(S (NP the dog) (VP barks))", "(S (NP the dog) (VP barks))"},
		{"extra space", "  (S   a\n b )  ", "(S a b)"},
		{"unlabeled root", "( (S (NP I) (VP run)) )", "(S (NP I) (VP run))"},
		{"punctuation words", "(S (, ,) (. .))", "(S (, ,) (. .))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse("", []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"bare word", "dog", "expected \"(\""},
		{"unclosed", "(S (NP the dog)", "end of input"},
		{"trailing", "(S a) b", "after tree"},
		{"empty constituent", "(S (NP) a)", "empty constituent"},
		{"extra paren", "(S a))", "after tree"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("x", []byte(tt.input))
			var syn *SyntaxError
			require.True(t, errors.As(err, &syn), "got %v", err)
			assert.Contains(t, syn.Message, tt.msg)
		})
	}
}

func TestParseSpans(t *testing.T) {
	n, err := Parse("", []byte("(S a\n(NP b))"))
	require.NoError(t, err)
	assert.Equal(t, 1, n.Span.Start.Line)
	assert.Equal(t, 2, n.Span.End.Line)
	np := n.Children[1]
	assert.Equal(t, 2, np.Span.Start.Line)
	assert.Equal(t, 1, np.Span.Start.Column)
}

func TestOracle(t *testing.T) {
	n, err := Parse("", []byte("(S (NP (DT the) (NN dog)) (VP barks))"))
	require.NoError(t, err)

	actions := Oracle(n)
	assert.Equal(t, "NT(S) NT(NP) NT(DT) SHIFT(the) REDUCE NT(NN) SHIFT(dog) REDUCE REDUCE NT(VP) SHIFT(barks) REDUCE REDUCE",
		strings.Join(actions, " "))

	collapsed := CollapseUnary(actions)
	assert.Equal(t, "NT(S) NT(NP) SHIFT(the) SHIFT(dog) REDUCE SHIFT(barks) REDUCE", strings.Join(collapsed, " "))
	assert.Len(t, actions, 13, "input untouched")
}

func TestCollapseUnaryNested(t *testing.T) {
	in := strings.Fields("NT(S) NT(A) NT(B) SHIFT(w) REDUCE REDUCE SHIFT(x) REDUCE")
	assert.Equal(t, strings.Fields("NT(S) SHIFT(w) SHIFT(x) REDUCE"), CollapseUnary(in))
}

func TestFromActions(t *testing.T) {
	n, err := FromActions(strings.Fields("NT(S) NT(NP) SHIFT(the) SHIFT(dog) REDUCE SHIFT(barks) REDUCE"))
	require.NoError(t, err)
	assert.Equal(t, "(S (NP the dog) barks)", n.String())
	assert.Equal(t, []string{"the", "dog", "barks"}, n.Words())
}

func TestFromActionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		actions string
		msg     string
	}{
		{"shift first", "SHIFT(a)", "no open nonterminal"},
		{"unbalanced", "NT(S) SHIFT(a)", "incomplete tree"},
		{"extra reduce", "NT(S) SHIFT(a) REDUCE REDUCE", "already complete"},
		{"empty", "NT(S) REDUCE", "empty constituent"},
		{"garbage", "NT(S) JUMP", "invalid action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromActions(strings.Fields(tt.actions))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRemoveUnaryChains(t *testing.T) {
	n, err := Parse("", []byte("(TOP (S (NP (NN dogs)) (VP (VBP bark))))"))
	require.NoError(t, err)
	got := RemoveUnaryChains(n)
	assert.Equal(t, "(TOP dogs bark)", got.String())
	assert.Equal(t, "(TOP (S (NP (NN dogs)) (VP (VBP bark))))", n.String(), "input untouched")
}

// Replaying an oracle through the engine must rebuild the same bracketing.
func TestOracleReplayRoundTrip(t *testing.T) {
	trees := []string{
		"(S (NP the dog) (VP barks))",
		"(S (NP (NP the dog) (PP of (NP the house))) (VP saw (NP it)) .)",
		"(X a)",
		"(S (S (S a b) c) d)",
	}
	for _, src := range trees {
		t.Run(src, func(t *testing.T) {
			tree, err := Parse("", []byte(src))
			require.NoError(t, err)
			oracle := Oracle(tree)

			v, err := action.NewVocabulary(uniq(oracle))
			require.NoError(t, err)
			actions, err := v.ParseSequence(strings.Join(oracle, " "))
			require.NoError(t, err)

			e := rnng.NewEngine[*Node](NewComposer(v.Terminals(), v.Labels()), v.NTCount())
			h, err := e.Replay(actions)
			require.NoError(t, err)
			require.True(t, e.IsDone(h))

			st := e.State(h)
			require.Len(t, st.Stack, 2)
			assert.Equal(t, tree.String(), st.Stack[1].String())
			assert.Equal(t, tree.Words(), v.Terminals().Words(st.Terms))

			back, err := FromActions(oracle)
			require.NoError(t, err)
			assert.Equal(t, tree.String(), back.String())
		})
	}
}

func uniq(entries []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
