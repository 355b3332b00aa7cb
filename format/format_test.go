package format

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dogs = NBest{
	Index: 3,
	Hypotheses: []Hypothesis{
		{Tokens: []string{"the", "dog", "barks"}, Score: -0.5},
		{Tokens: []string{"a", "dog"}, Score: -1.25, Truncated: true},
	},
}

func TestKBestEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewKBestEncoder(&buf).Encode(dogs))
	assert.Equal(t, "3 ||| the dog barks ||| -0.5\n3 ||| a dog ||| -1.25\n", buf.String())
}

func TestKBestEncoderCounts(t *testing.T) {
	var buf bytes.Buffer
	n := NBest{Index: 0, Hypotheses: []Hypothesis{{Tokens: []string{"x"}, Score: -2, Count: 7}}}
	require.NoError(t, NewKBestEncoder(&buf).WithCounts().Encode(n))
	assert.Equal(t, "0 ||| x ||| -2 ||| 7\n", buf.String())
}

func TestKBestEncoderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewKBestEncoder(&buf).Encode(NBest{Index: 1}))
	assert.Empty(t, buf.String())
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	n := dogs
	n.Hypotheses = append(n.Hypotheses, Hypothesis{Score: math.Inf(-1)})
	require.NoError(t, NewJSONEncoder(&buf).Encode(n))
	assert.JSONEq(t, `{"index":3,"hypotheses":[
		{"tokens":["the","dog","barks"],"score":-0.5},
		{"tokens":["a","dog"],"score":-1.25,"truncated":true},
		{"tokens":[],"score":null}
	]}`, buf.String())
}

func TestWriteAlignment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAlignment(&buf, [][]float64{{0.25, 0.75}, {1, 0}}))
	assert.Equal(t, "0.250000 0.750000\n1.000000 0.000000\n\n", buf.String())
}

func TestSplitParallel(t *testing.T) {
	tests := []struct {
		line   string
		source string
		target string
		ok     bool
	}{
		{"a b ||| c d", "a b", "c d", true},
		{"a b|||c", "a b", "c", true},
		{"no separator", "", "", false},
		{" ||| x", "", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			src, tgt, ok := SplitParallel(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.source, src)
			assert.Equal(t, tt.target, tgt)
		})
	}
}
