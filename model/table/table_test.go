package table

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/treebeam/search"
)

const dogYAML = `
vocabulary: ["</s>", the, dog, barks]
floor: 0
transitions:
  <s>: {the: 1}
  the: {dog: 0.8, barks: 0.2}
  dog: {barks: 0.7, </s>: 0.3}
  barks: {</s>: 1}
`

func loadDog(t *testing.T) *Model {
	t.Helper()
	m, err := Load(strings.NewReader(dogYAML))
	require.NoError(t, err)
	return m
}

func TestLogProbs(t *testing.T) {
	m := loadDog(t)
	st, err := m.Start([]int{0, 1, 2})
	require.NoError(t, err)

	start := m.LogProbs(st)
	assert.Equal(t, 0.0, start[1])
	assert.True(t, math.IsInf(start[0], -1))

	st = m.Advance(st, 1)
	lp := m.LogProbs(st)
	assert.InDelta(t, math.Log(0.8), lp[2], 1e-12)
	assert.InDelta(t, math.Log(0.2), lp[3], 1e-12)
}

func TestFloorAndNormalization(t *testing.T) {
	m, err := New(File{
		Vocabulary:  []string{"</s>", "a"},
		Floor:       0.5,
		Transitions: map[string]map[string]float64{"<s>": {"a": 1.5}},
	})
	require.NoError(t, err)
	st, _ := m.Start(nil)
	lp := m.LogProbs(st)
	assert.InDelta(t, 0.25, math.Exp(lp[0]), 1e-12)
	assert.InDelta(t, 0.75, math.Exp(lp[1]), 1e-12)

	// No row for "a": uniform.
	lp = m.LogProbs(m.Advance(st, 1))
	assert.InDelta(t, 0.5, math.Exp(lp[0]), 1e-12)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"empty vocabulary", "vocabulary: []\n", "invalid table model"},
		{"duplicate token", "vocabulary: [a, a]\n", "invalid table model"},
		{"negative probability", "vocabulary: [a]\ntransitions:\n  a: {a: -1}\n", "invalid table model"},
		{"floor above one", "vocabulary: [a]\nfloor: 2\n", "invalid table model"},
		{"unknown previous", "vocabulary: [a]\ntransitions:\n  b: {a: 1}\n", "unknown previous token"},
		{"unknown next", "vocabulary: [a]\ntransitions:\n  a: {b: 1}\n", "unknown token"},
		{"unknown field", "vocabulary: [a]\nbeam: 3\n", "decode table model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAlignment(t *testing.T) {
	m := loadDog(t)
	st, _ := m.Start([]int{5, 6, 7})

	w := m.Alignment(st)
	require.Len(t, w, 3)
	assert.Greater(t, w[0], w[1])
	assert.Greater(t, w[1], w[2])
	assert.InDelta(t, 1.0, w[0]+w[1]+w[2], 1e-12)

	// Past the end of the source the last position stays in focus.
	for i := 0; i < 5; i++ {
		st = m.Advance(st, 1)
	}
	w = m.Alignment(st)
	assert.Greater(t, w[2], w[1])

	empty, _ := m.Start(nil)
	assert.Empty(t, m.Alignment(empty))
}

func TestDecodeWithTable(t *testing.T) {
	m := loadDog(t)
	eos, ok := m.Vocabulary().Lookup("</s>")
	require.True(t, ok)

	d, err := search.NewDecoder([]search.Model{m}, eos, search.WithBeamSize(3), search.WithKBestSize(2))
	require.NoError(t, err)
	results, err := d.Decode([]int{0, 1})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"the", "dog", "barks", "</s>"}, m.Vocabulary().Words(results[0].Tokens))
	assert.InDelta(t, math.Log(0.8*0.7), results[0].Score, 1e-9)
	assert.Equal(t, []string{"the", "dog", "</s>"}, m.Vocabulary().Words(results[1].Tokens))

	a, err := d.ForceDecode([]int{0, 1}, results[0].Tokens)
	require.NoError(t, err)
	assert.InDelta(t, -results[0].Score, a.Loss(), 1e-9)
	require.Len(t, a.Weights, 4)
	assert.Greater(t, a.Weights[1][1], a.Weights[1][0])
}

func TestStateOutOfRangePanics(t *testing.T) {
	m := loadDog(t)
	m.Start(nil)
	assert.Panics(t, func() { m.LogProbs(9) })
}
