// Package table implements a deterministic scoring model backed by a bigram lookup
// table. It stands in for a neural scorer in demos and tests.
//
// A table file is YAML:
//
//	vocabulary: ["</s>", the, dog, barks]
//	floor: 0.01
//	transitions:
//	  <s>: {the: 0.9}
//	  the: {dog: 0.8}
//	  dog: {barks: 0.7, </s>: 0.2}
//	  barks: {</s>: 0.9}
//
// The probability of a continuation is its table entry, or floor when the entry is
// missing, renormalized over the vocabulary. A previous token without a row yields a
// uniform distribution.
package table

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/treebeam/search"
	"github.com/dhamidi/treebeam/vocab"
)

var log = commonlog.GetLogger("treebeam.table")

var validate = validator.New()

// File is the YAML layout of a table model.
type File struct {
	Vocabulary  []string                      `yaml:"vocabulary" validate:"required,min=1,unique,dive,required"`
	Floor       float64                       `yaml:"floor" validate:"gte=0,lte=1"`
	Transitions map[string]map[string]float64 `yaml:"transitions" validate:"dive,dive,gte=0"`
}

type state struct {
	prev int // vocabulary id, or -1 at the start
	pos  int
	src  int
}

// Model is a bigram table implementing search.Model and search.Aligner.
type Model struct {
	vocab  *vocab.Dict
	start  []float64
	rows   [][]float64 // log distribution after each vocabulary id
	states []state
}

var (
	_ search.Model   = (*Model)(nil)
	_ search.Aligner = (*Model)(nil)
)

// Load reads a table model from YAML.
func Load(r io.Reader) (*Model, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode table model: %w", err)
	}
	return New(f)
}

// LoadFile reads a table model from path.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// New builds a model from a decoded file.
func New(f File) (*Model, error) {
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid table model: %w", err)
	}

	m := &Model{vocab: vocab.FromWords(f.Vocabulary)}
	m.vocab.Freeze()

	for prev, row := range f.Transitions {
		if prev != vocab.BOS && !m.vocab.Contains(prev) {
			return nil, fmt.Errorf("transitions: unknown previous token %q", prev)
		}
		for next := range row {
			if !m.vocab.Contains(next) {
				return nil, fmt.Errorf("transitions from %q: unknown token %q", prev, next)
			}
		}
	}

	m.start = logRow(f.Transitions[vocab.BOS], f.Vocabulary, f.Floor)
	m.rows = make([][]float64, len(f.Vocabulary))
	for id, w := range f.Vocabulary {
		m.rows[id] = logRow(f.Transitions[w], f.Vocabulary, f.Floor)
	}
	log.Debugf("loaded table model with %d tokens and %d rows", len(f.Vocabulary), len(f.Transitions))
	return m, nil
}

func logRow(row map[string]float64, words []string, floor float64) []float64 {
	out := make([]float64, len(words))
	if row == nil {
		for i := range out {
			out[i] = -math.Log(float64(len(words)))
		}
		return out
	}
	for i, w := range words {
		p, ok := row[w]
		if !ok {
			p = floor
		}
		out[i] = math.Log(p)
	}
	search.Normalize(out)
	return out
}

// Vocabulary returns the output vocabulary.
func (m *Model) Vocabulary() *vocab.Dict {
	return m.vocab
}

// Start discards the states of the previous decode.
func (m *Model) Start(source []int) (search.StateID, error) {
	m.states = m.states[:0]
	return m.add(state{prev: -1, src: len(source)}), nil
}

func (m *Model) add(st state) search.StateID {
	m.states = append(m.states, st)
	return search.StateID(len(m.states) - 1)
}

func (m *Model) get(id search.StateID) state {
	if id < 0 || int(id) >= len(m.states) {
		panic(fmt.Sprintf("table: state %d out of range [0, %d)", id, len(m.states)))
	}
	return m.states[id]
}

func (m *Model) LogProbs(id search.StateID) []float64 {
	st := m.get(id)
	if st.prev < 0 {
		return m.start
	}
	return m.rows[st.prev]
}

func (m *Model) Advance(id search.StateID, token int) search.StateID {
	st := m.get(id)
	return m.add(state{prev: token, pos: st.pos + 1, src: st.src})
}

// Alignment attends around source position pos, weights falling off by a factor of
// e per position.
func (m *Model) Alignment(id search.StateID) []float64 {
	st := m.get(id)
	if st.src == 0 {
		return []float64{}
	}
	center := min(st.pos, st.src-1)
	weights := make([]float64, st.src)
	var sum float64
	for j := range weights {
		weights[j] = math.Exp(-math.Abs(float64(j - center)))
		sum += weights[j]
	}
	for j := range weights {
		weights[j] /= sum
	}
	return weights
}
