package format

import (
	"encoding/json"
	"io"
	"math"
)

// JSONEncoder writes one JSON object per sentence.
type JSONEncoder struct {
	w     io.Writer
	nbest NBest
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(n NBest) error {
	e.nbest = n
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	data := jsonNBest{Index: e.nbest.Index, Hypotheses: make([]jsonHypothesis, 0, len(e.nbest.Hypotheses))}
	for _, h := range e.nbest.Hypotheses {
		jh := jsonHypothesis{
			Tokens:    h.Tokens,
			Count:     h.Count,
			Truncated: h.Truncated,
		}
		// JSON has no infinities.
		if !math.IsInf(h.Score, 0) && !math.IsNaN(h.Score) {
			score := h.Score
			jh.Score = &score
		}
		if jh.Tokens == nil {
			jh.Tokens = []string{}
		}
		data.Hypotheses = append(data.Hypotheses, jh)
	}
	return json.Marshal(data)
}

type jsonNBest struct {
	Index      int              `json:"index"`
	Hypotheses []jsonHypothesis `json:"hypotheses"`
}

type jsonHypothesis struct {
	Tokens    []string `json:"tokens"`
	Score     *float64 `json:"score"`
	Count     int      `json:"count,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
}
