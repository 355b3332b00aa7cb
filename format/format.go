// Package format renders decoding results in the line formats other tools read.
package format

import (
	"encoding"
	"strings"
)

// Separator delimits the fields of k-best lines and parallel input lines.
const Separator = " ||| "

// Hypothesis is one output of a sentence, tokens already mapped to strings.
type Hypothesis struct {
	Tokens    []string
	Score     float64
	Count     int // number of draws, for sampled outputs
	Truncated bool
}

// NBest holds the outputs for the sentence at Index, best first.
type NBest struct {
	Index      int
	Hypotheses []Hypothesis
}

type Encoder interface {
	encoding.TextMarshaler
	Encode(n NBest) error
}

// SplitParallel splits a "source ||| target" line. ok is false when the separator is
// missing.
func SplitParallel(line string) (source, target string, ok bool) {
	source, target, ok = strings.Cut(line, strings.TrimSpace(Separator))
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(source), strings.TrimSpace(target), true
}
