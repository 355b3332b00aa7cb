package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// KBestEncoder writes one "index ||| tokens ||| score" line per hypothesis.
type KBestEncoder struct {
	w      io.Writer
	nbest  NBest
	counts bool
}

func NewKBestEncoder(w io.Writer) *KBestEncoder {
	return &KBestEncoder{w: w}
}

// WithCounts appends the draw count as a fourth field, as sampling output does.
func (e *KBestEncoder) WithCounts() *KBestEncoder {
	e.counts = true
	return e
}

func (e *KBestEncoder) Encode(n NBest) error {
	e.nbest = n
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *KBestEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, h := range e.nbest.Hypotheses {
		fmt.Fprintf(&sb, "%d%s%s%s%s", e.nbest.Index, Separator, strings.Join(h.Tokens, " "), Separator, formatScore(h.Score))
		if e.counts {
			fmt.Fprintf(&sb, "%s%d", Separator, h.Count)
		}
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'g', -1, 64)
}

// WriteAlignment writes one row of space separated source weights per target position,
// followed by a blank line.
func WriteAlignment(w io.Writer, weights [][]float64) error {
	var sb strings.Builder
	for _, row := range weights {
		for j, x := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatFloat(x, 'f', 6, 64))
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}
