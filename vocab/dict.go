// Package vocab maps token strings to dense integer ids and back.
package vocab

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Reserved control tokens.
const (
	BOS = "<s>"
	EOS = "</s>"
	UNK = "<unk>"
)

// Dict is a bidirectional token string <-> id table. Ids are assigned in order of
// first insertion. Once frozen, unknown strings are no longer added.
type Dict struct {
	words  []string
	ids    map[string]int
	frozen bool
}

// New returns an empty, unfrozen dictionary.
func New() *Dict {
	return &Dict{ids: make(map[string]int)}
}

// FromWords builds a dictionary holding words in order. Duplicates keep their first id.
func FromWords(words []string) *Dict {
	d := New()
	for _, w := range words {
		d.Convert(w)
	}
	return d
}

// Read loads one token per line, skipping blank lines.
func Read(r io.Reader) (*Dict, error) {
	d := New()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		d.Convert(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return d, nil
}

// Convert returns the id for word, adding it when the dictionary is not frozen.
// A frozen dictionary maps unknown words to the id of UNK, or -1 without one.
func (d *Dict) Convert(word string) int {
	if id, ok := d.ids[word]; ok {
		return id
	}
	if d.frozen {
		if id, ok := d.ids[UNK]; ok {
			return id
		}
		return -1
	}
	id := len(d.words)
	d.words = append(d.words, word)
	d.ids[word] = id
	return id
}

// Lookup returns the id of word without modifying the dictionary.
func (d *Dict) Lookup(word string) (int, bool) {
	id, ok := d.ids[word]
	return id, ok
}

// Contains reports whether word has an id.
func (d *Dict) Contains(word string) bool {
	_, ok := d.ids[word]
	return ok
}

// Word returns the string for id.
func (d *Dict) Word(id int) (string, error) {
	if id < 0 || id >= len(d.words) {
		return "", fmt.Errorf("token id %d out of range [0, %d)", id, len(d.words))
	}
	return d.words[id], nil
}

// Words maps ids to strings, substituting UNK for out-of-range ids.
func (d *Dict) Words(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		w, err := d.Word(id)
		if err != nil {
			w = UNK
		}
		out[i] = w
	}
	return out
}

// IDs converts a whitespace separated sentence to ids.
func (d *Dict) IDs(sentence string) []int {
	fields := strings.Fields(sentence)
	ids := make([]int, len(fields))
	for i, f := range fields {
		ids[i] = d.Convert(f)
	}
	return ids
}

func (d *Dict) Size() int {
	return len(d.words)
}

func (d *Dict) Freeze() {
	d.frozen = true
}

func (d *Dict) Frozen() bool {
	return d.frozen
}
