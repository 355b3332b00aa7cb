package action

import (
	"fmt"
	"strings"

	"github.com/dhamidi/treebeam/vocab"
)

// LookupError reports a vocabulary entry or action that has no place in the mapping.
// It indicates a bad model or vocabulary file and is not recoverable mid-decode.
type LookupError struct {
	Op     string
	Entry  string
	Reason string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("action vocabulary: %s %s: %s", e.Op, e.Entry, e.Reason)
}

// Vocabulary is the bijection between Actions and flat token ids. Flat ids are the
// positions of the entries in the raw vocabulary the scorer predicts over.
type Vocabulary struct {
	raw     []string
	byName  map[string]int
	actions map[int]Action
	ids     map[Action]int
	terms   *vocab.Dict
	labels  *vocab.Dict
	byKind  map[Kind][]int
}

// NewVocabulary builds the mapping from raw entries, each of which must be REDUCE,
// NT(<label>), SHIFT(<token>) or one of the reserved control tokens. Without an
// explicit reserved set, <s>, </s> and <unk> are reserved.
func NewVocabulary(raw []string, reserved ...string) (*Vocabulary, error) {
	if len(reserved) == 0 {
		reserved = []string{vocab.BOS, vocab.EOS, vocab.UNK}
	}
	skip := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		skip[r] = true
	}

	v := &Vocabulary{
		raw:     append([]string(nil), raw...),
		byName:  make(map[string]int, len(raw)),
		actions: make(map[int]Action, len(raw)),
		ids:     make(map[Action]int, len(raw)),
		terms:   vocab.New(),
		labels:  vocab.New(),
		byKind:  make(map[Kind][]int),
	}

	for id, entry := range raw {
		if _, dup := v.byName[entry]; dup {
			return nil, &LookupError{Op: "load", Entry: fmt.Sprintf("%q", entry), Reason: "duplicate entry"}
		}
		v.byName[entry] = id
		if skip[entry] {
			continue
		}

		kind, arg, err := splitEntry(entry)
		if err != nil {
			return nil, err
		}

		var a Action
		switch kind {
		case Reduce:
			a = ReduceOf()
		case NT:
			a = NTOf(v.labels.Convert(arg))
		case Shift:
			a = ShiftOf(v.terms.Convert(arg))
		}
		v.actions[id] = a
		v.ids[a] = id
		v.byKind[kind] = append(v.byKind[kind], id)
	}

	v.terms.Freeze()
	v.labels.Freeze()
	return v, nil
}

func splitEntry(entry string) (Kind, string, error) {
	switch {
	case entry == "REDUCE":
		return Reduce, "", nil
	case strings.HasPrefix(entry, "NT(") && strings.HasSuffix(entry, ")") && len(entry) > len("NT()"):
		return NT, entry[len("NT(") : len(entry)-1], nil
	case strings.HasPrefix(entry, "SHIFT(") && strings.HasSuffix(entry, ")") && len(entry) > len("SHIFT()"):
		return Shift, entry[len("SHIFT(") : len(entry)-1], nil
	default:
		return None, "", &LookupError{Op: "load", Entry: fmt.Sprintf("%q", entry), Reason: "not REDUCE, NT(...) or SHIFT(...)"}
	}
}

// ToAction returns the action with flat id.
func (v *Vocabulary) ToAction(id int) (Action, error) {
	a, ok := v.actions[id]
	if !ok {
		return Action{}, &LookupError{Op: "to action", Entry: fmt.Sprintf("id %d", id), Reason: "unmapped token id"}
	}
	return a, nil
}

// ToID returns the flat id of a.
func (v *Vocabulary) ToID(a Action) (int, error) {
	id, ok := v.ids[a]
	if !ok {
		return 0, &LookupError{Op: "to id", Entry: a.String(), Reason: "action has no token id"}
	}
	return id, nil
}

// Parse converts an action string such as NT(S) or SHIFT(dog) to an Action.
func (v *Vocabulary) Parse(s string) (Action, error) {
	id, ok := v.byName[s]
	if !ok {
		if _, _, err := splitEntry(s); err != nil {
			return Action{}, err
		}
		return Action{}, &LookupError{Op: "parse", Entry: fmt.Sprintf("%q", s), Reason: "not in vocabulary"}
	}
	return v.ToAction(id)
}

// ParseSequence parses a whitespace separated line of action strings.
func (v *Vocabulary) ParseSequence(line string) ([]Action, error) {
	fields := strings.Fields(line)
	actions := make([]Action, 0, len(fields))
	for i, f := range fields {
		a, err := v.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// Name renders a as its vocabulary entry, falling back to a.String() for unmapped
// actions.
func (v *Vocabulary) Name(a Action) string {
	if id, ok := v.ids[a]; ok {
		return v.raw[id]
	}
	return a.String()
}

// Names renders a sequence of actions.
func (v *Vocabulary) Names(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = v.Name(a)
	}
	return out
}

// ID returns the flat id of a raw entry, including reserved tokens.
func (v *Vocabulary) ID(entry string) (int, bool) {
	id, ok := v.byName[entry]
	return id, ok
}

// IDsOfKind lists the flat ids of every action of kind k in ascending order.
func (v *Vocabulary) IDsOfKind(k Kind) []int {
	return v.byKind[k]
}

// Size is the number of raw entries, reserved tokens included.
func (v *Vocabulary) Size() int {
	return len(v.raw)
}

// Entries returns the raw vocabulary.
func (v *Vocabulary) Entries() []string {
	return v.raw
}

func (v *Vocabulary) Terminals() *vocab.Dict {
	return v.terms
}

func (v *Vocabulary) Labels() *vocab.Dict {
	return v.labels
}

// NTCount is the number of distinct nonterminal labels.
func (v *Vocabulary) NTCount() int {
	return v.labels.Size()
}
