package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dhamidi/treebeam/action"
	"github.com/dhamidi/treebeam/format"
	"github.com/dhamidi/treebeam/model/table"
	"github.com/dhamidi/treebeam/search"
	"github.com/dhamidi/treebeam/treebank"
	"github.com/dhamidi/treebeam/vocab"
)

// searchFlags are the decoder settings a command may override on top of cfg.
type searchFlags struct {
	models        []string
	beamSize      int
	kbestSize     int
	maxLength     int
	lengthBonus   float64
	dropTruncated bool
	parser        bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.models, "model", "m", nil, "table model file (repeat for an ensemble)")
	cmd.Flags().IntVarP(&f.beamSize, "beam", "b", 0, "beam width")
	cmd.Flags().IntVarP(&f.kbestSize, "kbest", "k", 0, "number of outputs per sentence")
	cmd.Flags().IntVar(&f.maxLength, "max-length", 0, "maximum output length")
	cmd.Flags().Float64Var(&f.lengthBonus, "length-bonus", 0, "score added per output token (<= 0)")
	cmd.Flags().BoolVar(&f.dropTruncated, "drop-truncated", false, "discard outputs cut off at the maximum length")
	cmd.Flags().BoolVar(&f.parser, "parser", false, "restrict output to parser actions forming a tree")
	_ = cmd.MarkFlagRequired("model")
}

// apply copies explicitly set flags into cfg.
func (f *searchFlags) apply(cmd *cobra.Command) {
	if cmd.Flags().Changed("beam") {
		cfg.BeamSize = f.beamSize
	}
	if cmd.Flags().Changed("kbest") {
		cfg.KBestSize = f.kbestSize
	}
	if cmd.Flags().Changed("max-length") {
		cfg.MaxLength = f.maxLength
	}
	if cmd.Flags().Changed("length-bonus") {
		cfg.LengthBonus = f.lengthBonus
	}
	if cmd.Flags().Changed("drop-truncated") {
		cfg.KeepTruncated = !f.dropTruncated
	}
	if cmd.Flags().Changed("parser") {
		cfg.Parser = f.parser
	}
}

// decoderSetup is everything needed to decode with a loaded ensemble.
type decoderSetup struct {
	decoder *search.Decoder
	output  *vocab.Dict
	actions *action.Vocabulary // nil unless decoding parser actions
	source  *vocab.Dict
}

func loadDecoder(f *searchFlags) (*decoderSetup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	var models []search.Model
	var output *vocab.Dict
	var err error
	for _, path := range f.models {
		m, err := table.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if output == nil {
			output = m.Vocabulary()
		} else if !sameWords(output, m.Vocabulary()) {
			return nil, fmt.Errorf("%s: output vocabulary differs from %s", path, f.models[0])
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no models given")
	}

	eos, ok := output.Lookup(vocab.EOS)
	if !ok && !cfg.Parser {
		return nil, fmt.Errorf("output vocabulary has no %s token", vocab.EOS)
	}

	setup := &decoderSetup{output: output, source: vocab.New()}
	opts := cfg.SearchOptions()
	if cfg.Parser {
		setup.actions, err = action.NewVocabulary(output.Words(ids(output.Size())))
		if err != nil {
			return nil, err
		}
		c, err := search.NewParserConstraint(setup.actions)
		if err != nil {
			return nil, err
		}
		opts = append(opts, search.WithConstraint(c))
	}

	setup.decoder, err = search.NewDecoder(models, eos, opts...)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d model(s), %d output tokens", len(models), output.Size())
	return setup, nil
}

func sameWords(a, b *vocab.Dict) bool {
	return a.Size() == b.Size() && slices.Equal(a.Words(ids(a.Size())), b.Words(ids(b.Size())))
}

func ids(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// hypothesis renders a decoded token sequence, as a bracketed tree when asTree is set
// and the tokens are parser actions.
func (s *decoderSetup) hypothesis(tokens []int, score float64, truncated bool, asTree bool) format.Hypothesis {
	words := s.output.Words(tokens)
	if asTree && s.actions != nil && !truncated {
		if tree, err := treebank.FromActions(words); err == nil {
			words = []string{tree.String()}
		} else {
			log.Warningf("cannot build tree: %s", err)
		}
	}
	return format.Hypothesis{Tokens: words, Score: score, Truncated: truncated}
}

// newEncoder picks the output encoder; counts adds draw counts to text output.
func newEncoder(name string, w io.Writer, counts bool) (format.Encoder, error) {
	switch name {
	case "text":
		enc := format.NewKBestEncoder(w)
		if counts {
			enc.WithCounts()
		}
		return enc, nil
	case "json":
		return format.NewJSONEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", name)
	}
}

// openInput returns the named file, or stdin for "" and "-".
func openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

// eachLine calls fn with every line of the input and its zero-based index.
func eachLine(name string, fn func(i int, line string) error) error {
	r, err := openInput(name)
	if err != nil {
		return err
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for i := 0; scanner.Scan(); i++ {
		if err := fn(i, scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
