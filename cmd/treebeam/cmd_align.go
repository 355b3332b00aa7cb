package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/treebeam/format"
)

func newAlignCmd() *cobra.Command {
	var flags searchFlags
	var lossOnly bool

	cmd := &cobra.Command{
		Use:   "align [input]",
		Short: "Score \"source ||| target\" lines with teacher forcing and print attention matrices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd)
			setup, err := loadDecoder(&flags)
			if err != nil {
				return err
			}

			var total float64
			var count int
			err = eachLine(inputArg(args), func(i int, line string) error {
				src, tgt, ok := format.SplitParallel(line)
				if !ok {
					log.Warningf("line %d: missing %q, skipped", i+1, strings.TrimSpace(format.Separator))
					return nil
				}
				target, err := setup.targetIDs(tgt)
				if err != nil {
					log.Warningf("line %d: %s, skipped", i+1, err)
					return nil
				}

				a, err := setup.decoder.ForceDecode(setup.source.IDs(src), target)
				if err != nil {
					log.Warningf("line %d: %s, skipped", i+1, err)
					return nil
				}
				total += a.Loss()
				count += len(target)

				if lossOnly {
					_, err := fmt.Fprintf(os.Stdout, "%d%s%g\n", i, format.Separator, a.Loss())
					return err
				}
				if a.Weights == nil {
					return fmt.Errorf("models do not provide attention; use --loss")
				}
				return format.WriteAlignment(os.Stdout, a.Weights)
			})
			if err != nil {
				return err
			}
			if count > 0 {
				log.Noticef("total loss %g over %d tokens (%g per token)", total, count, total/float64(count))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&lossOnly, "loss", false, "print the loss of each line instead of attention")

	return cmd
}

// targetIDs maps a reference line to output ids. In parser mode the line may be a
// bracketed tree, which is converted to its action sequence first.
func (s *decoderSetup) targetIDs(line string) ([]int, error) {
	words := strings.Fields(line)
	if s.actions != nil && strings.HasPrefix(strings.TrimSpace(line), "(") {
		var err error
		words, err = treeActions(line)
		if err != nil {
			return nil, err
		}
	}
	out := make([]int, len(words))
	for i, w := range words {
		id, ok := s.output.Lookup(w)
		if !ok {
			return nil, fmt.Errorf("token %d %q not in output vocabulary", i, w)
		}
		out[i] = id
	}
	return out, nil
}
