package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/treebeam/format"
	"github.com/dhamidi/treebeam/search"
)

func newDecodeCmd() *cobra.Command {
	var flags searchFlags
	var outputFormat string
	var asTree bool

	cmd := &cobra.Command{
		Use:   "decode [input]",
		Short: "Beam search the best outputs for each source line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd)
			setup, err := loadDecoder(&flags)
			if err != nil {
				return err
			}
			enc, err := newEncoder(outputFormat, os.Stdout, false)
			if err != nil {
				return err
			}

			return eachLine(inputArg(args), func(i int, line string) error {
				source := setup.source.IDs(line)
				results, err := setup.decoder.Decode(source)
				if errors.Is(err, search.ErrNoHypotheses) {
					log.Warningf("line %d: %s", i+1, err)
					return enc.Encode(format.NBest{Index: i})
				}
				if err != nil {
					return fmt.Errorf("line %d: %w", i+1, err)
				}

				n := format.NBest{Index: i}
				for _, r := range results {
					n.Hypotheses = append(n.Hypotheses, setup.hypothesis(r.Tokens, r.Score, r.Truncated, asTree))
				}
				log.Debugf("line %d: %d words, %d outputs", i+1, len(strings.Fields(line)), len(results))
				return enc.Encode(n)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	cmd.Flags().BoolVar(&asTree, "tree", false, "print parser outputs as bracketed trees")

	return cmd
}
