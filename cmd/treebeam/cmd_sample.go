package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/treebeam/format"
	"github.com/dhamidi/treebeam/search"
)

func newSampleCmd() *cobra.Command {
	var flags searchFlags
	var outputFormat string
	var samples int
	var seed int64
	var asTree bool

	cmd := &cobra.Command{
		Use:   "sample [input]",
		Short: "Draw outputs for each source line from the model distribution",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd)
			if cmd.Flags().Changed("samples") {
				cfg.Samples = samples
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			setup, err := loadDecoder(&flags)
			if err != nil {
				return err
			}
			enc, err := newEncoder(outputFormat, os.Stdout, true)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.Seed))

			return eachLine(inputArg(args), func(i int, line string) error {
				drawn, err := setup.decoder.Sample(setup.source.IDs(line), cfg.Samples, rng)
				if errors.Is(err, search.ErrNoHypotheses) {
					log.Warningf("line %d: %s", i+1, err)
					return enc.Encode(format.NBest{Index: i})
				}
				if err != nil {
					return fmt.Errorf("line %d: %w", i+1, err)
				}

				n := format.NBest{Index: i}
				for _, s := range drawn {
					h := setup.hypothesis(s.Tokens, s.Score, s.Truncated, asTree)
					h.Count = s.Count
					n.Hypotheses = append(n.Hypotheses, h)
				}
				return enc.Encode(n)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	cmd.Flags().IntVarP(&samples, "samples", "n", 1, "draws per source line")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&asTree, "tree", false, "print parser outputs as bracketed trees")

	return cmd
}
