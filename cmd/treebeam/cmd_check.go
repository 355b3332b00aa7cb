package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/treebeam/action"
	"github.com/dhamidi/treebeam/rnng"
	"github.com/dhamidi/treebeam/treebank"
	"github.com/dhamidi/treebeam/vocab"
)

func newCheckCmd() *cobra.Command {
	var vocabPath string

	cmd := &cobra.Command{
		Use:   "check [actions]",
		Short: "Replay action sequences through the transition system and report invalid ones",
		Long: `Replays every line of actions against an action vocabulary (one entry per line:
REDUCE, NT(label), SHIFT(word) or a reserved token) and prints the tree each valid
line builds. Invalid lines are reported and counted; the command fails if any is found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(vocabPath)
			if err != nil {
				return err
			}
			dict, err := vocab.Read(f)
			f.Close()
			if err != nil {
				return err
			}
			v, err := action.NewVocabulary(dict.Words(ids(dict.Size())))
			if err != nil {
				return fmt.Errorf("%s: %w", vocabPath, err)
			}

			engine := rnng.NewEngine[*treebank.Node](treebank.NewComposer(v.Terminals(), v.Labels()), v.NTCount())
			var bad int
			err = eachLine(inputArg(args), func(i int, line string) error {
				actions, err := v.ParseSequence(line)
				if err != nil {
					bad++
					log.Warningf("line %d: %s", i+1, err)
					fmt.Fprintln(os.Stdout)
					return nil
				}
				h, err := engine.Replay(actions)
				if err == nil && !engine.IsDone(h) {
					err = fmt.Errorf("incomplete: %d nonterminals open", engine.State(h).OpenCount)
				}
				if err != nil {
					bad++
					log.Warningf("line %d: %s", i+1, err)
					fmt.Fprintln(os.Stdout)
					return nil
				}
				_, err = fmt.Fprintln(os.Stdout, engine.State(h).Stack[1].String())
				return err
			})
			if err != nil {
				return err
			}
			if bad > 0 {
				return fmt.Errorf("%d invalid line(s)", bad)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&vocabPath, "vocab", "", "action vocabulary file")
	_ = cmd.MarkFlagRequired("vocab")

	return cmd
}
