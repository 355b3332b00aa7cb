package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/treebeam/treebank"
)

func newOracleCmd() *cobra.Command {
	var collapseUnary bool
	var removeChains bool

	cmd := &cobra.Command{
		Use:   "oracle [trees]",
		Short: "Convert bracketed trees, one per line, to parser action sequences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := inputArg(args)
			return eachLine(name, func(i int, line string) error {
				if strings.TrimSpace(line) == "" {
					fmt.Fprintln(os.Stdout)
					return nil
				}
				tree, err := treebank.Parse(fmt.Sprintf("%s:%d", displayName(name), i+1), []byte(line))
				if err != nil {
					log.Warningf("%s, skipped", err)
					fmt.Fprintln(os.Stdout)
					return nil
				}
				if removeChains {
					tree = treebank.RemoveUnaryChains(tree)
				}
				actions := treebank.Oracle(tree)
				if collapseUnary {
					actions = treebank.CollapseUnary(actions)
				}
				_, err = fmt.Fprintln(os.Stdout, strings.Join(actions, " "))
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&collapseUnary, "collapse-unary", true, "rewrite NT(X) SHIFT(w) REDUCE to SHIFT(w)")
	cmd.Flags().BoolVar(&removeChains, "remove-unary-chains", false, "drop single-child chains before conversion")

	return cmd
}

func displayName(name string) string {
	if name == "" || name == "-" {
		return "<stdin>"
	}
	return name
}

// treeActions parses a bracketed tree and returns its collapsed oracle.
func treeActions(line string) ([]string, error) {
	tree, err := treebank.Parse("", []byte(line))
	if err != nil {
		return nil, err
	}
	return treebank.CollapseUnary(treebank.Oracle(tree)), nil
}
