package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/treebeam/treebank"
)

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [actions]",
		Short: "Convert parser action sequences, one per line, to bracketed trees",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachLine(inputArg(args), func(i int, line string) error {
				fields := strings.Fields(line)
				if len(fields) == 0 {
					fmt.Fprintln(os.Stdout)
					return nil
				}
				tree, err := treebank.FromActions(fields)
				if err != nil {
					return fmt.Errorf("line %d: %w", i+1, err)
				}
				_, err = fmt.Fprintln(os.Stdout, tree.String())
				return err
			})
		},
	}
}
