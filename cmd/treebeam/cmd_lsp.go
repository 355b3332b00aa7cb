package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/treebeam/langserver"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start a Language Server Protocol server for treebank files",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := langserver.New("0.1.0")
			return server.RunStdio()
		},
	}
}
