package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/treebeam/config"
)

var log = commonlog.GetLogger("treebeam")

// settings shared by every subcommand, filled in before a command runs.
var (
	verbosity  int
	configPath string
	cfg        config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "treebeam",
		Short:        "Beam search and transition parsing for sequence models",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			commonlog.Configure(verbosity, nil)
			var err error
			cfg, err = config.Load(configPath)
			return err
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "decoder configuration file (YAML)")

	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newAlignCmd())
	rootCmd.AddCommand(newOracleCmd())
	rootCmd.AddCommand(newTreeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newLSPCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
