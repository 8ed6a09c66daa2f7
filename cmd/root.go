// Package cmd provides the root command and CLI setup for structur.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verboseFlag bool

// logger is set by commands that run a workflow and synced on exit.
var logger *zap.Logger

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structur",
		Short: "Extract and reorganize coded text",
		Long: `Structur extracts coded passages from a folder of text documents and
reorganizes them by code.

A passage is coded by wrapping it in named delimiters:

  {{theme}}==The passage text.=={{theme}}
  [[theme]]==Square-bracket codes are kept separate.==[[theme]]

Every passage of a code is collected into one file per code. Text outside
any code lands in the uncoded output, repeated passages in duplicates, and
broken markup in malformed.`,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
