package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docintake/internal/logger"
)

var version = "0.1.0"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docctl",
	Short: "Classify documents and extract fields from recognized text",
	Long: `docctl runs the local analysis pipeline over text files without a
database or any network provider.

Input is read from the file named on the command line, or from stdin when
the argument is "-" or omitted. Results are printed as JSON.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		l := logger.WithComponent("docctl")
		l.Debug().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(newAnalyzeCmd(), newClassifyCmd(), newDedupCmd())
}
