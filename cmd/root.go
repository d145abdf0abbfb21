// Package cmd implements the command-line interface for the headline
// pipeline: running batches, searching the index, and reporting on
// source reliability.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/newsperspective/pipeline/cmd/run"
	"github.com/newsperspective/pipeline/cmd/search"
	"github.com/newsperspective/pipeline/cmd/sources"
)

const version = "1.0.0"

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "newsperspective",
		Short: "Rewrite negative news headlines into calmer ones",
		Long: `newsperspective fetches headlines, classifies their tone, rewrites the
negative and sensational ones, and indexes the results for search.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment overrides are in place before any
	// command reads config.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsperspective version %s\n", version)
		},
	})

	rootCmd.AddCommand(run.Command(&cfgFile, &debug))
	rootCmd.AddCommand(search.Command(&cfgFile, &debug))
	rootCmd.AddCommand(sources.Command(&cfgFile, &debug))
}
