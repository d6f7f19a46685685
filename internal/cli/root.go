// Package cli implements the tracewall command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tracewall",
	Short: "Provenance-checked gate between untrusted text and execution surfaces",
	Long: "Merges tagged text segments, canonicalizes them, detects imperative\n" +
		"constructions, and refuses to pass untrusted commands downstream.\n" +
		"Every decision ships with a verifiable attestation.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.tracewall/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
