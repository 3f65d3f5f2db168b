// Package cli implements the MMSS command-line interface using Cobra.
// Each subcommand maps to one engine capability (serve, run, ps, metrics,
// export).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mmss",
	Short: "MMSS — geometric emergence engine",
	Long: `MMSS runs the geometric emergence engine: quaternion rotor tasks over
a shared metrics snapshot, with an HTTP API and an optional LLM query
gateway.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
