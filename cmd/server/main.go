// Command server runs the transcript registry and its operator tooling.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "transcript",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "Transcript registry",
		Long:              "Registry binding academic transcript token ids to PDF fingerprints, with operator tooling",
		Version:           version,
		SilenceUsage:      true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newHashCmd(),
		newTokenCmd(),
		newVerifyLogCmd(),
	)
	return rootCmd
}
