// Command ballotctl is the operator tool for the ballot service: it mints
// peppers and maps an identity to its storage key for support lookups.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "ballotctl",
	Short:         "Operator tooling for the ballot service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
