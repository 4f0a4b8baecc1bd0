package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ballot-backend/encryption"
)

var genPepperBytes int

func init() {
	genPepperCmd.Flags().IntVar(&genPepperBytes, "bytes", 32, "Random bytes in the pepper (hex output is twice as long)")
	rootCmd.AddCommand(genPepperCmd)
}

var genPepperCmd = &cobra.Command{
	Use:   "gen-pepper",
	Short: "Print a new random pepper for BALLOT_PEPPER",
	Long: "Print a new random pepper. A pepper can be set once per deployment: " +
		"changing it moves every identity to a new storage key.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pepper, err := encryption.GeneratePepper(nil, genPepperBytes)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pepper)
		return nil
	},
}
