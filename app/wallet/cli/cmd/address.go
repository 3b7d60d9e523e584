package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the reward key and address for the specified account",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := signing.Load(getPrivateKeyPath())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "pubkey:  %s\n", w.PubKey())
		fmt.Fprintf(cmd.OutOrStdout(), "address: %s\n", w.Address())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(addressCmd)
}
