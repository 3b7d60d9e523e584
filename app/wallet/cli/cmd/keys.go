package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <hexkey>",
	Short: "Save a hex encoded private key as the specified account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := signing.FromHex(strings.TrimPrefix(args[0], "0x"))
		if err != nil {
			return err
		}

		if err := os.MkdirAll(accountPath, 0o755); err != nil {
			return err
		}

		path := getPrivateKeyPath()
		if err := w.Save(path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "key saved to %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), w.PubKey())

		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the hex encoded private key of the specified account",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := signing.Load(getPrivateKeyPath())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), w.HexKey())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}
