package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	w, err := signing.Generate()
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
}
