package cmd

import (
	"fmt"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with the specified account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := signing.Load(getPrivateKeyPath())
		if err != nil {
			return err
		}

		sig, err := signing.Sign(w, []byte(args[0]))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), wallet.SignatureString(sig))

		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <pubkey> <message> <signature>",
	Short: "Verify a message was signed by the public key",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, err := database.ToPubKey(args[0])
		if err != nil {
			return err
		}

		sig, err := hexutil.Decode(args[2])
		if err != nil {
			return fmt.Errorf("decoding signature: %w", err)
		}

		if err := signing.Verify(pub, []byte(args[1]), sig); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "signature verified")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
}
