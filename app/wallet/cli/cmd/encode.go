package cmd

import (
	"fmt"

	"github.com/ardanlabs/blocksim/foundation/baseenc"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var useBase64 bool

var encodeCmd = &cobra.Command{
	Use:   "encode <hex>",
	Short: "Encode 0x prefixed hex bytes, such as a block hash, as text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := hexutil.Decode(args[0])
		if err != nil {
			return fmt.Errorf("decoding hex: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), encoding().EncodeToString(data))

		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <text>",
	Short: "Decode text back into 0x prefixed hex bytes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := encoding().DecodeString(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(data))

		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{encodeCmd, decodeCmd} {
		c.Flags().BoolVar(&useBase64, "base64", false, "Use the 64 character alphabet.")
		rootCmd.AddCommand(c)
	}
}

func encoding() *baseenc.Encoding {
	if useBase64 {
		return baseenc.Base64
	}
	return baseenc.Std
}
