package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCompressCmd(c *cli) *cobra.Command {
	var (
		algo         string
		envelopeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Compress text and print the result",
		Long: `Compress text with one codec and print the result as JSON.

The text comes from --input, or from stdin when --input is not given.
An empty or unknown --algo uses middle-out.

Examples:
  middleout compress --algo rle --input aaabbbccc
  echo "NullPointerException" | middleout compress --algo stk
  middleout compress --algo zph --input zzzzz --envelope-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.setup(cmd, true)
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			input, err := readInput(cmd, "input")
			if err != nil {
				return err
			}

			ctx := rt.commandContext(cmd.Context())
			result, err := rt.svc.Compress(ctx, input, algo, applyOverrides(cmd, rt.cfg.Compression()))
			if err != nil {
				return err
			}

			if envelopeOnly {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Encoded)
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&algo, "algo", "a", "", "codec to use (rle, stk, tnt, zph, middle-out)")
	cmd.Flags().StringP("input", "i", "", "text to compress (default: stdin)")
	cmd.Flags().BoolVar(&envelopeOnly, "envelope-only", false, "print only the encoded envelope")
	addCompressionFlags(cmd)
	return cmd
}
