package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newDecompressCmd(c *cli) *cobra.Command {
	var (
		raw    bool
		asJSON bool
		algo   string
	)

	cmd := &cobra.Command{
		Use:   "decompress",
		Short: "Recover text from an envelope",
		Long: `Decompress a MO:: envelope and print the recovered text.

Decompression never fails. Input that is not a valid envelope, or whose
payload cannot be decoded, is reversed and labeled [DECODE_FAIL_FALLBACK].
--raw skips decoding and labels the reversed input [RAW_RECOVERY_MODE].

Examples:
  middleout decompress --input 'MO::rle:a3b3c3::WEISSMAN::4.66'
  middleout decompress --input 'STK::INVALID::CODE'
  middleout compress --algo zph --input zzzzz --envelope-only | middleout decompress --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.setup(cmd, true)
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			encoded, err := readInput(cmd, "input")
			if err != nil {
				return err
			}

			cfg := rt.cfg.Compression()
			cfg.Raw = raw
			ctx := rt.commandContext(cmd.Context())
			decoded := rt.svc.Decode(ctx, encoded, cfg)

			if algo != "" && decoded.Algorithm != "" && decoded.Algorithm != algo {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: envelope is tagged %s, not %s\n", decoded.Algorithm, algo)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(decoded)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), decoded.Output)
			return err
		},
	}

	cmd.Flags().StringP("input", "i", "", "envelope to decompress (default: stdin)")
	cmd.Flags().StringVarP(&algo, "algo", "a", "", "expected codec; a mismatch prints a warning")
	cmd.Flags().BoolVar(&raw, "raw", false, "skip decoding and return the reversed input")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print output, algorithm and fallback details as JSON")
	return cmd
}
