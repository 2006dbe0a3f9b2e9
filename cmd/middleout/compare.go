package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/envelope"
)

func newCompareCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compress with every codec and rank the results",
		Long: `Compress the same text with every codec and rank the results by Weissman
score, highest first. Ties are ranked by algorithm name.

Examples:
  middleout compare --input "aaaaaaaaaaaabbbbbbbbbbbb"
  cat trace.log | middleout compare --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.setup(cmd, false)
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			input, err := readInput(cmd, "input")
			if err != nil {
				return err
			}

			ctx := rt.commandContext(cmd.Context())
			results, err := rt.svc.Compare(ctx, input, applyOverrides(cmd, rt.cfg.Compression()))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(results)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderComparison(newStyles(cmd.OutOrStdout(), c.noColor), results))
			return err
		},
	}

	cmd.Flags().StringP("input", "i", "", "text to compress (default: stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	addCompressionFlags(cmd)
	return cmd
}

func renderComparison(st styles, results []*compression.Result) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.dim).
		Headers("#", "ALGORITHM", "ORIGINAL", "COMPRESSED", "RATIO", "WEISSMAN").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Inherit(st.header)
			}
			if col >= 2 {
				s = s.Align(lipgloss.Right)
			}
			if row == 0 && col == 5 {
				s = s.Inherit(st.good)
			}
			return s
		})

	for i, r := range results {
		t.Row(
			strconv.Itoa(i+1),
			st.algorithm(r.Algorithm),
			strconv.Itoa(r.OriginalSize),
			strconv.Itoa(r.CompressedSize),
			ratio(r.OriginalSize, r.CompressedSize),
			envelope.FormatScore(r.Score),
		)
	}
	return t.Render()
}

func ratio(original, compressed int) string {
	if compressed == 0 {
		return "-"
	}
	return strconv.FormatFloat(float64(original)/float64(compressed), 'f', 2, 64) + "x"
}
