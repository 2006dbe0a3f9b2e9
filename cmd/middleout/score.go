package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/config"
	"github.com/fyrsmithlabs/middleout/internal/envelope"
)

func newScoreCmd(c *cli) *cobra.Command {
	var (
		algo           string
		originalSize   int
		compressedSize int
		target         float64
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Estimate the Weissman score of a compression",
		Long: `Estimate the Weissman score for an algorithm and a pair of sizes.

A compressed size of zero scores target+1.

Examples:
  middleout score --algo rle --original-size 9 --compressed-size 6
  middleout score --algo zph --original-size 100 --compressed-size 0 --target 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := compression.ParseAlgorithm(algo); !ok {
				return fmt.Errorf("unknown algorithm %q", algo)
			}
			if originalSize < 0 || compressedSize < 0 {
				return fmt.Errorf("sizes must be non-negative")
			}

			if !cmd.Flags().Changed("target") {
				cfg, err := config.Load(c.configPath)
				if err != nil {
					return err
				}
				target = cfg.TargetWeissman
			}
			if target < 0 {
				return fmt.Errorf("target must be non-negative")
			}

			score := compression.EstimateScore(algo, originalSize, compressedSize, target)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), envelope.FormatScore(score))
			return err
		},
	}

	cmd.Flags().StringVarP(&algo, "algo", "a", "", "codec name")
	cmd.Flags().IntVar(&originalSize, "original-size", 0, "original size in bytes")
	cmd.Flags().IntVar(&compressedSize, "compressed-size", 0, "compressed size in bytes")
	cmd.Flags().Float64Var(&target, "target", compression.DefaultTargetWeissman, "target Weissman score (default from config)")
	_ = cmd.MarkFlagRequired("algo")
	return cmd
}
