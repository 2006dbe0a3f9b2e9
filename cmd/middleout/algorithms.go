package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/config"
)

func newAlgorithmsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "algorithms",
		Aliases: []string{"algos"},
		Short:   "List the available codecs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			def, _ := compression.ParseAlgorithm(cfg.Algorithm)

			st := newStyles(cmd.OutOrStdout(), c.noColor)
			var b strings.Builder
			b.WriteString(st.banner.Render("MIDDLE-OUT COMPRESSION"))
			b.WriteString("\n")
			b.WriteString(st.dim.Render("Weissman scores not guaranteed."))
			b.WriteString("\n\n")

			for _, a := range compression.Algorithms() {
				name := fmt.Sprintf("%-11s", a)
				if s, ok := st.algo[a]; ok {
					name = s.Render(name)
				}
				fmt.Fprintf(&b, "  %s %s", name, a.Description())
				if a == def {
					b.WriteString(" " + st.good.Render("(default)"))
				}
				b.WriteString("\n")
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}
