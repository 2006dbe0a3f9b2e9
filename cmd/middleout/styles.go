package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/middleout/internal/compression"
)

// styles renders CLI output. The renderer detects whether w is a color
// terminal, so piped output stays plain.
type styles struct {
	banner lipgloss.Style
	header lipgloss.Style
	dim    lipgloss.Style
	good   lipgloss.Style
	algo   map[compression.Algorithm]lipgloss.Style
}

func newStyles(w io.Writer, noColor bool) styles {
	r := lipgloss.NewRenderer(w)
	fg := func(color string) lipgloss.Style {
		s := r.NewStyle()
		if noColor {
			return s
		}
		return s.Foreground(lipgloss.Color(color))
	}

	return styles{
		banner: fg("10").Bold(!noColor),
		header: fg("14").Bold(!noColor),
		dim:    fg("245"),
		good:   fg("46"),
		algo: map[compression.Algorithm]lipgloss.Style{
			compression.AlgorithmRLE:       fg("11"),
			compression.AlgorithmSTK:       fg("13"),
			compression.AlgorithmTNT:       fg("9"),
			compression.AlgorithmZPH:       fg("12"),
			compression.AlgorithmMiddleOut: fg("8"),
		},
	}
}

func (s styles) algorithm(a compression.Algorithm) string {
	if st, ok := s.algo[a]; ok {
		return st.Render(string(a))
	}
	return string(a)
}
