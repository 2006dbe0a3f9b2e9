package compression

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// zphMinRun is the shortest run that gets collapsed.
const zphMinRun = 3

// zphRun matches one collapsed run. (?s) lets '.' match a newline so runs of
// line breaks survive the round trip.
var zphRun = regexp.MustCompile(`(?s)\{(.):(\d+)\}`)

// ZPHCodec (Zero-Point Hibernation) collapses runs of three or more identical
// characters into {c:n} and leaves shorter runs alone.
//
// Text that already contains a literal {x:n} sequence is expanded on decode;
// such inputs do not round-trip.
type ZPHCodec struct{}

// NewZPHCodec creates a run-collapsing codec.
func NewZPHCodec() *ZPHCodec {
	return &ZPHCodec{}
}

// Algorithm returns AlgorithmZPH.
func (c *ZPHCodec) Algorithm() Algorithm {
	return AlgorithmZPH
}

// Compress collapses runs of zphMinRun or more characters.
func (c *ZPHCodec) Compress(input string, cfg Config) string {
	runes := []rune(cfg.clean(input))

	var b strings.Builder
	b.Grow(len(runes))

	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}

		n := j - i
		if n >= zphMinRun {
			fmt.Fprintf(&b, "{%c:%d}", runes[i], n)
		} else {
			for k := 0; k < n; k++ {
				b.WriteRune(runes[i])
			}
		}
		i = j
	}

	return b.String()
}

// Decompress expands every {c:n} occurrence and leaves everything else untouched.
func (c *ZPHCodec) Decompress(data string) (string, error) {
	var firstErr error
	total := 0

	out := zphRun.ReplaceAllStringFunc(data, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := zphRun.FindStringSubmatch(match)
		count, err := strconv.Atoi(sub[2])
		if err != nil {
			firstErr = fmt.Errorf("%w: run count %q", ErrInvalidPayload, sub[2])
			return match
		}
		if count > maxExpandedRunes-total {
			firstErr = fmt.Errorf("%w: expansion exceeds %d characters", ErrInvalidPayload, maxExpandedRunes)
			return match
		}
		total += count
		return strings.Repeat(sub[1], count)
	})

	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
