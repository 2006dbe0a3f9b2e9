package compression

import (
	"fmt"
	"strconv"
	"strings"
)

// RLECodec implements run-length encoding: a run of the same character is
// written as the character followed by the run length, with the length
// omitted for runs of one ("aabcccccaaa" -> "a2bc5a3").
//
// Inputs containing decimal digits do not round-trip, because digits are
// indistinguishable from run lengths.
type RLECodec struct{}

// NewRLECodec creates a run-length codec.
func NewRLECodec() *RLECodec {
	return &RLECodec{}
}

// Algorithm returns AlgorithmRLE.
func (c *RLECodec) Algorithm() Algorithm {
	return AlgorithmRLE
}

// Compress encodes maximal runs of identical characters.
func (c *RLECodec) Compress(input string, cfg Config) string {
	runes := []rune(cfg.clean(input))

	var b strings.Builder
	b.Grow(len(runes))

	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		b.WriteRune(runes[i])
		if n := j - i; n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
		i = j
	}

	return b.String()
}

// Decompress expands each character by the digits that follow it, defaulting
// to a count of one.
func (c *RLECodec) Decompress(data string) (string, error) {
	runes := []rune(data)

	var b strings.Builder
	b.Grow(len(data))

	total := 0
	for i := 0; i < len(runes); i++ {
		char := runes[i]

		j := i + 1
		for j < len(runes) && isDigit(runes[j]) {
			j++
		}

		count := 1
		if j > i+1 {
			n, err := strconv.Atoi(string(runes[i+1 : j]))
			if err != nil {
				return "", fmt.Errorf("%w: run count %q at offset %d", ErrInvalidPayload, string(runes[i+1:j]), i+1)
			}
			count = n
		}
		if count > maxExpandedRunes-total {
			return "", fmt.Errorf("%w: expansion exceeds %d characters at offset %d", ErrInvalidPayload, maxExpandedRunes, i)
		}
		total += count

		for k := 0; k < count; k++ {
			b.WriteRune(char)
		}
		i = j - 1
	}

	return b.String(), nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
