// Package envelope implements the tagged wire format that carries a transformed
// payload together with the algorithm that produced it and its Weissman score:
//
//	MO::<algorithm>:<data>::WEISSMAN::<score>
//
// The score is always rendered with exactly two fractional digits. The payload
// is not escaped, so data containing "::" cannot be parsed back reliably.
package envelope

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Prefix opens every envelope.
	Prefix = "MO::"

	// ScoreMarker separates the payload from the score.
	ScoreMarker = "::WEISSMAN::"

	// maxQuotedInput bounds how much of a bad input is echoed back in errors.
	maxQuotedInput = 64
)

// ErrFormat indicates a string does not match the envelope grammar.
// Use errors.Is(err, ErrFormat) to check for it.
var ErrFormat = errors.New("invalid envelope format")

// pattern mirrors the grammar: the algorithm is the shortest run of non-':'
// characters, the data is non-greedy up to the score marker (newlines
// included), and the score is a run of digits and dots anchored at the end.
var pattern = regexp.MustCompile(`(?s)^MO::([^:]+):(.*?)::WEISSMAN::([0-9.]+)$`)

// FormatError describes why an envelope could not be parsed.
type FormatError struct {
	Input  string // offending input, truncated
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s (input %q)", ErrFormat.Error(), e.Reason, e.Input)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

func newFormatError(input, reason string) error {
	if len(input) > maxQuotedInput {
		input = input[:maxQuotedInput] + "..."
	}
	return &FormatError{Input: input, Reason: reason}
}

// Envelope is the parsed form of a wire string.
type Envelope struct {
	Algorithm string
	Data      string
	Score     float64
}

// String serializes the envelope back to its wire form.
func (e Envelope) String() string {
	return Encode(e.Algorithm, e.Data, e.Score)
}

// Encode produces MO::{algorithm}:{data}::WEISSMAN::{score} with the score
// formatted to two decimal places.
func Encode(algorithm, data string, score float64) string {
	var b strings.Builder
	b.Grow(len(Prefix) + len(algorithm) + 1 + len(data) + len(ScoreMarker) + 8)
	b.WriteString(Prefix)
	b.WriteString(algorithm)
	b.WriteByte(':')
	b.WriteString(data)
	b.WriteString(ScoreMarker)
	b.WriteString(FormatScore(score))
	return b.String()
}

// FormatScore renders a score the way the envelope carries it.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

// Decode parses a wire string. Every failure is a *FormatError.
func Decode(encoded string) (Envelope, error) {
	if !strings.HasPrefix(encoded, Prefix) {
		return Envelope{}, newFormatError(encoded, "missing "+Prefix+" prefix")
	}
	if !strings.Contains(encoded, ScoreMarker) {
		return Envelope{}, newFormatError(encoded, "missing "+ScoreMarker+" marker")
	}

	m := pattern.FindStringSubmatch(encoded)
	if m == nil {
		return Envelope{}, newFormatError(encoded, "does not match MO::<algorithm>:<data>::WEISSMAN::<score>")
	}

	rawScore := m[3]
	if strings.Count(rawScore, ".") > 1 || rawScore == "." {
		return Envelope{}, newFormatError(encoded, fmt.Sprintf("malformed score %q", rawScore))
	}
	score, err := strconv.ParseFloat(rawScore, 64)
	if err != nil {
		return Envelope{}, newFormatError(encoded, fmt.Sprintf("malformed score %q", rawScore))
	}

	return Envelope{
		Algorithm: m[1],
		Data:      m[2],
		Score:     score,
	}, nil
}

// Algorithm extracts only the algorithm tag of a wire string.
func Algorithm(encoded string) (string, error) {
	env, err := Decode(encoded)
	if err != nil {
		return "", err
	}
	return env.Algorithm, nil
}
