package compression

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Algorithm names a codec. It is also the tag written into envelopes.
type Algorithm string

const (
	// AlgorithmRLE is run-length encoding.
	AlgorithmRLE Algorithm = "rle"
	// AlgorithmSTK substitutes common stack-trace vocabulary with short tokens.
	AlgorithmSTK Algorithm = "stk"
	// AlgorithmTNT replaces every third character with noise (lossy).
	AlgorithmTNT Algorithm = "tnt"
	// AlgorithmZPH collapses runs of three or more characters into {c:n}.
	AlgorithmZPH Algorithm = "zph"
	// AlgorithmMiddleOut keeps the outer thirds of the input (lossy).
	AlgorithmMiddleOut Algorithm = "middle-out"
)

// DefaultAlgorithm is used whenever a requested algorithm is absent or unknown.
const DefaultAlgorithm = AlgorithmMiddleOut

// Algorithms returns the closed set of supported algorithms in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmRLE, AlgorithmSTK, AlgorithmTNT, AlgorithmZPH, AlgorithmMiddleOut}
}

// IsValid returns true if the algorithm is one of the supported codecs.
func (a Algorithm) IsValid() bool {
	switch a {
	case AlgorithmRLE, AlgorithmSTK, AlgorithmTNT, AlgorithmZPH, AlgorithmMiddleOut:
		return true
	default:
		return false
	}
}

func (a Algorithm) String() string {
	return string(a)
}

// Description is a one-line human summary of the codec.
func (a Algorithm) Description() string {
	switch a {
	case AlgorithmRLE:
		return "Run-Length Encoding"
	case AlgorithmSTK:
		return "Stack Trace Kompression: common diagnostic phrases become T1..T5"
	case AlgorithmTNT:
		return "Tokenized Noise Truncation: every third character becomes noise (lossy)"
	case AlgorithmZPH:
		return "Zero-Point Hibernation: runs of 3+ characters become {c:n}"
	case AlgorithmMiddleOut:
		return "Middle-out: the middle third is discarded (lossy)"
	default:
		return ""
	}
}

// Lossy reports whether Decompress cannot reproduce the original input.
func (a Algorithm) Lossy() bool {
	return a == AlgorithmTNT || a == AlgorithmMiddleOut
}

// ParseAlgorithm resolves a name to an Algorithm. Empty or unrecognized names
// resolve to DefaultAlgorithm with ok=false; this is not an error.
func ParseAlgorithm(name string) (Algorithm, bool) {
	a := Algorithm(strings.TrimSpace(name))
	if a.IsValid() {
		return a, true
	}
	return DefaultAlgorithm, false
}

// Config is the already-validated configuration every operation receives.
// It is passed by value and never modified.
type Config struct {
	// Algorithm is the codec used when a call does not name one.
	Algorithm Algorithm

	// AggressionLevel (0-10) is only meaningful to middle-out style
	// transforms. It is recorded on spans and logs.
	AggressionLevel int

	// PreserveWhitespace keeps whitespace in the input. Nil means true.
	PreserveWhitespace *bool

	// TargetWeissman tunes the score estimator.
	TargetWeissman float64

	// Raw requests raw-recovery mode on decompress.
	Raw bool
}

// DefaultConfig returns a config with whitespace preserved and the default target score.
func DefaultConfig() Config {
	return Config{
		Algorithm:      DefaultAlgorithm,
		TargetWeissman: DefaultTargetWeissman,
	}
}

// Bool returns a pointer to v, for populating Config.PreserveWhitespace.
func Bool(v bool) *bool {
	return &v
}

// KeepWhitespace reports whether whitespace survives input cleaning.
func (c Config) KeepWhitespace() bool {
	if c.PreserveWhitespace == nil {
		return true
	}
	return *c.PreserveWhitespace
}

// Validate checks the ranges the core relies on.
func (c Config) Validate() error {
	if c.Algorithm != "" && !c.Algorithm.IsValid() {
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, c.Algorithm)
	}
	if c.AggressionLevel < 0 || c.AggressionLevel > 10 {
		return fmt.Errorf("%w: aggression level must be between 0 and 10, got %d", ErrInvalidConfig, c.AggressionLevel)
	}
	if math.IsNaN(c.TargetWeissman) || math.IsInf(c.TargetWeissman, 0) || c.TargetWeissman < 0 {
		return fmt.Errorf("%w: target weissman must be a finite number >= 0, got %v", ErrInvalidConfig, c.TargetWeissman)
	}
	return nil
}

// clean applies the whitespace policy. Stripping removes all whitespace.
func (c Config) clean(input string) string {
	if c.KeepWhitespace() {
		return input
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
}

// Codec is one named, reversible (or deliberately lossy) transform.
type Codec interface {
	// Algorithm returns the codec's identity, used as the envelope tag.
	Algorithm() Algorithm

	// Compress transforms input. The whitespace policy in cfg is applied first.
	Compress(input string, cfg Config) string

	// Decompress inverts a payload produced by Compress.
	Decompress(data string) (string, error)
}

// Result describes one compress call.
type Result struct {
	Original       string    `json:"original"`
	Compressed     string    `json:"compressed"`
	OriginalSize   int       `json:"originalSize"`
	CompressedSize int       `json:"compressedSize"`
	Algorithm      Algorithm `json:"algorithm"`
	Score          float64   `json:"weissmanScore"`
	Encoded        string    `json:"encoded"`
}

// Ratio returns OriginalSize/CompressedSize, or 0 when nothing was produced.
func (r *Result) Ratio() float64 {
	if r.CompressedSize == 0 {
		return 0
	}
	return float64(r.OriginalSize) / float64(r.CompressedSize)
}
