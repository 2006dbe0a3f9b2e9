package compression

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

const (
	// tntNoise replaces every third character on compress.
	tntNoise = '*'
	// tntPlaceholder replaces noise on decompress.
	tntPlaceholder = "?"
	// tntSignatureMarker precedes the random signature appended on compress.
	tntSignatureMarker = "|TNT_SIG|"
)

var tntSignature = regexp.MustCompile(`\|TNT_SIG\|\d+$`)

// SignatureSource returns the three-digit signature TNT appends to a payload.
type SignatureSource func() int

// randomSignature draws from [100, 999]. The top-level math/rand/v2 functions
// are safe for concurrent use.
func randomSignature() int {
	return rand.IntN(900) + 100
}

// TNTCodec (Tokenized Noise Truncation) is permanently lossy: every third
// character is replaced with '*' and a random signature is appended.
// Decompressing yields the noisy text with '?' placeholders.
type TNTCodec struct {
	signature SignatureSource
}

// TNTOption configures a TNTCodec.
type TNTOption func(*TNTCodec)

// WithSignatureSource overrides the random signature, for deterministic output.
func WithSignatureSource(src SignatureSource) TNTOption {
	return func(c *TNTCodec) {
		if src != nil {
			c.signature = src
		}
	}
}

// NewTNTCodec creates a noise-injection codec.
func NewTNTCodec(opts ...TNTOption) *TNTCodec {
	c := &TNTCodec{signature: randomSignature}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Algorithm returns AlgorithmTNT.
func (c *TNTCodec) Algorithm() Algorithm {
	return AlgorithmTNT
}

// Compress replaces characters 3, 6, 9... (1-indexed) with '*' and appends the signature.
func (c *TNTCodec) Compress(input string, cfg Config) string {
	runes := []rune(cfg.clean(input))
	for i := range runes {
		if (i+1)%3 == 0 {
			runes[i] = tntNoise
		}
	}

	var b strings.Builder
	b.Grow(len(runes) + len(tntSignatureMarker) + 3)
	b.WriteString(string(runes))
	b.WriteString(tntSignatureMarker)
	b.WriteString(strconv.Itoa(c.signature()))
	return b.String()
}

// Decompress strips the trailing signature and turns noise into '?'.
func (c *TNTCodec) Decompress(data string) (string, error) {
	base := tntSignature.ReplaceAllString(data, "")
	return strings.ReplaceAll(base, string(tntNoise), tntPlaceholder), nil
}
