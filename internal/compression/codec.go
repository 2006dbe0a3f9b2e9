package compression

import (
	"fmt"
	"unicode/utf8"

	"github.com/fyrsmithlabs/middleout/internal/envelope"
)

// maxExpandedRunes caps how far a run-length style payload (rle, zph) may
// expand on decode.
const maxExpandedRunes = 1 << 20

// EncodeWith compresses input with codec and wraps the payload in an envelope.
func EncodeWith(codec Codec, input string, cfg Config) *Result {
	compressed := codec.Compress(input, cfg)
	algo := codec.Algorithm()

	originalSize := utf8.RuneCountInString(input)
	compressedSize := utf8.RuneCountInString(compressed)
	score := EstimateScore(string(algo), originalSize, compressedSize, cfg.TargetWeissman)

	return &Result{
		Original:       input,
		Compressed:     compressed,
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		Algorithm:      algo,
		Score:          score,
		Encoded:        envelope.Encode(string(algo), compressed, score),
	}
}

// DecodeWith parses an envelope and inverts it with codec. Every codec
// validates the envelope tag against its own identity: a foreign tag fails
// with *AlgorithmMismatchError before any payload is touched. Parse failures
// are returned as *envelope.FormatError.
func DecodeWith(codec Codec, encoded string) (string, error) {
	env, err := envelope.Decode(encoded)
	if err != nil {
		return "", err
	}

	if env.Algorithm != string(codec.Algorithm()) {
		return "", &AlgorithmMismatchError{Expected: codec.Algorithm(), Got: env.Algorithm}
	}

	out, err := codec.Decompress(env.Data)
	if err != nil {
		return "", fmt.Errorf("%s decompress: %w", codec.Algorithm(), err)
	}
	return out, nil
}
