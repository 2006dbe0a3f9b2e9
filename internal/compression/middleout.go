package compression

import (
	"strings"
)

const (
	// middleOutSeparator joins the kept outer thirds.
	middleOutSeparator = "..."
	// middleOutPlaceholder stands in for the discarded middle on decompress.
	middleOutPlaceholder = "[...MISSING_MIDDLE...]"
	// strayMarker is stripped from input before raw recovery.
	strayMarker = "μ"
)

// RecoveryMode labels the output of raw recovery.
type RecoveryMode string

const (
	// RecoveryRaw is used when the caller asked for raw recovery.
	RecoveryRaw RecoveryMode = "[RAW_RECOVERY_MODE]"
	// RecoveryFallback is used when normal decoding failed.
	RecoveryFallback RecoveryMode = "[DECODE_FAIL_FALLBACK]"
)

// MiddleOutCodec keeps the first and last thirds of the input and discards
// the middle. Decompress cannot restore the middle; it inserts a placeholder.
//
// The codec also owns raw recovery, the terminal fallback of the whole
// dispatcher.
type MiddleOutCodec struct{}

// NewMiddleOutCodec creates a middle-out codec.
func NewMiddleOutCodec() *MiddleOutCodec {
	return &MiddleOutCodec{}
}

// Algorithm returns AlgorithmMiddleOut.
func (c *MiddleOutCodec) Algorithm() Algorithm {
	return AlgorithmMiddleOut
}

// Compress returns first k + "..." + last k characters, k = floor(len/3).
func (c *MiddleOutCodec) Compress(input string, cfg Config) string {
	runes := []rune(cfg.clean(input))
	k := len(runes) / 3

	var b strings.Builder
	b.Grow(2*k + len(middleOutSeparator))
	b.WriteString(string(runes[:k]))
	b.WriteString(middleOutSeparator)
	b.WriteString(string(runes[len(runes)-k:]))
	return b.String()
}

// Decompress splits on the first "..." and puts the placeholder between the halves.
func (c *MiddleOutCodec) Decompress(data string) (string, error) {
	start, end, _ := strings.Cut(data, middleOutSeparator)
	return start + middleOutPlaceholder + end, nil
}

// Recover is raw-recovery mode: stray markers are removed, the string is
// reversed and prefixed with the mode label. It never fails.
func (c *MiddleOutCodec) Recover(s string, mode RecoveryMode) string {
	return Recover(s, mode)
}

// Recover is the codec-independent form of MiddleOutCodec.Recover.
func Recover(s string, mode RecoveryMode) string {
	runes := []rune(strings.ReplaceAll(s, strayMarker, ""))
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(mode) + " " + string(runes)
}
