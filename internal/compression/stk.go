package compression

import "strings"

// stkPair maps a literal phrase to its short token.
type stkPair struct {
	phrase string
	token  string
}

// stkPairs is applied in this exact order in both directions. Substitutions
// are plain substring matches, so the order decides how overlapping phrases
// and tokens interact; changing it changes the output of existing envelopes.
var stkPairs = []stkPair{
	{phrase: "Exception", token: "T1"},
	{phrase: "at", token: "T2"},
	{phrase: "null", token: "T3"},
	{phrase: "undefined", token: "T4"},
	{phrase: "function", token: "T5"},
}

// STKCodec (Stack Trace Kompression) replaces common diagnostic vocabulary
// with the tokens T1..T5.
type STKCodec struct{}

// NewSTKCodec creates a token-substitution codec.
func NewSTKCodec() *STKCodec {
	return &STKCodec{}
}

// Algorithm returns AlgorithmSTK.
func (c *STKCodec) Algorithm() Algorithm {
	return AlgorithmSTK
}

// Compress replaces every case-sensitive occurrence of each phrase, one pass per phrase.
func (c *STKCodec) Compress(input string, cfg Config) string {
	out := cfg.clean(input)
	for _, p := range stkPairs {
		out = strings.ReplaceAll(out, p.phrase, p.token)
	}
	return out
}

// Decompress replaces every token with its phrase, in the same order as Compress.
func (c *STKCodec) Decompress(data string) (string, error) {
	out := data
	for _, p := range stkPairs {
		out = strings.ReplaceAll(out, p.token, p.phrase)
	}
	return out, nil
}
