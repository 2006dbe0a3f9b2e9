package compression

import (
	"strings"
	"testing"

	"github.com/fyrsmithlabs/middleout/internal/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keepWS  = Config{TargetWeissman: DefaultTargetWeissman, PreserveWhitespace: Bool(true)}
	stripWS = Config{TargetWeissman: DefaultTargetWeissman, PreserveWhitespace: Bool(false)}
)

func fixedSignature() int { return 123 }

func TestRLECodec_Compress(t *testing.T) {
	c := NewRLECodec()

	tests := []struct {
		name  string
		input string
		cfg   Config
		want  string
	}{
		{"repeating characters", "aaabbbccc", keepWS, "a3b3c3"},
		{"non-repeating characters", "abcdef", keepWS, "abcdef"},
		{"mixed repetition", "aabcccccaaa", keepWS, "a2bc5a3"},
		{"empty", "", keepWS, ""},
		{"single character", "x", keepWS, "x"},
		{"multibyte runes", "ééé✓", keepWS, "é3✓"},
		{"whitespace kept", "aa   bb", keepWS, "a2 3b2"},
		{"whitespace stripped", "aa   bb", stripWS, "a2b2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Compress(tt.input, tt.cfg))
		})
	}
}

func TestRLECodec_Decompress(t *testing.T) {
	c := NewRLECodec()

	tests := []struct {
		name string
		data string
		want string
	}{
		{"runs", "a3b3c3", "aaabbbccc"},
		{"no counts", "abcdef", "abcdef"},
		{"multi-digit count", "x12", strings.Repeat("x", 12)},
		{"leading digit is a character", "3a", "3a"},
		{"empty", "", ""},
		{"multibyte", "é3✓", "ééé✓"},
		{"zero count drops the character", "a0b", "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decompress(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRLECodec_Decompress_CountOverflow(t *testing.T) {
	_, err := NewRLECodec().Decompress("a99999999999999999999999")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestRLECodec_Decompress_ExpansionLimit(t *testing.T) {
	c := NewRLECodec()

	_, err := c.Decompress("a999999999")
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = c.Decompress("a600000b600000")
	assert.ErrorIs(t, err, ErrInvalidPayload)

	out, err := c.Decompress("a1048576")
	require.NoError(t, err)
	assert.Len(t, out, maxExpandedRunes)
}

func TestRLECodec_RoundTrip(t *testing.T) {
	c := NewRLECodec()
	for _, input := range []string{"aaabbbccc", "aabcccccaaa", "abcdef", "  spaced   out  ", "zzzzzzzzzzzzzzzz", "ünïcödé"} {
		res := EncodeWith(c, input, keepWS)
		got, err := DecodeWith(c, res.Encoded)
		require.NoError(t, err)
		assert.Equal(t, input, got)
	}
}

func TestSTKCodec(t *testing.T) {
	c := NewSTKCodec()

	input := "The system encountered an unexpected null pointer exception at line 42."
	compressed := c.Compress(input, keepWS)
	assert.Equal(t, "The system encountered an unexpected T3 pointer exception T2 line 42.", compressed)

	got, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestSTKCodec_AllTokens(t *testing.T) {
	c := NewSTKCodec()

	input := "NullPointerException at function foo: value is null or undefined"
	compressed := c.Compress(input, keepWS)
	assert.Equal(t, "NullPointerT1 T2 T5 foo: value is T3 or T4", compressed)

	got, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestSTKCodec_SubstringHazards(t *testing.T) {
	c := NewSTKCodec()

	// "at" inside words is substituted too; the inverse restores it.
	assert.Equal(t, "dT2a", c.Compress("data", keepWS))

	// A literal token in the input is indistinguishable from a substitution.
	compressed := c.Compress("T2 at", keepWS)
	assert.Equal(t, "T2 T2", compressed)
	got, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, "at at", got)
}

func TestSTKCodec_StripsWhitespace(t *testing.T) {
	c := NewSTKCodec()
	compressed := c.Compress("    Fatal: Unexpected spacebar usage.    ", stripWS)
	assert.Equal(t, "Fatal:Unexpectedspacebarusage.", compressed)
}

func TestTNTCodec_Compress(t *testing.T) {
	c := NewTNTCodec(WithSignatureSource(fixedSignature))

	assert.Equal(t, "ab*de*gh|TNT_SIG|123", c.Compress("abcdefgh", keepWS))
	assert.Equal(t, "ab*|TNT_SIG|123", c.Compress("  ab c  ", stripWS))
	assert.Equal(t, "|TNT_SIG|123", c.Compress("", keepWS))
}

func TestTNTCodec_RandomSignature(t *testing.T) {
	c := NewTNTCodec()
	for i := 0; i < 50; i++ {
		out := c.Compress("abc", keepWS)
		require.True(t, strings.HasPrefix(out, "ab*|TNT_SIG|"))
		sig := strings.TrimPrefix(out, "ab*|TNT_SIG|")
		assert.Len(t, sig, 3)
	}
}

func TestTNTCodec_Decompress(t *testing.T) {
	c := NewTNTCodec(WithSignatureSource(fixedSignature))

	got, err := c.Decompress("ab*de*gh|TNT_SIG|123")
	require.NoError(t, err)
	assert.Equal(t, "ab?de?gh", got)

	// Without a signature only the noise is replaced.
	got, err = c.Decompress("ab*")
	require.NoError(t, err)
	assert.Equal(t, "ab?", got)
}

func TestTNTCodec_IsDeterministicApartFromSignature(t *testing.T) {
	c := NewTNTCodec()
	input := "Kaboom: bytes have been toggled!"

	first, err := DecodeWith(c, EncodeWith(c, input, keepWS).Encoded)
	require.NoError(t, err)
	second, err := DecodeWith(c, EncodeWith(c, input, keepWS).Encoded)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Ka?oo?: ?yt?s ?av? b?en?to?gl?d!", first)
}

func TestZPHCodec_Compress(t *testing.T) {
	c := NewZPHCodec()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"run of three collapses", "aaa", "{a:3}"},
		{"run of two stays", "aa", "aa"},
		{"mixed", "aaaabccddddd", "{a:4}bcc{d:5}"},
		{"no runs", "The vibes are immaculate.", "The vibes are immaculate."},
		{"newlines", "x\n\n\ny", "x{\n:3}y"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Compress(tt.input, keepWS))
		})
	}
}

func TestZPHCodec_Decompress(t *testing.T) {
	c := NewZPHCodec()

	got, err := c.Decompress("{a:10}bcd{e:3}")
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaabcdeee", got)

	got, err = c.Decompress("plain {text} here")
	require.NoError(t, err)
	assert.Equal(t, "plain {text} here", got)
}

func TestZPHCodec_Decompress_ExpansionLimit(t *testing.T) {
	c := NewZPHCodec()

	_, err := c.Decompress("{a:999999999}")
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = c.Decompress("{a:600000}{b:600000}")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestZPHCodec_RoundTrip(t *testing.T) {
	c := NewZPHCodec()
	for _, input := range []string{"aaa", "aa", "     Sacred spacing preserved.     ", "x\n\n\n\ny", "1112223333", "ööö"} {
		res := EncodeWith(c, input, keepWS)
		got, err := DecodeWith(c, res.Encoded)
		require.NoError(t, err)
		assert.Equal(t, input, got)
	}
}

func TestMiddleOutCodec_Compress(t *testing.T) {
	c := NewMiddleOutCodec()

	assert.Equal(t, "abc...ghi", c.Compress("abcdefghi", keepWS))
	assert.Equal(t, "abc...hij", c.Compress("abcdefghij", keepWS))
	assert.Equal(t, "...", c.Compress("ab", keepWS))
	assert.Equal(t, "...", c.Compress("", keepWS))
	assert.Equal(t, "paddedl...website", c.Compress("   padded like a 2000s website   ", stripWS))
	assert.Equal(t, "ab...éf", c.Compress("abcdéf", keepWS))
}

func TestMiddleOutCodec_Decompress(t *testing.T) {
	c := NewMiddleOutCodec()

	tests := []struct {
		data string
		want string
	}{
		{"abc...ghi", "abc[...MISSING_MIDDLE...]ghi"},
		{"...", "[...MISSING_MIDDLE...]"},
		{"a...b...c", "a[...MISSING_MIDDLE...]b...c"},
		{"abc", "abc[...MISSING_MIDDLE...]"},
	}

	for _, tt := range tests {
		got, err := c.Decompress(tt.data)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestMiddleOutCodec_Recover(t *testing.T) {
	c := NewMiddleOutCodec()

	assert.Equal(t, "[RAW_RECOVERY_MODE] cba", c.Recover("μabcμ", RecoveryRaw))
	assert.Equal(t, "[DECODE_FAIL_FALLBACK] EDOC::DILAVNI::KTS", c.Recover("STK::INVALID::CODE", RecoveryFallback))
	assert.Equal(t, "[RAW_RECOVERY_MODE] ✓é", c.Recover("é✓", RecoveryRaw))
	assert.Equal(t, "[DECODE_FAIL_FALLBACK] ", c.Recover("", RecoveryFallback))
}

func allCodecs() []Codec {
	return []Codec{
		NewRLECodec(),
		NewSTKCodec(),
		NewTNTCodec(WithSignatureSource(fixedSignature)),
		NewZPHCodec(),
		NewMiddleOutCodec(),
	}
}

func TestCodecs_RejectForeignTags(t *testing.T) {
	for _, c := range allCodecs() {
		t.Run(string(c.Algorithm()), func(t *testing.T) {
			foreign := AlgorithmRLE
			if c.Algorithm() == AlgorithmRLE {
				foreign = AlgorithmZPH
			}

			_, err := DecodeWith(c, envelope.Encode(string(foreign), "abc", 1))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAlgorithmMismatch)

			var mismatch *AlgorithmMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, c.Algorithm(), mismatch.Expected)
			assert.Equal(t, string(foreign), mismatch.Got)
		})
	}
}

func TestCodecs_PropagateFormatErrors(t *testing.T) {
	for _, c := range allCodecs() {
		t.Run(string(c.Algorithm()), func(t *testing.T) {
			_, err := DecodeWith(c, strings.ToUpper(string(c.Algorithm()))+"::INVALID::CODE")
			assert.ErrorIs(t, err, envelope.ErrFormat)
		})
	}
}

func TestCodecs_StripWhitespace(t *testing.T) {
	input := "    We trimmed the metaphysical fat.     "

	for _, c := range allCodecs() {
		t.Run(string(c.Algorithm()), func(t *testing.T) {
			res := EncodeWith(c, input, stripWS)
			assert.NotContains(t, res.Compressed, " ")

			out, err := DecodeWith(c, res.Encoded)
			require.NoError(t, err)
			assert.False(t, strings.HasPrefix(out, " "), "output %q starts with whitespace", out)
			assert.False(t, strings.HasSuffix(out, " "), "output %q ends with whitespace", out)
		})
	}
}

func TestCodecs_PreserveWhitespaceByDefault(t *testing.T) {
	input := "   maintain my sacred indents   "

	for _, c := range allCodecs() {
		t.Run(string(c.Algorithm()), func(t *testing.T) {
			res := EncodeWith(c, input, Config{})
			out, err := DecodeWith(c, res.Encoded)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, " "), "output %q lost leading whitespace", out)
		})
	}
}

func TestEncodeWith(t *testing.T) {
	res := EncodeWith(NewRLECodec(), "aaabbbccc", keepWS)

	assert.Equal(t, "aaabbbccc", res.Original)
	assert.Equal(t, "a3b3c3", res.Compressed)
	assert.Equal(t, 9, res.OriginalSize)
	assert.Equal(t, 6, res.CompressedSize)
	assert.Equal(t, AlgorithmRLE, res.Algorithm)
	assert.InDelta(t, 4.66096, res.Score, 1e-4)
	assert.Equal(t, "MO::rle:a3b3c3::WEISSMAN::4.66", res.Encoded)
	assert.InDelta(t, 1.5, res.Ratio(), 1e-9)
}

func TestEncodeWith_SizesCountOriginalInput(t *testing.T) {
	res := EncodeWith(NewRLECodec(), "aa   bb", stripWS)
	assert.Equal(t, 7, res.OriginalSize)
	assert.Equal(t, 4, res.CompressedSize)
}
