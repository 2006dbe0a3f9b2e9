package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestRedactor_Field(t *testing.T) {
	r, err := NewRedactor(NewDefaultConfig().Redaction)
	require.NoError(t, err)

	tests := []struct {
		name  string
		field zap.Field
		want  string
	}{
		{"payload keeps length", zap.String("input", "aaabbbccc"), "[REDACTED:9]"},
		{"payload key is case insensitive", zap.String("Envelope", "MO::"), "[REDACTED:4]"},
		{"secret", zap.String("authorization", "Basic xyz"), "[REDACTED]"},
		{"pattern", zap.String("header", "Bearer abc.def"), "[REDACTED:pattern]"},
		{"untouched", zap.String("algorithm", "zph"), "zph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Field(tt.field)
			assert.Equal(t, zapcore.StringType, got.Type)
			assert.Equal(t, tt.want, got.String)
		})
	}
}

func TestRedactor_NonStringPayload(t *testing.T) {
	r, err := NewRedactor(NewDefaultConfig().Redaction)
	require.NoError(t, err)

	got := r.Field(zap.Int("payload", 42))
	assert.Equal(t, "[REDACTED]", got.String)
}

func TestRedactor_FieldsCopiesOnlyOnChange(t *testing.T) {
	r, err := NewRedactor(NewDefaultConfig().Redaction)
	require.NoError(t, err)

	clean := []zap.Field{zap.String("algorithm", "rle"), zap.Int("size", 3)}
	assert.Same(t, &clean[0], &r.Fields(clean)[0])

	dirty := []zap.Field{zap.String("algorithm", "rle"), zap.String("input", "abc")}
	out := r.Fields(dirty)
	assert.Equal(t, "abc", dirty[1].String)
	assert.Equal(t, "[REDACTED:3]", out[1].String)
}

func TestNewRedactor_Errors(t *testing.T) {
	_, err := NewRedactor(RedactionConfig{Enabled: true, Patterns: []string{"("}})
	assert.Error(t, err)

	long := make([]byte, maxPatternLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = NewRedactor(RedactionConfig{Enabled: true, Patterns: []string{string(long)}})
	assert.Error(t, err)
}

func TestRedactedTestLogger(t *testing.T) {
	logger := NewRedactedTestLogger()
	logger.Info(context.Background(), "compressed", zap.String("input", "hello"))

	logger.AssertField(t, "compressed", "input", "[REDACTED:5]")
	logger.AssertNoPayloads(t)
}

func TestRedactedString(t *testing.T) {
	f := RedactedString("output", "ab✓")
	assert.Equal(t, "[REDACTED:3]", f.String)
}
