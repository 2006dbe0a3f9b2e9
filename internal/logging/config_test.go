package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.True(t, cfg.Output.Stderr)
	assert.False(t, cfg.Output.OTEL)
	assert.True(t, cfg.Sampling.Enabled)
	assert.Equal(t, time.Second, cfg.Sampling.Tick)
	assert.True(t, cfg.Redaction.Enabled)
	assert.ElementsMatch(t, PayloadFields, cfg.Redaction.Payloads)
	assert.Equal(t, "middleout", cfg.Fields["service"])
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"invalid format", func(c *Config) { c.Format = "xml" }, "format must be 'json' or 'console'"},
		{"no output", func(c *Config) { c.Output = OutputConfig{} }, "at least one output"},
		{"zero tick", func(c *Config) { c.Sampling.Tick = 0 }, "sampling tick"},
		{"negative caller skip", func(c *Config) { c.Caller = CallerConfig{Enabled: true, Skip: -1} }, "caller skip"},
		{"bad pattern", func(c *Config) { c.Redaction.Patterns = []string{"("} }, "invalid redaction pattern"},
		{"empty field key", func(c *Config) { c.Fields = map[string]string{"": "x"} }, "field key cannot be empty"},
		{"empty field value", func(c *Config) { c.Fields = map[string]string{"env": ""} }, `field "env" has empty value`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_Validate_SamplingDisabledIgnoresTick(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sampling = SamplingConfig{Enabled: false}
	assert.NoError(t, cfg.Validate())
}
