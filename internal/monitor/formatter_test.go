package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"rate", FormatRate(45.67), "45.7 req/min"},
		{"rate zero", FormatRate(0), "0.0 req/min"},

		{"latency zero", FormatLatency(0), "0.0ms"},
		{"latency micro", FormatLatency(0.000250), "250µs"},
		{"latency milli", FormatLatency(0.0123), "12.3ms"},
		{"latency seconds", FormatLatency(2.5), "2.50s"},

		{"ratio", FormatRatio(0.1), "10.0%"},
		{"ratio full", FormatRatio(1), "100.0%"},

		{"bytes", FormatBytes(512), "512 B"},
		{"kilobytes", FormatBytes(1536), "1.5 KB"},
		{"megabytes", FormatBytes(24.5 * (1 << 20)), "24.5 MB"},
		{"gigabytes", FormatBytes(3 << 30), "3.0 GB"},

		{"uptime minutes", FormatUptime(7*time.Minute + 59*time.Second), "7m"},
		{"uptime hours", FormatUptime(2*time.Hour + 15*time.Minute), "2h 15m"},
		{"uptime days", FormatUptime(76 * time.Hour), "3d 4h"},
		{"uptime negative", FormatUptime(-time.Minute), "0m"},

		{"count small", FormatCount(950), "950"},
		{"count thousands", FormatCount(9999), "9999"},
		{"count ten thousands", FormatCount(12300), "12.3k"},
		{"count millions", FormatCount(4_500_000), "4.5M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
