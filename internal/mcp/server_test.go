package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/logging"
	"github.com/fyrsmithlabs/middleout/internal/telemetry"
)

func newTestServer(t *testing.T) (*Server, *telemetry.TestTelemetry) {
	t.Helper()

	tel := telemetry.NewTestTelemetry()
	logger := logging.NewTestLogger()
	svc, err := compression.NewService(
		compression.WithRegistry(compression.DefaultRegistry(
			compression.WithSignatureSource(func() int { return 123 }),
		)),
		compression.WithLogger(logger.Logger),
	)
	require.NoError(t, err)

	s, err := NewServer(&Config{
		Name:          "middleout-test",
		Version:       "0.0.1",
		Logger:        logger.Logger,
		Defaults:      compression.DefaultConfig(),
		MeterProvider: tel.MeterProvider(),
	}, svc)
	require.NoError(t, err)
	return s, tel
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)

	svc, err := compression.NewService()
	require.NoError(t, err)

	_, err = NewServer(&Config{Defaults: compression.Config{AggressionLevel: 20}}, svc)
	assert.ErrorIs(t, err, compression.ErrInvalidConfig)

	s, err := NewServer(nil, svc)
	require.NoError(t, err)
	assert.NotNil(t, s.mcp)
}

func TestCompressTool(t *testing.T) {
	s, tel := newTestServer(t)
	ctx := context.Background()

	res, out, err := s.handleCompress(ctx, nil, compressInput{Input: "aaabbbccc", Algorithm: "rle"})
	require.NoError(t, err)
	assert.Equal(t, "MO::rle:a3b3c3::WEISSMAN::4.66", textOf(t, res))
	assert.Equal(t, "rle", out.Algorithm)
	assert.Equal(t, "a3b3c3", out.Compressed)
	assert.Equal(t, 9, out.OriginalSize)
	assert.Equal(t, 6, out.CompressedSize)

	strip := false
	_, out, err = s.handleCompress(ctx, nil, compressInput{Input: "z z z z", Algorithm: "zph", PreserveWhitespace: &strip})
	require.NoError(t, err)
	assert.Equal(t, "{z:4}", out.Compressed)

	_, out, err = s.handleCompress(ctx, nil, compressInput{Input: "abcdefghi"})
	require.NoError(t, err)
	assert.Equal(t, "middle-out", out.Algorithm)

	assert.Equal(t, int64(3), tel.CounterValue(t, "middleout.mcp.tool.invocations_total",
		attribute.String("tool", "compress")))
}

func TestCompressTool_InvalidOptions(t *testing.T) {
	s, tel := newTestServer(t)

	level := 11
	_, _, err := s.handleCompress(context.Background(), nil, compressInput{Input: "abc", AggressionLevel: &level})
	require.Error(t, err)
	assert.ErrorIs(t, err, compression.ErrInvalidConfig)

	assert.Equal(t, int64(1), tel.CounterValue(t, "middleout.mcp.tool.errors_total",
		attribute.String("tool", "compress"),
		attribute.String("reason", "validation_error"),
	))
}

func TestDecompressTool(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		args     decompressInput
		want     string
		degraded bool
	}{
		{"rle", decompressInput{Encoded: "MO::rle:a3b3c3::WEISSMAN::4.66"}, "aaabbbccc", false},
		{"tnt", decompressInput{Encoded: "MO::tnt:ab*de*|TNT_SIG|123::WEISSMAN::5.00"}, "ab?de?", false},
		{"malformed", decompressInput{Encoded: "STK::INVALID::CODE"}, "[DECODE_FAIL_FALLBACK] EDOC::DILAVNI::KTS", true},
		{"raw", decompressInput{Encoded: "abc", Raw: true}, "[RAW_RECOVERY_MODE] cba", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, out, err := s.handleDecompress(ctx, nil, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, textOf(t, res))
			assert.Equal(t, tt.want, out.Output)
			assert.Equal(t, tt.degraded, out.Degraded)
		})
	}
}

func TestScoreTool(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, out, err := s.handleScore(ctx, nil, scoreInput{Algorithm: "rle", OriginalSize: 9, CompressedSize: 6})
	require.NoError(t, err)
	assert.InDelta(t, 4.66096, out.Score, 1e-4)
	assert.Equal(t, "4.66", out.Formatted)
	assert.Equal(t, "Weissman score for rle: 4.66", textOf(t, res))

	target := 0.0
	_, out, err = s.handleScore(ctx, nil, scoreInput{Algorithm: "stk", OriginalSize: 5, CompressedSize: 0, TargetWeissman: &target})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.Score, 1e-9)

	_, _, err = s.handleScore(ctx, nil, scoreInput{Algorithm: "lzma", OriginalSize: 1, CompressedSize: 1})
	assert.ErrorContains(t, err, "invalid algorithm")

	_, _, err = s.handleScore(ctx, nil, scoreInput{Algorithm: "rle", OriginalSize: -1})
	assert.ErrorContains(t, err, "invalid sizes")
	assert.ErrorIs(t, err, errInvalidArgument)
}

func TestDecompressTool_CountsDegraded(t *testing.T) {
	s, tel := newTestServer(t)
	ctx := context.Background()

	_, _, err := s.handleDecompress(ctx, nil, decompressInput{Encoded: "STK::INVALID::CODE"})
	require.NoError(t, err)
	_, _, err = s.handleDecompress(ctx, nil, decompressInput{Encoded: "MO::rle:a3::WEISSMAN::4.66"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), tel.CounterValue(t, "middleout.mcp.decompress.degraded_total",
		attribute.String("reason", "format")))
}

func TestErrorReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: bad", errInvalidArgument), "validation_error"},
		{fmt.Errorf("compress failed: %w", compression.ErrInvalidConfig), "validation_error"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("boom"), "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorReason(tt.err), tt.err.Error())
	}
}

func TestAlgorithmsTool(t *testing.T) {
	s, _ := newTestServer(t)

	res, out, err := s.handleAlgorithms(context.Background(), nil, algorithmsInput{})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Count)
	assert.Equal(t, "middle-out", out.Default)
	assert.Equal(t, "Found 5 algorithms (default: middle-out)", textOf(t, res))

	cfg := compression.DefaultConfig()
	cfg.Algorithm = compression.AlgorithmSTK
	require.NoError(t, s.SetDefaults(cfg))

	_, out, err = s.handleAlgorithms(context.Background(), nil, algorithmsInput{})
	require.NoError(t, err)
	assert.Equal(t, "stk", out.Default)

	assert.ErrorIs(t, s.SetDefaults(compression.Config{TargetWeissman: -1}), compression.ErrInvalidConfig)
}

func TestServer_InMemorySession(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"compress", "decompress", "score", "algorithms"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "compress",
		Arguments: map[string]any{"input": "aaabbbccc", "algorithm": "rle"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "MO::rle:a3b3c3::WEISSMAN::4.66", textOf(t, res))

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "decompress",
		Arguments: map[string]any{"encoded": "MO::rle:a3b3c3::WEISSMAN::4.66"},
	})
	require.NoError(t, err)
	assert.Equal(t, "aaabbbccc", textOf(t, res))

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "score",
		Arguments: map[string]any{"algorithm": "nope", "originalSize": 1, "compressedSize": 1},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
