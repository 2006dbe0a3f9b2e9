package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/envelope"
	"github.com/fyrsmithlabs/middleout/internal/logging"
)

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "compress",
		Description: "Compress text with a middle-out codec and return the MO:: envelope with its Weissman score",
	}, s.handleCompress)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "decompress",
		Description: "Recover text from an MO:: envelope. Malformed input falls back to raw recovery instead of failing",
	}, s.handleDecompress)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "score",
		Description: "Compute the Weissman score for an algorithm and a pair of sizes",
	}, s.handleScore)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "algorithms",
		Description: "List the available codecs",
	}, s.handleAlgorithms)
}

// callContext tags a tool call with a request ID and the server logger.
func (s *Server) callContext(ctx context.Context) context.Context {
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	return logging.WithLogger(ctx, s.logger)
}

// ===== COMPRESS =====

type compressInput struct {
	Input              string   `json:"input" jsonschema:"Text to compress"`
	Algorithm          string   `json:"algorithm,omitempty" jsonschema:"Codec name (rle, stk, tnt, zph, middle-out). Unknown names use middle-out"`
	AggressionLevel    *int     `json:"aggressionLevel,omitempty" jsonschema:"Aggression level 0-10"`
	PreserveWhitespace *bool    `json:"preserveWhitespace,omitempty" jsonschema:"Keep whitespace in the input (default from config)"`
	TargetWeissman     *float64 `json:"targetWeissman,omitempty" jsonschema:"Target Weissman score folded into the result score"`
}

type compressOutput struct {
	Algorithm      string  `json:"algorithm" jsonschema:"Codec actually used"`
	Compressed     string  `json:"compressed" jsonschema:"Codec payload"`
	Encoded        string  `json:"encoded" jsonschema:"Full MO:: envelope"`
	OriginalSize   int     `json:"originalSize" jsonschema:"Input length in characters"`
	CompressedSize int     `json:"compressedSize" jsonschema:"Payload length in characters"`
	Score          float64 `json:"weissmanScore" jsonschema:"Weissman score"`
}

func (s *Server) handleCompress(ctx context.Context, req *mcp.CallToolRequest, args compressInput) (_ *mcp.CallToolResult, _ compressOutput, toolErr error) {
	done := s.metrics.track(ctx, "compress")
	defer func() { done(toolErr) }()
	ctx = s.callContext(ctx)

	cfg := s.config()
	if args.AggressionLevel != nil {
		cfg.AggressionLevel = *args.AggressionLevel
	}
	if args.PreserveWhitespace != nil {
		cfg.PreserveWhitespace = compression.Bool(*args.PreserveWhitespace)
	}
	if args.TargetWeissman != nil {
		cfg.TargetWeissman = *args.TargetWeissman
	}

	res, err := s.svc.Compress(ctx, args.Input, args.Algorithm, cfg)
	if err != nil {
		s.logger.Warn(ctx, "compress tool failed", zap.Error(err))
		return nil, compressOutput{}, fmt.Errorf("compress failed: %w", err)
	}

	output := compressOutput{
		Algorithm:      string(res.Algorithm),
		Compressed:     res.Compressed,
		Encoded:        res.Encoded,
		OriginalSize:   res.OriginalSize,
		CompressedSize: res.CompressedSize,
		Score:          res.Score,
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: res.Encoded},
		},
	}, output, nil
}

// ===== DECOMPRESS =====

type decompressInput struct {
	Encoded string `json:"encoded" jsonschema:"MO:: envelope to decode"`
	Raw     bool   `json:"raw,omitempty" jsonschema:"Skip decoding and return the raw recovery of the input"`
}

type decompressOutput struct {
	Output    string `json:"output" jsonschema:"Recovered text"`
	Algorithm string `json:"algorithm,omitempty" jsonschema:"Envelope algorithm tag when it parsed"`
	Degraded  bool   `json:"degraded" jsonschema:"True when the output came from raw recovery"`
	Reason    string `json:"reason,omitempty" jsonschema:"Why raw recovery was used"`
}

func (s *Server) handleDecompress(ctx context.Context, req *mcp.CallToolRequest, args decompressInput) (_ *mcp.CallToolResult, _ decompressOutput, toolErr error) {
	done := s.metrics.track(ctx, "decompress")
	defer func() { done(toolErr) }()
	ctx = s.callContext(ctx)

	cfg := s.config()
	cfg.Raw = args.Raw
	d := s.svc.Decode(ctx, args.Encoded, cfg)
	if d.Degraded {
		s.metrics.recordDegraded(ctx, d.Reason)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: d.Output},
		},
	}, decompressOutput{
		Output:    d.Output,
		Algorithm: d.Algorithm,
		Degraded:  d.Degraded,
		Reason:    d.Reason,
	}, nil
}

// ===== SCORE =====

type scoreInput struct {
	Algorithm      string   `json:"algorithm" jsonschema:"Codec name"`
	OriginalSize   int      `json:"originalSize" jsonschema:"Original length in characters"`
	CompressedSize int      `json:"compressedSize" jsonschema:"Compressed length in characters"`
	TargetWeissman *float64 `json:"targetWeissman,omitempty" jsonschema:"Target Weissman score (default from config)"`
}

type scoreOutput struct {
	Score     float64 `json:"weissmanScore" jsonschema:"Weissman score"`
	Formatted string  `json:"formatted" jsonschema:"Score as written into envelopes"`
}

func (s *Server) handleScore(ctx context.Context, req *mcp.CallToolRequest, args scoreInput) (_ *mcp.CallToolResult, _ scoreOutput, toolErr error) {
	done := s.metrics.track(ctx, "score")
	defer func() { done(toolErr) }()

	algo, ok := compression.ParseAlgorithm(args.Algorithm)
	if !ok {
		return nil, scoreOutput{}, fmt.Errorf("%w: invalid algorithm %q: must be one of %v", errInvalidArgument, args.Algorithm, s.svc.Algorithms())
	}
	if args.OriginalSize < 0 || args.CompressedSize < 0 {
		return nil, scoreOutput{}, fmt.Errorf("%w: invalid sizes: must not be negative", errInvalidArgument)
	}
	target := s.config().TargetWeissman
	if args.TargetWeissman != nil {
		if *args.TargetWeissman < 0 {
			return nil, scoreOutput{}, fmt.Errorf("%w: invalid targetWeissman: must not be negative", errInvalidArgument)
		}
		target = *args.TargetWeissman
	}

	score := s.svc.EstimateScore(string(algo), args.OriginalSize, args.CompressedSize, target)
	formatted := envelope.FormatScore(score)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Weissman score for %s: %s", algo, formatted)},
		},
	}, scoreOutput{Score: score, Formatted: formatted}, nil
}

// ===== ALGORITHMS =====

type algorithmsInput struct{}

type algorithmInfo struct {
	Name        string `json:"name" jsonschema:"Codec name"`
	Description string `json:"description" jsonschema:"What the codec does"`
	Lossy       bool   `json:"lossy" jsonschema:"True when decompression cannot reproduce the input"`
}

type algorithmsOutput struct {
	Algorithms []algorithmInfo `json:"algorithms" jsonschema:"Available codecs"`
	Default    string          `json:"default" jsonschema:"Codec used when none is named"`
	Count      int             `json:"count" jsonschema:"Number of codecs"`
}

func (s *Server) handleAlgorithms(ctx context.Context, req *mcp.CallToolRequest, _ algorithmsInput) (_ *mcp.CallToolResult, _ algorithmsOutput, toolErr error) {
	done := s.metrics.track(ctx, "algorithms")
	defer func() { done(toolErr) }()

	def := s.config().Algorithm
	if def == "" {
		def = compression.DefaultAlgorithm
	}

	output := algorithmsOutput{Default: string(def)}
	for _, a := range s.svc.Algorithms() {
		output.Algorithms = append(output.Algorithms, algorithmInfo{
			Name:        string(a),
			Description: a.Description(),
			Lossy:       a.Lossy(),
		})
	}
	output.Count = len(output.Algorithms)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Found %d algorithms (default: %s)", output.Count, output.Default)},
		},
	}, output, nil
}
