package compression

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fyrsmithlabs/middleout/internal/envelope"
	"github.com/fyrsmithlabs/middleout/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fyrsmithlabs/middleout/internal/compression"
const meterName = "compression"

// Fallback reasons recorded on logs, spans and the fallbacks counter.
const (
	reasonRaw              = "raw_requested"
	reasonFormat           = "format"
	reasonUnknownAlgorithm = "unknown_algorithm"
	reasonMismatch         = "algorithm_mismatch"
	reasonInvalidPayload   = "invalid_payload"
)

// Service dispatches compress and decompress calls to codecs. It holds no
// per-call state and is safe for concurrent use.
type Service struct {
	registry *Registry
	logger   *logging.Logger

	tracer trace.Tracer
	meter  metric.Meter

	operations metric.Int64Counter
	fallbacks  metric.Int64Counter
	duration   metric.Float64Histogram
	ratio      metric.Float64Histogram
	score      metric.Float64Histogram
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry replaces the default registry.
func WithRegistry(r *Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLogger sets the logger. Without it the logger stored in the call
// context is used.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) {
		if mp != nil {
			s.meter = mp.Meter(meterName)
		}
	}
}

// NewService creates a compression service.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{
		tracer: otel.Tracer(tracerName),
		meter:  otel.Meter(meterName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return s, nil
}

// Registry returns the codec registry the service dispatches to.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Algorithms returns the supported algorithms.
func (s *Service) Algorithms() []Algorithm {
	return s.registry.Algorithms()
}

// Compress transforms input with the named codec. An empty name falls back to
// cfg.Algorithm; unknown names resolve to middle-out without error. The only
// error is an invalid cfg.
func (s *Service) Compress(ctx context.Context, input, algorithm string, cfg Config) (*Result, error) {
	requested := algorithm
	if requested == "" {
		requested = string(cfg.Algorithm)
	}

	ctx, span := s.tracer.Start(ctx, "compression.compress",
		trace.WithAttributes(
			attribute.String("algorithm.requested", requested),
			attribute.Int("content_length", len(input)),
			attribute.Int("aggression_level", cfg.AggressionLevel),
			attribute.Bool("preserve_whitespace", cfg.KeepWhitespace()),
		),
	)
	defer span.End()

	log := s.log(ctx)

	if err := cfg.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid config")
		return nil, err
	}

	start := time.Now()

	codec := s.registry.Resolve(requested)
	algo := codec.Algorithm()
	if requested != string(algo) {
		log.Debug(ctx, "unknown algorithm, using default",
			zap.String("requested", requested),
			zap.String("algorithm", string(algo)),
		)
	}

	result := EncodeWith(codec, input, cfg)

	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("algorithm", string(algo)))
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("algorithm", string(algo)),
		attribute.String("operation", "compress"),
	))
	s.duration.Record(ctx, elapsed, attrs)
	s.ratio.Record(ctx, result.Ratio(), attrs)
	s.score.Record(ctx, result.Score, attrs)

	span.SetAttributes(
		attribute.String("algorithm", string(algo)),
		attribute.Int("original_size", result.OriginalSize),
		attribute.Int("compressed_size", result.CompressedSize),
		attribute.Float64("weissman_score", result.Score),
	)

	log.Debug(ctx, "compressed",
		zap.String("algorithm", string(algo)),
		zap.Int("original_size", result.OriginalSize),
		zap.Int("compressed_size", result.CompressedSize),
		zap.Float64("weissman_score", result.Score),
		zap.String("input", input),
	)

	return result, nil
}

// Decoded is the outcome of a decompress call.
type Decoded struct {
	Output string `json:"output"`

	// Algorithm is the envelope tag, empty when the envelope did not parse.
	Algorithm string `json:"algorithm,omitempty"`

	// Degraded is true when the output came from raw recovery.
	Degraded bool `json:"degraded"`

	// Reason says why raw recovery was used.
	Reason string `json:"reason,omitempty"`
}

// Decompress recovers the text carried by an envelope. It never fails:
// malformed envelopes, unknown tags and undecodable payloads degrade to
// middle-out raw recovery, labeled [DECODE_FAIL_FALLBACK].
func (s *Service) Decompress(ctx context.Context, encoded string, cfg Config) string {
	return s.Decode(ctx, encoded, cfg).Output
}

// Decode is Decompress with details about how the output was produced.
func (s *Service) Decode(ctx context.Context, encoded string, cfg Config) *Decoded {
	ctx, span := s.tracer.Start(ctx, "compression.decompress",
		trace.WithAttributes(
			attribute.Int("content_length", len(encoded)),
			attribute.Bool("raw", cfg.Raw),
		),
	)
	defer span.End()

	start := time.Now()

	if cfg.Raw {
		return s.recover(ctx, span, encoded, "", RecoveryRaw, reasonRaw, nil)
	}

	env, err := envelope.Decode(encoded)
	if err != nil {
		return s.recover(ctx, span, encoded, "", RecoveryFallback, reasonFormat, err)
	}

	codec, ok := s.registry.Lookup(env.Algorithm)
	if !ok {
		return s.recover(ctx, span, encoded, env.Algorithm, RecoveryFallback, reasonUnknownAlgorithm, nil)
	}

	out, err := DecodeWith(codec, encoded)
	if err != nil {
		return s.recover(ctx, span, encoded, env.Algorithm, RecoveryFallback, fallbackReason(err), err)
	}

	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("algorithm", env.Algorithm),
		attribute.String("operation", "decompress"),
	))
	s.duration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("algorithm", env.Algorithm)))
	span.SetAttributes(
		attribute.String("algorithm", env.Algorithm),
		attribute.Bool("degraded", false),
	)

	return &Decoded{Output: out, Algorithm: env.Algorithm}
}

// recover runs raw recovery and records why.
func (s *Service) recover(ctx context.Context, span trace.Span, encoded, algo string, mode RecoveryMode, reason string, cause error) *Decoded {
	out := s.registry.MiddleOut().Recover(encoded, mode)

	s.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	span.SetAttributes(
		attribute.Bool("degraded", true),
		attribute.String("fallback_reason", reason),
	)

	fields := []zap.Field{
		zap.String("reason", reason),
		zap.String("mode", string(mode)),
		zap.String("envelope", encoded),
	}
	if algo != "" {
		fields = append(fields, zap.String("algorithm", algo))
	}

	if mode == RecoveryRaw {
		s.log(ctx).Debug(ctx, "raw recovery requested", fields...)
	} else {
		if cause != nil {
			span.RecordError(cause)
			fields = append(fields, zap.Error(cause))
		}
		s.log(ctx).Warn(ctx, "decode failed, falling back to raw recovery", fields...)
	}

	return &Decoded{Output: out, Algorithm: algo, Degraded: true, Reason: reason}
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrAlgorithmMismatch):
		return reasonMismatch
	case errors.Is(err, ErrInvalidPayload):
		return reasonInvalidPayload
	case errors.Is(err, envelope.ErrFormat):
		return reasonFormat
	default:
		return reasonInvalidPayload
	}
}

// EncodeEnvelope serializes an envelope. Scores must be finite and non-negative.
func (s *Service) EncodeEnvelope(algorithm, data string, score float64) (string, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return "", fmt.Errorf("%w: %v", ErrInvalidScore, score)
	}
	return envelope.Encode(algorithm, data, score), nil
}

// DecodeEnvelope parses an envelope, returning *envelope.FormatError on mismatch.
func (s *Service) DecodeEnvelope(encoded string) (envelope.Envelope, error) {
	return envelope.Decode(encoded)
}

// EstimateScore computes the Weissman score; see the package-level EstimateScore.
func (s *Service) EstimateScore(algorithm string, originalSize, compressedSize int, target float64) float64 {
	return EstimateScore(algorithm, originalSize, compressedSize, target)
}

// Compare compresses input with every registered codec and returns the
// results ordered by score, highest first. Ties are broken by algorithm name.
func (s *Service) Compare(ctx context.Context, input string, cfg Config) ([]*Result, error) {
	ctx, span := s.tracer.Start(ctx, "compression.compare",
		trace.WithAttributes(attribute.Int("content_length", len(input))),
	)
	defer span.End()

	if err := cfg.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid config")
		return nil, err
	}

	algos := s.registry.Algorithms()
	results := make([]*Result, 0, len(algos))
	for _, algo := range algos {
		res, err := s.Compress(ctx, input, string(algo), cfg)
		if err != nil {
			return nil, fmt.Errorf("compare %s: %w", algo, err)
		}
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Algorithm < results[j].Algorithm
	})

	span.SetAttributes(attribute.String("best_algorithm", string(results[0].Algorithm)))
	return results, nil
}

func (s *Service) log(ctx context.Context) *logging.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.FromContext(ctx)
}

// initMetrics initializes OpenTelemetry metrics
func (s *Service) initMetrics() error {
	var err error

	s.operations, err = s.meter.Int64Counter(
		"compression.operations_total",
		metric.WithDescription("Total number of compress and decompress operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create operations counter: %w", err)
	}

	s.fallbacks, err = s.meter.Int64Counter(
		"compression.fallbacks_total",
		metric.WithDescription("Decompress calls answered by raw recovery, by reason"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create fallbacks counter: %w", err)
	}

	s.duration, err = s.meter.Float64Histogram(
		"compression.duration_seconds",
		metric.WithDescription("Time spent in codecs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create duration histogram: %w", err)
	}

	s.ratio, err = s.meter.Float64Histogram(
		"compression.ratio",
		metric.WithDescription("Compression ratios achieved"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0.5, 1.0, 1.5, 2.0, 3.0, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create ratio histogram: %w", err)
	}

	s.score, err = s.meter.Float64Histogram(
		"compression.weissman_score",
		metric.WithDescription("Weissman scores of compression results"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 6, 8, 10),
	)
	if err != nil {
		return fmt.Errorf("failed to create score histogram: %w", err)
	}

	return nil
}
