// Package logging provides structured logging with OpenTelemetry integration.
//
// The package wraps Zap with:
//   - a custom Trace level (-2, below Debug)
//   - stderr output, plus optional OpenTelemetry output via the otelzap bridge
//   - automatic context fields (trace_id, span_id, request.id)
//   - payload redaction
//   - sampling below error level
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, logging.WithLoggerProvider(provider))
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.Info(ctx, "compressed", zap.String("algorithm", "rle"))
//
// Logs go to stderr. Stdout carries command results and the MCP stdio
// protocol, so nothing in this package writes there.
//
// # Redaction
//
// The codecs log the text they transform under the keys listed in
// PayloadFields. With redaction enabled (the default) those values are
// replaced by [REDACTED:<runes>]. Secret keys become [REDACTED] and string
// values matching a pattern become [REDACTED:pattern]. Redaction happens in
// the core, ahead of every output.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	svc, _ := compression.NewService(compression.WithLogger(tl.Logger))
//	...
//	tl.AssertLogged(t, zapcore.WarnLevel, "decode failed")
//	tl.AssertField(t, "compressed", "algorithm", "rle")
package logging
