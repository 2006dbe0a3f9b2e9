// internal/logging/otel.go
package logging

import (
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// instrumentationName identifies middleout records in the OTEL log pipeline.
const instrumentationName = "github.com/fyrsmithlabs/middleout"

// newDualCore creates core with stderr and/or OTEL outputs. Redaction wraps
// the tee, so both outputs receive the same redacted fields.
func newDualCore(cfg *Config, sink zapcore.WriteSyncer, otelProvider log.LoggerProvider) (zapcore.Core, error) {
	cores := make([]zapcore.Core, 0, 2)

	if cfg.Output.Stderr {
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format), sink, cfg.Level))
	}

	if cfg.Output.OTEL && otelProvider != nil {
		otelCore := otelzap.NewCore(instrumentationName,
			otelzap.WithLoggerProvider(otelProvider),
		)
		cores = append(cores, &levelFilterCore{Core: otelCore, minLevel: cfg.Level, hasMin: true})
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("at least one output must be enabled and available")
	}

	core := cores[0]
	if len(cores) > 1 {
		core = zapcore.NewTee(cores...)
	}

	redactor, err := NewRedactor(cfg.Redaction)
	if err != nil {
		return nil, err
	}
	core = redactor.Wrap(core)

	return newSampledCore(core, cfg.Sampling), nil
}
