// internal/logging/redact.go
package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	redacted      = "[REDACTED]"
	maxPatternLen = 200
)

// RedactedString creates a field whose value is replaced by its rune count.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, redactedLen(val))
}

func redactedLen(val string) string {
	return "[REDACTED:" + strconv.Itoa(utf8.RuneCountInString(val)) + "]"
}

// Redactor rewrites sensitive fields before they reach an encoder.
type Redactor struct {
	secrets  map[string]bool
	payloads map[string]bool
	patterns []*regexp.Regexp
}

// NewRedactor compiles cfg. A disabled config yields a Redactor that passes
// fields through.
func NewRedactor(cfg RedactionConfig) (*Redactor, error) {
	r := &Redactor{
		secrets:  make(map[string]bool),
		payloads: make(map[string]bool),
	}
	if !cfg.Enabled {
		return r, nil
	}

	for _, f := range cfg.Fields {
		r.secrets[strings.ToLower(f)] = true
	}
	for _, f := range cfg.Payloads {
		r.payloads[strings.ToLower(f)] = true
	}
	for _, p := range cfg.Patterns {
		if len(p) > maxPatternLen {
			return nil, fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, p)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// Field returns f, or a redacted replacement.
func (r *Redactor) Field(f zapcore.Field) zapcore.Field {
	key := strings.ToLower(f.Key)

	if r.secrets[key] {
		return zap.String(f.Key, redacted)
	}

	if r.payloads[key] {
		if f.Type == zapcore.StringType {
			return zap.String(f.Key, redactedLen(f.String))
		}
		return zap.String(f.Key, redacted)
	}

	if f.Type == zapcore.StringType {
		for _, re := range r.patterns {
			if re.MatchString(f.String) {
				return zap.String(f.Key, "[REDACTED:pattern]")
			}
		}
	}
	return f
}

// Fields redacts fs, copying only when something changes.
func (r *Redactor) Fields(fs []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fs {
		rf := r.Field(f)
		if out == nil && (rf.Key != f.Key || rf.Type != f.Type || rf.String != f.String) {
			out = make([]zapcore.Field, len(fs))
			copy(out, fs[:i])
		}
		if out != nil {
			out[i] = rf
		}
	}
	if out == nil {
		return fs
	}
	return out
}

// Wrap returns core with every field passed through r.
func (r *Redactor) Wrap(core zapcore.Core) zapcore.Core {
	if len(r.secrets) == 0 && len(r.payloads) == 0 && len(r.patterns) == 0 {
		return core
	}
	return &redactingCore{Core: core, redactor: r}
}

type redactingCore struct {
	zapcore.Core
	redactor *Redactor
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(c.redactor.Fields(fields)), redactor: c.redactor}
}

func (c *redactingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *redactingCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(e, c.redactor.Fields(fields))
}
