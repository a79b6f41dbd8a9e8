// Package logging builds the zap loggers used across the evaluator and
// provides shared field helpers.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Structured field keys shared by the agents.
const (
	FieldCandidateID = "candidate_id"
	FieldStage       = "stage"
	FieldAgent       = "agent"
	FieldAuditRunID  = "audit_run_id"
	FieldScenario    = "scenario"
	FieldModel       = "llm_model"
)

// DefaultPreviewLen bounds prompt and response previews in debug logs.
const DefaultPreviewLen = 400

// New builds a logger writing to stderr, console-encoded unless json is set.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "msg",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
	return cfg.Build()
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Component returns a named child logger for one agent.
func Component(logger *zap.Logger, name string) *zap.Logger {
	return OrNop(logger).Named(name)
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Preview is a zap field holding a truncated copy of s.
func Preview(key, s string) zap.Field {
	return zap.String(key, TruncateForLog(s, DefaultPreviewLen))
}
