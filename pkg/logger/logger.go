// Package logger builds the zap.SugaredLogger used throughout bucketkv,
// tagging every log line with the service name that opened the store.
package logger

import "go.uber.org/zap"

// New returns a production-configured SugaredLogger tagged with service.
// Callers that want development-friendly console output (colorized level,
// caller line) should use NewDevelopment instead.
func New(service string) *zap.SugaredLogger {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar().With("service", service)
}

// NewDevelopment returns a development-configured SugaredLogger tagged
// with service: human-readable console output instead of JSON.
func NewDevelopment(service string) *zap.SugaredLogger {
	base, err := zap.NewDevelopment()
	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar().With("service", service)
}

// Nop returns a logger that discards everything, used as the fallback
// when no logger is configured.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
