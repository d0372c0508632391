package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug. GraphQL request and response bodies log here.
const TraceLevel = zapcore.Level(-2)

// ParseLevel accepts zap's level names plus "trace", ignoring case and
// surrounding space. An empty name means Info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "":
		return zapcore.InfoLevel, nil
	case "trace":
		return TraceLevel, nil
	default:
		return zapcore.ParseLevel(n)
	}
}
