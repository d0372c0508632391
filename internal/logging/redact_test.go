package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/config"
)

func encode(t *testing.T, enc zapcore.Encoder, fields ...zap.Field) string {
	t.Helper()
	buf, err := enc.EncodeEntry(zapcore.Entry{Level: zapcore.InfoLevel, Time: time.Unix(0, 0), Message: "m"}, fields)
	require.NoError(t, err)
	defer buf.Free()
	return buf.String()
}

func TestRedactingEncoder(t *testing.T) {
	cfg := NewDefaultConfig()
	enc, err := NewRedactingEncoder(newEncoder("json"), cfg.Redaction)
	require.NoError(t, err)

	out := encode(t, enc,
		zap.String("api_token", "gw-abc123"),
		zap.String("Authorization", "Bearer gw-abc123"),
		zap.String("header", "Bearer gw-abc123"),
		zap.String("title", "SQL Injection"),
	)

	assert.NotContains(t, out, "gw-abc123")
	assert.Contains(t, out, `"api_token":"[REDACTED]"`)
	assert.Contains(t, out, `"header":"[REDACTED:pattern]"`)
	assert.Contains(t, out, `"title":"SQL Injection"`)
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{})
	require.NoError(t, err)

	out := encode(t, enc, zap.String("token", "visible"))
	assert.Contains(t, out, "visible")
}

func TestRedactingEncoder_BadPattern(t *testing.T) {
	_, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: true, Patterns: []string{"("}})
	assert.Error(t, err)
}

func TestSecretField(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(t.Context(), "configured", Secret("api_token", config.Secret("0123456789")))

	tl.AssertField(t, "configured", "api_token", "[REDACTED:10]")
	tl.AssertNoSecrets(t)
}
