package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"provider", "gemini", "GEMINI_API_KEY", "abc", "dangling"})
	assert.Equal(t, []interface{}{"provider", "gemini", "GEMINI_API_KEY", "[REDACTED]", "dangling"}, got)
}

func TestWarnWritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("session_id", "s1").Warn("refinement failed", "transient", true, "auth_token", "t")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "refinement failed", entries[0].Message)
		assert.Equal(t, "s1", fields["session_id"])
		assert.Equal(t, true, fields["transient"])
		assert.Equal(t, "[REDACTED]", fields["auth_token"])
	}
}
