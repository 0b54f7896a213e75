package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Service: "tasktrail", Output: &buf})
	require.NoError(t, err)

	log.Debug("hello", zap.String("k", "v"))
	require.NoError(t, log.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "tasktrail", entry["service"])
	assert.Equal(t, "v", entry["k"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "loud", Output: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-1"), "u1")
	WithRequestID(ctx, base).Info("scoped")
	WithRequestID(context.Background(), base).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "u1", entries[0].ContextMap()["caller_id"])
	assert.Empty(t, entries[1].ContextMap())
	assert.Equal(t, "req-1", RequestID(ctx))
}
