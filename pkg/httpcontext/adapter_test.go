package httpcontext

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appLogger "github.com/fastygo/tasktrail/pkg/logger"
)

func TestAttachKeepsClientRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set(RequestIDHeader, "abc-123")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	assert.Equal(t, "abc-123", appLogger.RequestID(ctx))
	assert.Equal(t, "abc-123", string(rc.Response.Header.Peek(RequestIDHeader)))
	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestAttachReplacesOversizedRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))

	ctx, cancel := NewAdapter(0).Attach(&rc)
	defer cancel()

	_, err := uuid.Parse(appLogger.RequestID(ctx))
	assert.NoError(t, err)
}

func TestAttachRecordsCaller(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.SetUserValue("uid", "u1")
	adapter := NewAdapter(time.Second, WithCaller(func(ctx *fasthttp.RequestCtx) string {
		uid, _ := ctx.UserValue("uid").(string)
		return uid
	}))

	ctx, cancel := adapter.Attach(&rc)
	defer cancel()

	core, logs := observer.New(zapcore.InfoLevel)
	appLogger.WithRequestID(ctx, zap.New(core)).Info("scoped")
	assert.Equal(t, "u1", logs.All()[0].ContextMap()["caller_id"])
}
