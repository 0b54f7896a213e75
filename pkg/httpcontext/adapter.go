package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/tasktrail/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// CallerFunc extracts the authenticated caller's uid from a request.
type CallerFunc func(ctx *fasthttp.RequestCtx) string

// Adapter converts fasthttp.RequestCtx into a stdlib context with a deadline,
// the request ID and, when known, the caller.
type Adapter struct {
	timeout time.Duration
	caller  CallerFunc
}

type Option func(*Adapter)

// WithCaller makes Attach record the caller's uid for log scoping.
func WithCaller(fn CallerFunc) Option {
	return func(a *Adapter) { a.caller = fn }
}

func NewAdapter(timeout time.Duration, opts ...Option) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	a := &Adapter{timeout: timeout}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach derives a request-scoped context and sets the X-Request-ID response
// header. The caller must invoke the returned cancel func.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(RequestIDHeader, reqID)

	if a.caller != nil {
		if uid := a.caller(ctx); uid != "" {
			stdCtx = appLogger.ContextWithUserID(stdCtx, uid)
		}
	}
	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// requestID reuses a client-supplied ID unless it is blank or oversized.
func requestID(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(RequestIDHeader)))
	if header == "" || len(header) > maxRequestIDLength {
		return uuid.NewString()
	}
	return header
}
