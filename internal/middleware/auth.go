package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktrail/api/transport"
	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/repository"
)

// identityKey is the fasthttp user value holding the verified identity.
const identityKey = "tasktrail.identity"

// TokenVerifier validates a bearer token and returns its identity and expiry.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, time.Time, error)
}

// AuthConfig wires the bearer-token middleware. Cache is optional.
type AuthConfig struct {
	Verifier TokenVerifier
	Cache    repository.IdentityCache
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Auth rejects requests without a verifiable bearer token and stores the
// identity for handlers. Verified tokens are cached until the earlier of
// CacheTTL and the token's own expiry.
func Auth(cfg AuthConfig) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			token := extractToken(ctx)
			if token == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			if cfg.Cache != nil {
				cached, err := cfg.Cache.Get(ctx, token)
				if err != nil {
					logger.Warn("identity cache lookup failed", zap.Error(err))
				}
				if cached != nil {
					SetIdentity(ctx, *cached)
					next(ctx)
					return
				}
			}

			identity, exp, err := cfg.Verifier.Verify(token)
			if err != nil {
				logger.Debug("rejected bearer token", zap.Error(err))
				unauthorized(ctx, "invalid bearer token")
				return
			}

			if cfg.Cache != nil {
				if err := cfg.Cache.Save(ctx, token, identity, cacheTTL(cfg.CacheTTL, exp)); err != nil {
					logger.Warn("identity cache save failed", zap.Error(err))
				}
			}

			SetIdentity(ctx, identity)
			next(ctx)
		}
	}
}

func cacheTTL(limit time.Duration, exp time.Time) time.Duration {
	if exp.IsZero() {
		return limit
	}
	if remaining := time.Until(exp); remaining < limit {
		return remaining
	}
	return limit
}

// SetIdentity stores a verified identity on the request.
func SetIdentity(ctx *fasthttp.RequestCtx, identity domain.Identity) {
	ctx.SetUserValue(identityKey, identity)
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(ctx *fasthttp.RequestCtx) (domain.Identity, bool) {
	identity, ok := ctx.UserValue(identityKey).(domain.Identity)
	return identity, ok && identity.UID != ""
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), message))
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
