package middleware

import (
	"slices"

	"github.com/valyala/fasthttp"
)

const (
	corsMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsHeaders = "Authorization, Content-Type, X-Request-ID"
)

// CORS answers preflight requests and tags responses for allowed origins.
// A "*" entry allows every origin.
func CORS(allowed []string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	allowAll := slices.Contains(allowed, "*")
	isAllowed := func(origin string) bool {
		return allowAll || slices.Contains(allowed, origin)
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			origin := string(ctx.Request.Header.Peek("Origin"))
			if origin != "" {
				ctx.Response.Header.Add("Vary", "Origin")
				if isAllowed(origin) {
					ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
					ctx.Response.Header.Set("Access-Control-Allow-Methods", corsMethods)
					ctx.Response.Header.Set("Access-Control-Allow-Headers", corsHeaders)
					ctx.Response.Header.Set("Access-Control-Expose-Headers", "X-Request-ID")
				}
			}

			if ctx.IsOptions() {
				if origin != "" && !isAllowed(origin) {
					ctx.SetStatusCode(fasthttp.StatusForbidden)
					return
				}
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}

			next(ctx)
		}
	}
}
