package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/renovatuludoteca/ludoteca-server/internal/errors"
	"github.com/renovatuludoteca/ludoteca-server/internal/ratelimit"
)

// RateLimiter is the per-client limiter guarding provider-backed endpoints.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a limiter allowing rps requests per second per
// client with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return ratelimit.New(rps, burst)
}

// rateLimitMiddleware returns a huma middleware that rejects a client
// with 429 once it exceeds limiter. Only authenticated requests draw on the
// budget; the rest fall through to the handler, which answers 401.
func (s *Server) rateLimitMiddleware(limiter *RateLimiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if _, err := GetClaims(ctx.Context()); err != nil {
			next(ctx)
			return
		}

		key := clientIP(ctx.Header("X-Forwarded-For"), ctx.Header("X-Real-IP"), ctx.RemoteAddr())

		if !limiter.Allow(key) {
			s.logger.Warn("rate limit exceeded",
				"ip", key,
				"path", ctx.URL().Path,
			)
			const msg = "Too many requests. Please try again later."
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, msg, domainerrors.RateLimited(msg))
			return
		}

		next(ctx)
	}
}

// clientIP picks the client address, preferring the first X-Forwarded-For
// hop, then X-Real-IP, then the connection address without its port.
func clientIP(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}

	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
