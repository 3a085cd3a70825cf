package api

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// retryAfterSeconds is advertised to throttled clients.
const retryAfterSeconds = 1

type rateLimiter interface {
	Allow() bool
}

type tokenBucket struct {
	limiter *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &tokenBucket{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (b *tokenBucket) Allow() bool {
	if b == nil || b.limiter == nil {
		return true
	}
	return b.limiter.Allow()
}

// rateLimitMiddleware throttles requests that change settings or parse
// posted documents. Reads are answered from a snapshot and pass unthrottled.
func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isReadOnly(r.Method) || limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "settings changes are rate limited, please retry shortly")
	})
}

func isReadOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
