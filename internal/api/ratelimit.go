package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// QueryLimit returns middleware allowing perSecond requests with burst
// capacity across all clients. Every query scans the whole vault, so the
// budget is global rather than per client. perSecond <= 0 disables limiting.
func QueryLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	retryAfter := strconv.Itoa(int(math.Ceil(1 / perSecond)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.AllowN(time.Now(), 1) {
				w.Header().Set("Retry-After", retryAfter)
				writeJSON(w, http.StatusTooManyRequests, errResponse{Error: "too many queries", Code: "rate_limited"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
