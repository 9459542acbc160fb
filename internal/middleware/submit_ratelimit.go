package middleware

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/gather-web/pkg/clientip"
)

// Form submission limit: per-IP, different limits for authenticated vs
// anonymous sessions. Auth: 30 req/min, burst 10. Anonymous: 6 req/min, burst 3.
const (
	submitAuthRPS   = 0.5
	submitAuthBurst = 10
	submitAnonRPS   = 0.1
	submitAnonBurst = 3
)

// SubmitRateLimit limits POST requests. authenticated reports whether the
// request carries a logged-in session.
func SubmitRateLimit(authenticated func(*http.Request) bool) func(http.Handler) http.Handler {
	authLimiters := newLimiterSet(rate.Limit(submitAuthRPS), submitAuthBurst)
	anonLimiters := newLimiterSet(rate.Limit(submitAnonRPS), submitAnonBurst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientip.RealClientIP(r)
			limiters, limit := anonLimiters, submitAnonBurst
			if authenticated != nil && authenticated(r) {
				limiters, limit = authLimiters, submitAuthBurst
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			if !limiters.allow(ip) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, "Too many submissions. Please slow down.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
