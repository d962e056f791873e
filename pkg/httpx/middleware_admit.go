package httpx

import (
	"math"
	"net/http"
	"strconv"

	"github.com/classtrack/gatehouse/pkg/ratelimit"
	"github.com/classtrack/gatehouse/pkg/reputation"
	"github.com/classtrack/gatehouse/pkg/slogx"
)

// AdmitMiddleware runs the admission checks for one tier: blocked-IP lookup
// first, then the fixed-window rate limit. Both denials are decisions, not
// errors - the middleware turns them into 403/429 and the handler never runs.
func AdmitMiddleware(tracker *reputation.Tracker, limits *ratelimit.Set, tier ratelimit.Tier, key KeyExtractor) Middleware {
	if key == nil {
		key = IPKeyExtractor
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			if tracker != nil {
				if ip := IPKeyExtractor(r); tracker.IsBlocked(ip) {
					log.Warn("request from blocked ip rejected",
						"ip", ip,
						"endpoint", r.URL.Path,
					)
					// Deliberately the same generic body as any other 403.
					WriteJSON(w, http.StatusForbidden, map[string]string{
						"error": "forbidden",
					})
					return
				}
			}

			k := key(r)
			if k == "" {
				// No key means no bucket to count against; let it through
				// rather than collapsing every anonymous client into one.
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if d := limits.Admit(tier, k); !d.Allowed {
				retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				log.Warn("rate limit exceeded",
					"tier", string(tier),
					"key", k,
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limit_exceeded",
					"error_description": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
