package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cache/internal/utils/response"
)

type RefreshLimiter interface {
	CheckRefreshRateLimit(ctx context.Context, sessionID string) (bool, int, int, error)
}

// RefreshLimit caps ?refresh= requests per session. Requests without the
// flag pass through, and so does every request when the limiter errors.
func RefreshLimit(limiter RefreshLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			if force, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); !force || limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			logger := LoggerFromContext(r.Context())
			sessionID := cache.SessionIDFromContext(r.Context())

			allowed, remaining, retryAfter, err := limiter.CheckRefreshRateLimit(r.Context(), sessionID)
			if err != nil {
				logger.Warn("Refresh rate limit check failed, allowing request", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				response.Error(w, errors.TooManyRequestsError("Too many refresh requests").
					WithDetail("retry after "+strconv.Itoa(retryAfter)+"s"))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}
