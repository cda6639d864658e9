package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sf_session"
)

var validSessionID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Session resolves the caller's session from the X-Session-ID header or the
// sf_session cookie. A missing or malformed id starts a new session, which is
// echoed back in both the header and the cookie.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		sessionID := r.Header.Get(SessionHeader)
		if sessionID == "" {
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				sessionID = cookie.Value
			}
		}

		if !validSessionID.MatchString(sessionID) {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		w.Header().Set(SessionHeader, sessionID)

		ctx := cache.WithSessionID(r.Context(), sessionID)
		logger := LoggerFromContext(ctx).With(slog.String("session_id", sessionID))
		ctx = context.WithValue(ctx, LoggerKey, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
