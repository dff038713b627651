package middleware

import (
	"context"
	"net/http"
	"time"

	"handyman-auth/internal/logger"
	"handyman-auth/internal/session"
)

// unexported, collision-proof context key
type userIDContextKeyType struct{}

var userIDKey = userIDContextKeyType{}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// SessionSource yields the session record of the signed-in principal, or
// nil when nobody is signed in.
type SessionSource interface {
	ActiveSession(ctx context.Context) (*session.Session, error)
}

type AuthMiddleware struct {
	Sessions SessionSource
	now      func() time.Time
}

func NewAuthMiddleware(sessions SessionSource) *AuthMiddleware {
	return &AuthMiddleware{Sessions: sessions, now: time.Now}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Load the active session
		sess, err := a.Sessions.ActiveSession(r.Context())
		if err != nil {
			logger.Error("session lookup failed", map[string]any{
				"component": "middleware",
				"error":     err.Error(),
			})
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if sess == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 2. Enforce session expiry
		if !a.now().Before(sess.ExpiresAt) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 3. Attach user_id to context
		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
