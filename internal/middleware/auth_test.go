package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"handyman-auth/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	sess *session.Session
	err  error
}

func (s stubSessions) ActiveSession(context.Context) (*session.Session, error) {
	return s.sess, s.err
}

func TestRequireAuth(t *testing.T) {
	valid := &session.Session{SessionID: "sid", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	expired := &session.Session{SessionID: "sid", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute)}

	tests := []struct {
		name     string
		source   stubSessions
		wantCode int
	}{
		{"signed in", stubSessions{sess: valid}, http.StatusOK},
		{"signed out", stubSessions{}, http.StatusUnauthorized},
		{"expired", stubSessions{sess: expired}, http.StatusUnauthorized},
		{"store error", stubSessions{err: errors.New("redis down")}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			w := httptest.NewRecorder()
			NewAuthMiddleware(tt.source).RequireAuth(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "u1", gotID)
			}
		})
	}
}

func TestGinRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	build := func(src SessionSource) *gin.Engine {
		r := gin.New()
		api := r.Group("/api")
		api.Use(GinRequireAuth(NewAuthMiddleware(src)))
		api.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID")})
		})
		return r
	}

	w := httptest.NewRecorder()
	build(stubSessions{sess: &session.Session{UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u1"}`, w.Body.String())

	w = httptest.NewRecorder()
	build(stubSessions{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
