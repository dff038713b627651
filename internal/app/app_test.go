package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/auth/controller"
	"handyman-auth/internal/config"
	"handyman-auth/internal/navigation"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		AppPort:           "0",
		LogLevel:          "error",
		DatabaseDriver:    "sqlite",
		DatabaseDSN:       ":memory:",
		SessionTTL:        time.Hour,
		FederatedVerifier: "google",
	}
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return a
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func waitSettled(t *testing.T, h http.Handler) map[string]any {
	t.Helper()
	var st map[string]any
	require.Eventually(t, func() bool {
		_, st = call(t, h, http.MethodGet, "/auth/state", "")
		return st["in_progress"] == false
	}, 5*time.Second, 10*time.Millisecond)
	return st
}

func TestApp_EmailFlow(t *testing.T) {
	h := newTestApp(t, testConfig()).Handler()

	code, _ := call(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, code)

	code, _ = call(t, h, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, h, http.MethodPost, "/auth/email/signup",
		`{"name":"Ada","email":"ada@example.com","password":"secret1","confirm_password":"secret1"}`)
	require.Equal(t, http.StatusAccepted, code)

	st := waitSettled(t, h)
	require.Equal(t, true, st["signed_in"], st)
	identity := st["identity"].(map[string]any)
	assert.Equal(t, "Ada", identity["display_name"])
	assert.Equal(t, "ada@example.com", identity["email"])

	code, me := call(t, h, http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, identity["id"], me["user_id"])

	require.Eventually(t, func() bool {
		_, nav := call(t, h, http.MethodGet, "/nav", "")
		return nav["current"] == "home"
	}, 5*time.Second, 10*time.Millisecond)

	code, _ = call(t, h, http.MethodPost, "/auth/signout", "")
	require.Equal(t, http.StatusAccepted, code)
	require.Eventually(t, func() bool {
		_, st := call(t, h, http.MethodGet, "/auth/state", "")
		return st["signed_in"] == false
	}, 5*time.Second, 10*time.Millisecond)

	code, _ = call(t, h, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, h, http.MethodPost, "/auth/email/signin", `{"email":"ada@example.com","password":"wrong-pass"}`)
	require.Equal(t, http.StatusAccepted, code)
	st = waitSettled(t, h)
	assert.Equal(t, "invalid email or password", st["last_failure"])
}

func TestApp_UnconfiguredMethodsFailCleanly(t *testing.T) {
	h := newTestApp(t, testConfig()).Handler()

	code, _ := call(t, h, http.MethodPost, "/auth/federated", "")
	require.Equal(t, http.StatusAccepted, code)
	st := waitSettled(t, h)
	assert.Equal(t, false, st["signed_in"])
	assert.NotEmpty(t, st["last_failure"])

	code, st = call(t, h, http.MethodPost, "/auth/social", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, st["last_failure"])

	code, _ = call(t, h, http.MethodGet, "/oauth/callback/facebook?state=x&code=y", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestApp_Metrics(t *testing.T) {
	h := newTestApp(t, testConfig()).Handler()

	call(t, h, http.MethodPost, "/auth/email/signin", `{"email":"ada@example.com","password":"secret1"}`)
	waitSettled(t, h)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `handyman_auth_attempts_total{method="email_sign_in"} 1`)
	assert.Contains(t, w.Body.String(), `handyman_auth_outcomes_total{method="email_sign_in",result="failure"} 1`)
}

func TestApp_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	h := newTestApp(t, cfg).Handler()

	call(t, h, http.MethodPost, "/auth/email/signup",
		`{"name":"Bob","email":"bob@example.com","password":"secret1","confirm_password":"secret1"}`)
	st := waitSettled(t, h)
	require.Equal(t, true, st["signed_in"], st)

	assert.Len(t, mr.Keys(), 1)

	code, _ := call(t, h, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusOK, code)

	mr.FlushAll()
	code, _ = call(t, h, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

// emailGateway signs every email attempt in as the same user.
type emailGateway struct{}

func (emailGateway) FederatedSignIn(context.Context) (auth.Outcome, error) {
	return auth.Failed(auth.ErrProviderNotConfigured), nil
}

func (emailGateway) SocialSignIn(context.Context, any) (auth.Outcome, error) {
	return auth.Failed(auth.ErrProviderNotConfigured), nil
}

func (emailGateway) EmailSignUp(context.Context, string, string, string) (auth.Outcome, error) {
	return auth.Succeeded(auth.Identity{ID: "u1"}), nil
}

func (emailGateway) EmailSignIn(context.Context, string, string) (auth.Outcome, error) {
	return auth.Succeeded(auth.Identity{ID: "u1"}), nil
}

func (emailGateway) CurrentIdentity() *auth.Identity { return nil }
func (emailGateway) SignOut(context.Context)         {}

func TestFollowState_StopDetachesNavigator(t *testing.T) {
	ctl := controller.New(emailGateway{})
	t.Cleanup(ctl.Close)
	nav := navigation.New(false)

	stop := followState(context.Background(), nav, ctl)

	require.True(t, ctl.EmailSignIn("a@x.com", "secret1"))
	require.Eventually(t, func() bool {
		return nav.Current() == navigation.Home
	}, 5*time.Second, 10*time.Millisecond)

	// stop blocks until the follower has exited.
	stop()
	stop()

	ctl.SignOut()
	ctl.Wait()
	assert.False(t, ctl.State().SignedIn())
	assert.Equal(t, navigation.Home, nav.Current())
}

func TestFollowState_EndsWithParentContext(t *testing.T) {
	ctl := controller.New(emailGateway{})
	t.Cleanup(ctl.Close)

	ctx, cancel := context.WithCancel(context.Background())
	stop := followState(ctx, navigation.New(false), ctl)
	cancel()

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("follower did not exit after its context ended")
	}
}
