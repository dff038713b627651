package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/auth/credentials"
	"handyman-auth/internal/auth/provider"
	"handyman-auth/internal/db"
	"handyman-auth/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	name       string
	identities map[string]*auth.ExternalIdentity
}

func (f *fakeVerifier) Name() string { return f.name }

func (f *fakeVerifier) VerifyToken(_ context.Context, token string) (*auth.ExternalIdentity, error) {
	ident, ok := f.identities[token]
	if !ok {
		return nil, errors.New(f.name + " token rejected")
	}
	return ident, nil
}

type fixture struct {
	svc      *Service
	sessions *session.MemoryStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	d, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	google := &fakeVerifier{name: "google", identities: map[string]*auth.ExternalIdentity{
		"id-ada": {Provider: "google", ProviderUserID: "g-1", Email: "ada@example.com", EmailVerified: true, DisplayName: "Ada", AvatarURL: "https://img/ada"},
	}}
	facebook := &fakeVerifier{name: "facebook", identities: map[string]*auth.ExternalIdentity{
		"fb-ada": {Provider: "facebook", ProviderUserID: "f-1", Email: "ada@example.com", EmailVerified: true, DisplayName: "Ada L."},
	}}

	sessions := session.NewMemoryStore()
	svc := New(d, provider.NewRegistry(google, facebook), sessions, Config{
		FederatedProvider: "google",
		SocialProvider:    "facebook",
		SessionTTL:        time.Hour,
	})
	return fixture{svc: svc, sessions: sessions}
}

func TestCreateAccount_SignsIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateAccount(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, p.UID)
	assert.Equal(t, "bob@example.com", p.Email)
	assert.Empty(t, p.DisplayName)

	assert.Equal(t, p, f.svc.CurrentSession())

	sess, err := f.svc.ActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, p.UID, sess.UserID)
	assert.Equal(t, "password", sess.Method)
}

func TestCreateAccount_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateAccount(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.svc.CreateAccount(ctx, "BOB@example.com", "another1")
	assert.EqualError(t, err, "email address is already in use by another account")

	_, err = f.svc.CreateAccount(ctx, "cy@example.com", "123")
	assert.ErrorIs(t, err, credentials.ErrWeakPassword)

	_, err = f.svc.CreateAccount(ctx, "not-an-email", "secret1")
	assert.EqualError(t, err, "email address is badly formatted")
}

func TestVerifyAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateAccount(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.SignOut(ctx))
	assert.Nil(t, f.svc.CurrentSession())

	p, err := f.svc.VerifyAccount(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, p.UID)

	_, err = f.svc.VerifyAccount(ctx, "bob@example.com", "wrong-pass")
	assert.EqualError(t, err, "invalid email or password")
	// A failed attempt keeps the existing session.
	assert.Equal(t, created.UID, f.svc.CurrentSession().UID)
}

func TestExchangeTokens_DoNotLinkByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.ExchangeFederatedToken(ctx, "id-ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", g.DisplayName)
	assert.Equal(t, "https://img/ada", g.PhotoURL)

	again, err := f.svc.ExchangeFederatedToken(ctx, "id-ada")
	require.NoError(t, err)
	assert.Equal(t, g.UID, again.UID)

	fb, err := f.svc.ExchangeSocialToken(ctx, "fb-ada")
	require.NoError(t, err)
	assert.NotEqual(t, g.UID, fb.UID)
	assert.Equal(t, "Ada L.", fb.DisplayName)

	sess, err := f.svc.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "facebook", sess.Method)
}

func TestExchangeTokens_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ExchangeFederatedToken(ctx, "forged")
	assert.EqualError(t, err, "google token rejected")

	_, err = f.svc.ExchangeSocialToken(ctx, "forged")
	assert.EqualError(t, err, "facebook token rejected")

	assert.Nil(t, f.svc.CurrentSession())
}

func TestExchangeToken_UnknownVerifier(t *testing.T) {
	f := newFixture(t)
	f.svc.cfg.FederatedProvider = "keycloak"

	_, err := f.svc.ExchangeFederatedToken(context.Background(), "id-ada")
	assert.EqualError(t, err, "unknown token provider: keycloak")
}

func TestUpdateDisplayName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.UpdateDisplayName(ctx, "Bob"), ErrNoCurrentUser)

	_, err := f.svc.CreateAccount(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.UpdateDisplayName(ctx, "Bob"))
	assert.Equal(t, "Bob", f.svc.CurrentSession().DisplayName)

	require.NoError(t, f.svc.SignOut(ctx))
	p, err := f.svc.VerifyAccount(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Bob", p.DisplayName)
}

func TestSignIn_RevokesPreviousSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateAccount(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)
	first, err := f.svc.ActiveSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.ExchangeFederatedToken(ctx, "id-ada")
	require.NoError(t, err)

	old, err := f.sessions.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SignOut(ctx))

	_, err := f.svc.CreateAccount(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)
	sess, err := f.svc.ActiveSession(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx))
	assert.Nil(t, f.svc.CurrentSession())

	stored, err := f.sessions.Get(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestActiveSession_ExpiredSignsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateAccount(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)

	later := time.Now().Add(2 * time.Hour)
	f.svc.now = func() time.Time { return later }

	sess, err := f.svc.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Nil(t, f.svc.CurrentSession())
}

func TestService_ImplementsBackend(t *testing.T) {
	var _ provider.Backend = (*Service)(nil)
}
