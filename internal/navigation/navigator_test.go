package navigation

import (
	"context"
	"testing"
	"time"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/auth/controller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartDestination(t *testing.T) {
	assert.Equal(t, Home, StartDestination(true))
	assert.Equal(t, SignIn, StartDestination(false))
	assert.Equal(t, []Route{SignIn}, New(false).Stack())
}

func TestParseRoute(t *testing.T) {
	r, err := ParseRoute("email_sign_in")
	require.NoError(t, err)
	assert.Equal(t, EmailSignIn, r)

	_, err = ParseRoute("settings")
	assert.EqualError(t, err, "unknown route: settings")
}

func TestNavigate_PopUpTo(t *testing.T) {
	n := New(false)
	n.Navigate(SignUp, "", false)
	n.Navigate(EmailSignIn, "", false)
	assert.Equal(t, []Route{SignIn, SignUp, EmailSignIn}, n.Stack())

	n.Navigate(EmailSignIn, "", false)
	assert.Len(t, n.Stack(), 3)

	n.Navigate(SignUp, SignIn, false)
	assert.Equal(t, []Route{SignIn, SignUp}, n.Stack())

	n.Navigate(Home, SignIn, true)
	assert.Equal(t, []Route{Home}, n.Stack())
}

func TestBack(t *testing.T) {
	n := New(false)
	assert.False(t, n.Back())

	n.Navigate(SignUp, "", false)
	assert.True(t, n.Back())
	assert.Equal(t, SignIn, n.Current())
}

func TestReconcile(t *testing.T) {
	n := New(false)
	n.Navigate(EmailSignIn, "", false)

	// Signed out on an auth screen: stay put.
	assert.False(t, n.Reconcile(false))
	assert.Equal(t, EmailSignIn, n.Current())

	assert.True(t, n.Reconcile(true))
	assert.Equal(t, []Route{Home}, n.Stack())

	// Repeated snapshots do not thrash.
	assert.False(t, n.Reconcile(true))
	assert.Equal(t, []Route{Home}, n.Stack())

	assert.True(t, n.Reconcile(false))
	assert.Equal(t, []Route{SignIn}, n.Stack())
	assert.False(t, n.Back())
}

func TestFollow(t *testing.T) {
	n := New(false)
	states := make(chan controller.State, 3)
	states <- controller.State{InProgress: true}
	states <- controller.State{Identity: &auth.Identity{ID: "u1"}}
	close(states)

	done := make(chan struct{})
	go func() {
		n.Follow(context.Background(), states)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after the channel closed")
	}
	assert.Equal(t, Home, n.Current())
}

func TestFollow_StopsOnContext(t *testing.T) {
	n := New(false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n.Follow(ctx, make(chan controller.State))
	assert.Equal(t, SignIn, n.Current())
}
