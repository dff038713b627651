package navigation

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"handyman-auth/internal/auth/controller"
	"handyman-auth/internal/logger"
)

type Route string

const (
	SignIn      Route = "sign_in"
	SignUp      Route = "sign_up"
	EmailSignIn Route = "email_sign_in"
	Home        Route = "home"
)

// Routes lists every destination of the graph.
var Routes = []Route{SignIn, SignUp, EmailSignIn, Home}

// ParseRoute returns the route named s.
func ParseRoute(s string) (Route, error) {
	r := Route(s)
	if !slices.Contains(Routes, r) {
		return "", fmt.Errorf("unknown route: %s", s)
	}
	return r, nil
}

// IsAuthRoute reports whether r belongs to the signed-out part of the graph.
func (r Route) IsAuthRoute() bool {
	return r == SignIn || r == SignUp || r == EmailSignIn
}

// StartDestination picks the first screen for the current sign-in status.
func StartDestination(signedIn bool) Route {
	if signedIn {
		return Home
	}
	return SignIn
}

// Navigator holds a back stack of routes. The zero value is not usable;
// use New.
type Navigator struct {
	mu    sync.Mutex
	stack []Route
}

func New(signedIn bool) *Navigator {
	return &Navigator{stack: []Route{StartDestination(signedIn)}}
}

// Current returns the route on top of the stack.
func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack[len(n.stack)-1]
}

// Stack returns a copy of the back stack, bottom first.
func (n *Navigator) Stack() []Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.stack)
}

// Navigate pushes route. When popUpTo is set and present in the stack,
// entries above it are popped first, and popUpTo itself too if inclusive.
func (n *Navigator) Navigate(route, popUpTo Route, inclusive bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.navigateLocked(route, popUpTo, inclusive)
}

func (n *Navigator) navigateLocked(route, popUpTo Route, inclusive bool) {
	if popUpTo != "" {
		if i := slices.Index(n.stack, popUpTo); i >= 0 {
			if inclusive {
				n.stack = n.stack[:i]
			} else {
				n.stack = n.stack[:i+1]
			}
		}
	}
	if len(n.stack) > 0 && n.stack[len(n.stack)-1] == route {
		return
	}
	n.stack = append(n.stack, route)
}

// Back pops the top route. It reports false when only the root is left.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.stack) <= 1 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return true
}

// Reconcile moves to the screen matching signedIn and reports whether the
// route changed. Already being on a matching screen is a no-op.
func (n *Navigator) Reconcile(signedIn bool) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	top := n.stack[len(n.stack)-1]
	switch {
	case signedIn && top != Home:
		n.navigateLocked(Home, SignIn, true)
	case !signedIn && !top.IsAuthRoute():
		n.navigateLocked(SignIn, Home, true)
	default:
		return false
	}

	logger.Debug("navigation reconciled", map[string]any{
		"component": "navigation",
		"signed_in": signedIn,
		"route":     string(n.stack[len(n.stack)-1]),
	})
	return true
}

// Follow reconciles against every state received until states closes or
// ctx ends.
func (n *Navigator) Follow(ctx context.Context, states <-chan controller.State) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			n.Reconcile(st.SignedIn())
		}
	}
}
