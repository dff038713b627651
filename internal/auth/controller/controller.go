// Package controller owns the process-wide authentication state and drives
// it through Identity Gateway calls.
//
// At most one sign-in attempt is in flight at a time. Every attempt ends in
// the same reconcile step regardless of which sign-in method produced the
// outcome.
package controller

import (
	"context"
	"errors"
	"sync"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/logger"
)

// Sign-in method names used in logs and metrics.
const (
	MethodFederated   = "federated"
	MethodSocial      = "social"
	MethodEmailSignUp = "email_sign_up"
	MethodEmailSignIn = "email_sign_in"
)

// Outcome results reported to a Recorder.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultCancelled = "cancelled"
)

// Gateway is the Identity Gateway the controller depends on. Sign-in
// methods return a non-nil error only when the attempt was cancelled.
type Gateway interface {
	FederatedSignIn(ctx context.Context) (auth.Outcome, error)
	SocialSignIn(ctx context.Context, host any) (auth.Outcome, error)
	EmailSignUp(ctx context.Context, email, password, displayName string) (auth.Outcome, error)
	EmailSignIn(ctx context.Context, email, password string) (auth.Outcome, error)
	CurrentIdentity() *auth.Identity
	SignOut(ctx context.Context)
}

// Recorder observes attempt lifecycle events.
type Recorder interface {
	AttemptStarted(method string)
	AttemptRejected(method string)
	AttemptFinished(method, result string)
}

type nopRecorder struct{}

func (nopRecorder) AttemptStarted(string)          {}
func (nopRecorder) AttemptRejected(string)         {}
func (nopRecorder) AttemptFinished(string, string) {}

type Option func(*Controller)

// WithRecorder reports attempt events to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithContext binds the controller's scope to parent; cancelling parent
// cancels every in-flight attempt.
func WithContext(parent context.Context) Option {
	return func(c *Controller) {
		c.parent = parent
	}
}

// Controller sequences gateway calls against a single State.
type Controller struct {
	gateway  Gateway
	store    *Store
	recorder Recorder

	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	closed        bool
	generation    uint64
	cancelAttempt context.CancelFunc
}

// New creates a Controller whose state is seeded by the gateway's
// synchronous CurrentIdentity probe.
func New(gateway Gateway, opts ...Option) *Controller {
	c := &Controller{
		gateway:  gateway,
		recorder: nopRecorder{},
		parent:   context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(c.parent)
	c.store = NewStore(State{Identity: gateway.CurrentIdentity()})
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	return c.store.Load()
}

// Store exposes the underlying state holder for read access.
func (c *Controller) Store() *Store {
	return c.store
}

// Subscribe returns a latest-value stream of snapshots; see Store.Subscribe.
func (c *Controller) Subscribe() (<-chan State, func()) {
	return c.store.Subscribe()
}

// FederatedSignIn starts a federated token sign-in. It returns false when
// an attempt is already in flight.
func (c *Controller) FederatedSignIn() bool {
	return c.start(MethodFederated, func(ctx context.Context) (auth.Outcome, error) {
		return c.gateway.FederatedSignIn(ctx)
	})
}

// SocialSignIn starts a social SDK sign-in presented on host.
func (c *Controller) SocialSignIn(host any) bool {
	return c.start(MethodSocial, func(ctx context.Context) (auth.Outcome, error) {
		return c.gateway.SocialSignIn(ctx, host)
	})
}

// EmailSignUp starts creating an email/password account.
func (c *Controller) EmailSignUp(email, password, displayName string) bool {
	return c.start(MethodEmailSignUp, func(ctx context.Context) (auth.Outcome, error) {
		return c.gateway.EmailSignUp(ctx, email, password, displayName)
	})
}

// EmailSignIn starts verifying email/password credentials.
func (c *Controller) EmailSignIn(email, password string) bool {
	return c.start(MethodEmailSignIn, func(ctx context.Context) (auth.Outcome, error) {
		return c.gateway.EmailSignIn(ctx, email, password)
	})
}

// SignOut abandons any in-flight attempt, waits for the gateway sign-out
// and resets the state to its anonymous shape.
func (c *Controller) SignOut() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.generation++
	gen := c.generation
	if c.cancelAttempt != nil {
		c.cancelAttempt()
		c.cancelAttempt = nil
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()

		c.gateway.SignOut(c.ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.generation {
			return
		}
		c.store.Update(func(State) (State, bool) {
			return State{}, true
		})
		logger.Info("signed out", map[string]any{"component": "controller"})
	}()
}

// Wait blocks until every started attempt and sign-out has been applied.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels all in-flight work, waits for it and ends every
// subscription. Mutators are no-ops afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.store.closeAll()
}

func (c *Controller) start(method string, call func(ctx context.Context) (auth.Outcome, error)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.recorder.AttemptRejected(method)
		return false
	}

	_, started := c.store.Update(func(s State) (State, bool) {
		if s.InProgress {
			return s, false
		}
		s.InProgress = true
		s.LastFailure = ""
		return s, true
	})
	if !started {
		c.recorder.AttemptRejected(method)
		logger.Debug("sign-in attempt rejected, another is in flight", map[string]any{
			"component": "controller",
			"method":    method,
		})
		return false
	}

	c.generation++
	gen := c.generation
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelAttempt = cancel
	c.recorder.AttemptStarted(method)
	logger.Info("sign-in attempt started", map[string]any{
		"component": "controller",
		"method":    method,
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		outcome, err := call(ctx)
		c.finish(method, gen, outcome, err)
	}()
	return true
}

// finish applies an attempt's result unless a later sign-out superseded it.
func (c *Controller) finish(method string, gen uint64, outcome auth.Outcome, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		logger.Debug("discarding superseded sign-in outcome", map[string]any{
			"component": "controller",
			"method":    method,
		})
		return
	}
	c.cancelAttempt = nil

	next, result := reconcile(outcome, err)
	c.store.Update(func(State) (State, bool) {
		return next, true
	})
	c.recorder.AttemptFinished(method, result)

	fields := map[string]any{
		"component": "controller",
		"method":    method,
		"result":    result,
	}
	if next.Identity != nil {
		fields["user_id"] = next.Identity.ID
	}
	logger.Info("sign-in attempt finished", fields)
}

// reconcile maps any attempt result onto the next state. It is the only
// place an outcome becomes state.
func reconcile(outcome auth.Outcome, err error) (State, string) {
	if err != nil && errors.Is(err, auth.ErrCancelled) {
		return State{}, ResultCancelled
	}
	if err != nil {
		return State{LastFailure: auth.Failed(err).Failure()}, ResultFailure
	}
	if id := outcome.Identity(); id != nil {
		return State{Identity: id}, ResultSuccess
	}
	return State{LastFailure: outcome.Failure()}, ResultFailure
}
