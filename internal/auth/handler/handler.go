package handler

import (
	"context"
	"net/http"
	"time"

	"handyman-auth/internal/auth/controller"
	"handyman-auth/internal/auth/provider/facebook"
	"handyman-auth/internal/logger"
	"handyman-auth/internal/navigation"

	"github.com/gin-gonic/gin"
)

const defaultHostTimeout = 10 * time.Second

// SessionController is the part of the session controller the HTTP
// surface drives.
type SessionController interface {
	State() controller.State
	Subscribe() (<-chan controller.State, func())
	FederatedSignIn() bool
	SocialSignIn(host any) bool
	EmailSignUp(email, password, displayName string) bool
	EmailSignIn(email, password string) bool
	SignOut()
}

// RedirectReceiver completes a social login from its redirect.
type RedirectReceiver interface {
	HandleRedirect(ctx context.Context, r facebook.Redirect) error
}

type Handler struct {
	controller  SessionController
	navigator   *navigation.Navigator
	redirects   RedirectReceiver
	hostTimeout time.Duration
}

// NewHandler builds the HTTP surface. redirects may be nil when social
// sign-in is not configured.
func NewHandler(
	ctl SessionController,
	nav *navigation.Navigator,
	redirects RedirectReceiver,
) *Handler {
	return &Handler{
		controller:  ctl,
		navigator:   nav,
		redirects:   redirects,
		hostTimeout: defaultHostTimeout,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/auth/state", h.state)
	r.GET("/auth/state/stream", h.stream)
	r.POST("/auth/federated", h.federatedSignIn)
	r.POST("/auth/social", h.socialSignIn)
	r.GET("/oauth/callback/facebook", h.facebookCallback)
	r.POST("/auth/email/signup", h.emailSignUp)
	r.POST("/auth/email/signin", h.emailSignIn)
	r.POST("/auth/signout", h.signOut)

	r.GET("/nav", h.nav)
	r.POST("/nav/back", h.navBack)
	r.POST("/nav/:route", h.navigate)
}

// started answers a mutator call: 202 with the in-progress state, or 409
// when another attempt holds the controller.
func (h *Handler) started(c *gin.Context, method string, ok bool) {
	if !ok {
		logger.Warn("sign-in rejected, attempt already in progress", map[string]any{
			"component": "handler",
			"method":    method,
		})
		c.JSON(http.StatusConflict, gin.H{
			"error": "sign-in already in progress",
			"state": newStateResponse(h.controller.State()),
		})
		return
	}
	c.JSON(http.StatusAccepted, newStateResponse(h.controller.State()))
}
