package handler

import (
	"errors"
	"net/http"
	"time"

	"handyman-auth/internal/auth/controller"
	"handyman-auth/internal/auth/provider/facebook"
	"handyman-auth/internal/logger"

	"github.com/gin-gonic/gin"
)

type emailSignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) federatedSignIn(c *gin.Context) {
	h.started(c, controller.MethodFederated, h.controller.FederatedSignIn())
}

func (h *Handler) emailSignIn(c *gin.Context) {
	var req emailSignInRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.started(c, controller.MethodEmailSignIn, h.controller.EmailSignIn(req.Email, req.Password))
}

// socialSignIn starts a social attempt and returns the login dialog URL
// the client must open. If the attempt ends before a dialog opens, the
// final state is returned instead.
func (h *Handler) socialSignIn(c *gin.Context) {
	states, cancel := h.controller.Subscribe()
	defer cancel()

	host := newRedirectHost()
	if !h.controller.SocialSignIn(host) {
		h.started(c, controller.MethodSocial, false)
		return
	}

	timeout := time.NewTimer(h.hostTimeout)
	defer timeout.Stop()

	for {
		select {
		case url := <-host.opened:
			c.JSON(http.StatusAccepted, gin.H{
				"login_url": url,
				"state":     newStateResponse(h.controller.State()),
			})
			return

		case st, ok := <-states:
			if !ok {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session controller closed"})
				return
			}
			if !st.InProgress {
				c.JSON(http.StatusOK, newStateResponse(st))
				return
			}

		case <-timeout.C:
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "login dialog did not open"})
			return

		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Handler) facebookCallback(c *gin.Context) {
	if h.redirects == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "social login is not configured"})
		return
	}

	err := h.redirects.HandleRedirect(c.Request.Context(), facebook.Redirect{
		State:            c.Query("state"),
		Code:             c.Query("code"),
		Error:            c.Query("error"),
		ErrorReason:      c.Query("error_reason"),
		ErrorDescription: c.Query("error_description"),
	})
	if errors.Is(err, facebook.ErrUnknownState) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}
	if err != nil {
		logger.Error("facebook callback failed", map[string]any{
			"component": "handler",
			"error":     err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "callback failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// signOut is idempotent. The reset state is published once the backend
// confirms.
func (h *Handler) signOut(c *gin.Context) {
	h.controller.SignOut()
	c.JSON(http.StatusAccepted, newStateResponse(h.controller.State()))
}
