package handler

import (
	"io"
	"net/http"

	"handyman-auth/internal/auth/controller"

	"github.com/gin-gonic/gin"
)

type identityResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

type stateResponse struct {
	Phase       controller.Phase  `json:"phase"`
	SignedIn    bool              `json:"signed_in"`
	InProgress  bool              `json:"in_progress"`
	Identity    *identityResponse `json:"identity,omitempty"`
	LastFailure string            `json:"last_failure,omitempty"`
}

func newStateResponse(s controller.State) stateResponse {
	resp := stateResponse{
		Phase:       s.Phase(),
		SignedIn:    s.SignedIn(),
		InProgress:  s.InProgress,
		LastFailure: s.LastFailure,
	}
	if s.Identity != nil {
		resp.Identity = &identityResponse{
			ID:          s.Identity.ID,
			DisplayName: s.Identity.DisplayName,
			Email:       s.Identity.Email,
			AvatarURL:   s.Identity.AvatarURL,
		}
	}
	return resp
}

func (h *Handler) state(c *gin.Context) {
	c.JSON(http.StatusOK, newStateResponse(h.controller.State()))
}

// stream pushes every snapshot as a server-sent "state" event until the
// client goes away or the controller closes.
func (h *Handler) stream(c *gin.Context) {
	states, cancel := h.controller.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case st, ok := <-states:
			if !ok {
				return false
			}
			c.SSEvent("state", newStateResponse(st))
			return true
		}
	})
}
