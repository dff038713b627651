package handler

import (
	"net/http"

	"handyman-auth/internal/navigation"

	"github.com/gin-gonic/gin"
)

type navResponse struct {
	Current navigation.Route   `json:"current"`
	Stack   []navigation.Route `json:"stack"`
}

func (h *Handler) navResponse() navResponse {
	return navResponse{
		Current: h.navigator.Current(),
		Stack:   h.navigator.Stack(),
	}
}

func (h *Handler) nav(c *gin.Context) {
	c.JSON(http.StatusOK, h.navResponse())
}

// navigate moves between the auth screens. Home is reached only through
// sign-in.
func (h *Handler) navigate(c *gin.Context) {
	route, err := navigation.ParseRoute(c.Param("route"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if route == navigation.Home || !h.navigator.Current().IsAuthRoute() {
		c.JSON(http.StatusConflict, gin.H{"error": "route not reachable from " + string(h.navigator.Current())})
		return
	}

	h.navigator.Navigate(route, "", false)
	c.JSON(http.StatusOK, h.navResponse())
}

func (h *Handler) navBack(c *gin.Context) {
	if !h.navigator.Back() {
		c.JSON(http.StatusConflict, gin.H{"error": "already at the start destination"})
		return
	}
	c.JSON(http.StatusOK, h.navResponse())
}
