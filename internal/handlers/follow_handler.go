package handlers

import (
	"net/http"

	"github.com/anonto42/wagwan/backend/internal/models"
	"github.com/anonto42/wagwan/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	graph *services.SocialGraph
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.SocialGraph) *FollowHandler {
	return &FollowHandler{graph: graph}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/follows", h.FollowUser)
	g.DELETE("/follows", h.UnfollowUser)
	g.GET("/follows/:followerId/:followingId", h.IsFollowing)
}

// FollowUser creates the edge followerId -> followingId
func (h *FollowHandler) FollowUser(c echo.Context) error {
	var req models.FollowRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if err := h.graph.Follow(requestContext(c), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UnfollowUser removes the edge; removing a missing edge still succeeds
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	var req models.FollowRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if err := h.graph.Unfollow(requestContext(c), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *FollowHandler) IsFollowing(c echo.Context) error {
	following, err := h.graph.IsFollowing(requestContext(c), models.FollowRequest{
		FollowerID:  c.Param("followerId"),
		FollowingID: c.Param("followingId"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"isFollowing": following})
}
