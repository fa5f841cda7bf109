package handlers

import (
	"net/http"

	"github.com/anonto42/wagwan/backend/internal/models"
	"github.com/anonto42/wagwan/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	graph *services.SocialGraph
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(graph *services.SocialGraph) *UserHandler {
	return &UserHandler{graph: graph}
}

// RegisterUserRoutes registers user profile routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.POST("/users", h.UpsertUser)
	g.GET("/users", h.ListUsers)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/stats", h.GetStats)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// UpsertUser creates the user or replaces its profile
func (h *UserHandler) UpsertUser(c echo.Context) error {
	var req models.UpsertUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.graph.UpsertUser(requestContext(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.graph.ListUsers(requestContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// SearchUsers matches ?q= against usernames
func (h *UserHandler) SearchUsers(c echo.Context) error {
	users, err := h.graph.SearchUsers(requestContext(c), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.graph.GetUser(requestContext(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// GetStats returns follower and following counts
func (h *UserHandler) GetStats(c echo.Context) error {
	stats, err := h.graph.GetFollowStats(requestContext(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *UserHandler) GetFollowers(c echo.Context) error {
	users, err := h.graph.ListFollowers(requestContext(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetFollowing(c echo.Context) error {
	users, err := h.graph.ListFollowing(requestContext(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}
