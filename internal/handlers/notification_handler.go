package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/wagwan/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	graph *services.SocialGraph
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(graph *services.SocialGraph) *NotificationHandler {
	return &NotificationHandler{graph: graph}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/users/:id/notifications", h.GetNotifications)
	g.PUT("/users/:id/notifications/read-all", h.MarkAllAsRead)
}

// GetNotifications returns the newest notifications, ?limit= capped at 100
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	limit := services.DefaultNotificationLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	notifications, err := h.graph.ListNotifications(requestContext(c), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	if err := h.graph.MarkNotificationsRead(requestContext(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
