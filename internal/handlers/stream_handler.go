package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/wagwan/backend/internal/models"
	"github.com/anonto42/wagwan/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// StreamHandler handles stream records and media-room tokens
type StreamHandler struct {
	streams *services.StreamLifecycle
	tokens  *services.RoomTokens
}

func NewStreamHandler(streams *services.StreamLifecycle, tokens *services.RoomTokens) *StreamHandler {
	return &StreamHandler{streams: streams, tokens: tokens}
}

// RegisterStreamRoutes registers stream routes
func (h *StreamHandler) RegisterStreamRoutes(g *echo.Group) {
	g.POST("/streams", h.CreateStream)
	g.POST("/streams/token", h.IssueToken)
	g.GET("/streams/live", h.GetLiveStreams)
	g.GET("/streams/:id", h.GetStream)
	g.POST("/streams/:id/end", h.EndStream)
	g.PUT("/streams/:id/viewers", h.UpdateViewerCount)
	g.GET("/users/:id/streams", h.GetUserStreams)
}

func (h *StreamHandler) CreateStream(c echo.Context) error {
	var req models.CreateStreamRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	stream, err := h.streams.CreateStream(requestContext(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, stream)
}

// IssueToken signs a media-room token for the caller
func (h *StreamHandler) IssueToken(c echo.Context) error {
	var req models.RoomTokenRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	token, err := h.tokens.IssueRoomToken(req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, token)
}

func (h *StreamHandler) GetLiveStreams(c echo.Context) error {
	streams, err := h.streams.ListLiveStreams(requestContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, streams)
}

func (h *StreamHandler) GetStream(c echo.Context) error {
	id, err := streamID(c)
	if err != nil {
		return err
	}
	stream, err := h.streams.GetStream(requestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stream)
}

// EndStream takes a stream offline
func (h *StreamHandler) EndStream(c echo.Context) error {
	id, err := streamID(c)
	if err != nil {
		return err
	}
	stream, err := h.streams.EndStream(requestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stream)
}

func (h *StreamHandler) UpdateViewerCount(c echo.Context) error {
	id, err := streamID(c)
	if err != nil {
		return err
	}
	var req models.UpdateViewerCountRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	stream, err := h.streams.UpdateViewerCount(requestContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stream)
}

func (h *StreamHandler) GetUserStreams(c echo.Context) error {
	streams, err := h.streams.ListUserStreams(requestContext(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, streams)
}

func streamID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid stream ID")
	}
	return uint(id), nil
}
