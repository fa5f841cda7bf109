package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/anonto42/wagwan/backend/internal/services"
	"github.com/anonto42/wagwan/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindInvalidOperation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler renders every error as {"error": message}. Service errors
// carry their own client-safe message; anything else that ends in a 5xx is
// reported generically.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorResponse{Error: http.StatusText(http.StatusInternalServerError)}

	var svcErr *services.Error
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &svcErr):
		status = statusForKind(svcErr.Kind)
		body = errorResponse{Error: svcErr.Message, Fields: svcErr.Fields}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok && status < http.StatusInternalServerError {
			body.Error = msg
		} else {
			body.Error = http.StatusText(status)
		}
	}

	entry := logger.WithFields(logrus.Fields{
		"method":     c.Request().Method,
		"uri":        c.Request().RequestURI,
		"status":     status,
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request error")
	} else {
		entry.Debug("request rejected")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.WithError(err).Warn("failed to write error response")
	}
}

// requestContext detaches store work from client disconnects.
func requestContext(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

// bindJSON decodes the request body only; path and query values never leak
// into the payload. A body sent without a Content-Type is read as JSON.
// Malformed JSON becomes a 400.
func bindJSON(c echo.Context, dst interface{}) error {
	req := c.Request()
	if req.ContentLength != 0 && req.Header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return (&echo.DefaultBinder{}).BindBody(c, dst)
}
