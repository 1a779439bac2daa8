package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sesiond/internal/generator"
)

// statusFor maps an error to its HTTP status and client-facing message.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		return he.Code, msg
	}

	switch {
	case errors.Is(err, generator.ErrMissingInput),
		errors.Is(err, generator.ErrInvalidStartDate),
		errors.Is(err, generator.ErrMalformedJSON),
		errors.Is(err, generator.ErrInvalidDocument),
		errors.Is(err, generator.ErrInvalidTemplate):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, generator.ErrRender):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, fmt.Sprintf("internal server error: %v", err)
	}
}

// handleError writes every error as {"error": "..."}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := statusFor(err)
	ctx := c.Request().Context()
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", zap.Int("status", status), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Error: msg})
	}
	if err != nil {
		s.logger.Warn(ctx, "writing error response", zap.Error(err))
	}
}
