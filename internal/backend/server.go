package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/conversion"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
	"github.com/deerking0923/prj-sketch-backend/internal/common"
	"github.com/deerking0923/prj-sketch-backend/internal/core"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewServer creates the echo instance with request logging, panic recovery
// and JSON error bodies.
func NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/probe"
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRoutePath: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"route", v.RoutePath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"user_agent", v.UserAgent,
			}
			if v.Error != nil {
				slog.Error("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Validator = common.NewGenericEchoValidator()
	e.HTTPErrorHandler = errorHandler

	return e
}

// errorHandler writes {"error": message} with the status derived from err.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusForError(err)
	message := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message = fmt.Sprint(httpErr.Message)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, map[string]string{"error": message})
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

// statusForError maps the conversion error taxonomy onto HTTP statuses.
// Decode failures are server errors, as are failures inside a processor.
func statusForError(err error) int {
	var (
		httpErr     *echo.HTTPError
		missing     *conversion.MissingInputError
		unknown     *stylestructure.UnknownStyleError
		invalid     *stylestructure.InvalidParameterError
		unsupported *core.UnsupportedFormatError
		tooLarge    *pixel.TooLargeError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.As(err, &missing),
		errors.As(err, &unknown),
		errors.As(err, &invalid),
		errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
