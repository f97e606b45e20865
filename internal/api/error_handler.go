package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bgi/launchpad-auth/internal/core/domain"
)

const genericMessage = "An unexpected error occurred. Please try again later."

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Timestamp   string            `json:"timestamp"`
	Status      int               `json:"status"`
	Error       string            `json:"error"`
	Category    string            `json:"category"`
	Message     string            `json:"message"`
	Path        string            `json:"path"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and a stable message.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the ErrorResponse envelope.
func NewHTTPErrorHandler(log zerolog.Logger, now func() time.Time) echo.HTTPErrorHandler {
	if now == nil {
		now = time.Now
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err, log, c)
		resp.Timestamp = now().UTC().Format(time.RFC3339)
		resp.Path = c.Request().URL.Path

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.Status)
			return
		}
		_ = c.JSON(resp.Status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) ErrorResponse {
	// Echo's own errors (404 from router, 405, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprintf("%v", he.Message)
		if he.Code >= http.StatusInternalServerError {
			logUnexpected(log, c, err)
			msg = genericMessage
		}
		return ErrorResponse{Status: he.Code, Error: http.StatusText(he.Code), Category: "http", Message: msg}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg := ve.Message
		if msg == "" {
			msg = ve.Error()
		}
		return ErrorResponse{
			Status:      http.StatusBadRequest,
			Error:       "Validation Failed",
			Category:    "validation",
			Message:     msg,
			FieldErrors: ve.Fields,
		}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrValidation):
		return badRequest("validation", err.Error())
	case errors.Is(err, domain.ErrConflict):
		return badRequest("conflict", "Email is already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return badRequest("invalid_credentials", "Invalid email or password")
	case errors.Is(err, domain.ErrInvalidToken):
		return badRequest("invalid_token", "Invalid refresh token")
	case errors.Is(err, domain.ErrUnauthenticated):
		return ErrorResponse{Status: http.StatusUnauthorized, Error: "Unauthorized", Category: "unauthenticated", Message: "Authentication required"}
	case errors.Is(err, domain.ErrForbidden):
		return ErrorResponse{Status: http.StatusForbidden, Error: "Forbidden", Category: "forbidden", Message: "You don't have permission to access this resource"}
	}

	// Unexpected error: log the real cause, return a generic message.
	logUnexpected(log, c, err)
	return ErrorResponse{
		Status:   http.StatusInternalServerError,
		Error:    "Internal Server Error",
		Category: "internal",
		Message:  genericMessage,
	}
}

func badRequest(category, msg string) ErrorResponse {
	return ErrorResponse{Status: http.StatusBadRequest, Error: "Bad Request", Category: category, Message: msg}
}

func logUnexpected(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
}
