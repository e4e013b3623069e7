package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/service"
)

// IdentityKey is the echo context key holding the verified *identity.Identity.
const IdentityKey = "identity"

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

func currentIdentity(c echo.Context) *identity.Identity {
	id, _ := c.Get(IdentityKey).(*identity.Identity)
	return id
}

// respondError maps service sentinels onto HTTP statuses.
func respondError(c echo.Context, err error) error {
	var (
		status    int
		code      string
		retryable bool
	)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrSessionNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, service.ErrOrderNotFound):
		status, code = http.StatusNotFound, "order_not_found"
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidStateTransition):
		status, code = http.StatusConflict, "invalid_state_transition"
	case errors.Is(err, service.ErrUpstreamTimeout):
		status, code, retryable = http.StatusGatewayTimeout, "upstream_timeout", true
	case errors.Is(err, service.ErrUpstreamUnavailable):
		status, code, retryable = http.StatusServiceUnavailable, "upstream_unavailable", true
	default:
		log.Printf("[http] unhandled error path=%s err=%v", c.Path(), err)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "internal error"))
	}
	resp := NewErrorResponse(code, err.Error())
	resp.Error.Retryable = retryable
	return c.JSON(status, resp)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", msg))
}
