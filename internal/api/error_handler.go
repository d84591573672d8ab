package api

import (
	"errors"
	"net/http"

	"github.com/dutch3883/th-stray-sub000/internal/auth"
	"github.com/dutch3883/th-stray-sub000/internal/report"
	"github.com/gin-gonic/gin"
)

// Stable reason codes surfaced to clients.
const (
	ReasonUnauthenticated   = "UNAUTHENTICATED"
	ReasonPermissionDenied  = "PERMISSION_DENIED"
	ReasonInvalidTransition = "INVALID_TRANSITION"
	ReasonNotFound          = "NOT_FOUND"
	ReasonValidation        = "VALIDATION_ERROR"
	ReasonConflict          = "CONFLICT"
	ReasonInternal          = "INTERNAL"
)

// RespondError translates a domain error into the structured envelope.
// Each kind keeps its own code; nothing gets recoded into a generic
// error except unrecognized collaborator failures.
func RespondError(c *gin.Context, err error) {
	var permErr *auth.PermissionDeniedError
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		Error(c, http.StatusUnauthorized, ReasonUnauthenticated, "authentication required", err.Error())
	case errors.As(err, &permErr):
		Error(c, http.StatusForbidden, ReasonPermissionDenied, "permission denied", err.Error())
	case errors.Is(err, report.ErrNotFound):
		Error(c, http.StatusNotFound, ReasonNotFound, "report not found", err.Error())
	case errors.Is(err, report.ErrConflict):
		Error(c, http.StatusConflict, ReasonConflict, "report modified concurrently, retry with a fresh read", err.Error())
	case errors.Is(err, report.ErrInvalidTransition):
		Error(c, http.StatusUnprocessableEntity, ReasonInvalidTransition, "invalid status transition", err.Error())
	case errors.Is(err, report.ErrValidation):
		Error(c, http.StatusBadRequest, ReasonValidation, "invalid request", err.Error())
	default:
		Error(c, http.StatusInternalServerError, ReasonInternal, "internal server error", err.Error())
	}
}

// APIError is an error already carrying its response shape.
type APIError struct {
	Code    int
	Reason  string
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware renders errors attached to the gin context.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Reason, apiErr.Message, apiErr.Detail)
			} else {
				RespondError(c, err.Err)
			}
		}
	}
}
