// AngelaMos | 2026
// errors.go

package workflow

import (
	"errors"
	"net/http"

	"github.com/marketflow/agency-api/internal/core"
)

// AppError renders engine errors for API clients. It reports false for
// any other error.
func AppError(err error) (*core.AppError, bool) {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		return core.NewAppError(
			err,
			"status change is not allowed from the current status",
			http.StatusConflict,
			"INVALID_TRANSITION",
		), true
	case errors.Is(err, ErrForbidden):
		return core.NewAppError(
			err,
			"your role cannot make this status change",
			http.StatusForbidden,
			"FORBIDDEN",
		), true
	}
	return nil, false
}

// Outcome labels the result of a transition attempt for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, core.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
