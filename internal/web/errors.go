package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valter-silva-au/taskdesk/internal/core"
)

// errBadRequest marks handler-level input errors.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor maps a service error to an HTTP status and a client-facing
// message.
func statusFor(err error) (int, string) {
	var (
		rateLimit *core.RateLimitError
		lockout   *core.LockoutError
		session   *core.SessionValidationError
	)
	switch {
	case errors.As(err, &rateLimit), errors.As(err, &lockout):
		return http.StatusTooManyRequests, err.Error()
	case errors.As(err, &session):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrInvalidCode),
		errors.Is(err, core.ErrEmptyInput),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrCodeMismatch):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, "session is invalid, sign in again"
	case errors.Is(err, core.ErrTaskNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// failMutation reports a failed change to a task. A task that no longer
// exists leaves the board unchanged and is answered as a successful no-op.
func (s *Server) failMutation(c *gin.Context, err error) {
	if errors.Is(err, core.ErrTaskNotFound) {
		s.respond(c, gin.H{"success": true, "changed": false})
		return
	}
	s.abortWithError(c, err)
}

// bind decodes the JSON body into dst, reporting malformed input as a
// bad request.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return badRequest("malformed request body: %v", err)
	}
	return nil
}
