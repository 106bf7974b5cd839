package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/lib/jwt"
	"github.com/14kear/online_voting/polls-service/internal/services/auth"
	"github.com/14kear/online_voting/polls-service/internal/services/polls"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"github.com/gin-gonic/gin"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{jwt.ErrInvalidToken, http.StatusUnauthorized},
	{models.ErrValidation, http.StatusBadRequest},
	{polls.ErrInvalidOption, http.StatusBadRequest},
	{polls.ErrPollExpired, http.StatusBadRequest},
	{auth.ErrUserExists, http.StatusConflict},
	{polls.ErrAlreadyVoted, http.StatusConflict},
	{polls.ErrPollNotFound, http.StatusNotFound},
	{polls.ErrForbidden, http.StatusForbidden},
}

// writeError maps a service error to its status code. Unknown errors are
// logged and hidden behind a generic 500.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	for _, e := range errorStatuses {
		if !errors.Is(err, e.err) {
			continue
		}

		body := gin.H{"error": e.err.Error()}
		if e.err == models.ErrValidation {
			if details := validationDetails(err); details != "" {
				body["details"] = details
			}
		}
		c.AbortWithStatusJSON(e.status, body)
		return
	}

	log.Error("request failed",
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		sl.Err(err),
	)
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// validationDetails returns the text following the validation sentinel in
// a wrapped error chain.
func validationDetails(err error) string {
	msg := err.Error()
	marker := models.ErrValidation.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return ""
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
}
