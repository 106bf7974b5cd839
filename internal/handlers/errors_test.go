package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/lib/jwt"
	"github.com/14kear/online_voting/polls-service/internal/lib/logger"
	"github.com/14kear/online_voting/polls-service/internal/services/auth"
	"github.com/14kear/online_voting/polls-service/internal/services/polls"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		want int
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
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(c, logger.Discard(), fmt.Errorf("op: %w", tt.err))

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestValidationDetails(t *testing.T) {
	err := fmt.Errorf("polls.Create: %w", fmt.Errorf("%w: options: duplicate option %q", models.ErrValidation, "Pizza"))
	assert.Equal(t, `options: duplicate option "Pizza"`, validationDetails(err))
	assert.Empty(t, validationDetails(models.ErrValidation))
}
