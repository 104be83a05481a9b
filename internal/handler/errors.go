package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusdesk/internal/backup"
	"focusdesk/internal/habit"
	"focusdesk/internal/note"
	"focusdesk/internal/pomodoro"
	"focusdesk/internal/prefs"
	"focusdesk/internal/service/auth"
	"focusdesk/internal/stats"
	"focusdesk/internal/task"
	"focusdesk/pkg/logger"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, habit.ErrNotFound), errors.Is(err, task.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrDisabled):
		return http.StatusNotFound
	case errors.Is(err, habit.ErrInvalidName),
		errors.Is(err, habit.ErrInvalidDate),
		errors.Is(err, habit.ErrFutureDate),
		errors.Is(err, task.ErrInvalidText),
		errors.Is(err, note.ErrInvalidDate),
		errors.Is(err, stats.ErrInvalidDate),
		errors.Is(err, prefs.ErrUnknownMode),
		errors.Is(err, prefs.ErrUnknownTheme),
		errors.Is(err, pomodoro.ErrInvalidDuration),
		errors.Is(err, backup.ErrInvalidBackup),
		errors.Is(err, backup.ErrNotConfirmed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg}. Internal failures are logged and their
// details are not exposed.
func respondError(c *gin.Context, log *zap.Logger, op string, err error) {
	status := statusFor(err)
	l := logger.WithTrace(c.Request.Context(), log)
	if status == http.StatusInternalServerError {
		l.Error(op+": failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	l.Warn(op+": rejected", zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
