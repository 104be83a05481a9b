package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusdesk/internal/pomodoro"
	"focusdesk/pkg/trace"
)

type TimerHandler struct {
	timer *pomodoro.Timer
	// ticking outlives the request that started it
	base   context.Context
	logger *zap.Logger
}

func NewTimerHandler(base context.Context, timer *pomodoro.Timer, logger *zap.Logger) *TimerHandler {
	return &TimerHandler{timer: timer, base: base, logger: logger}
}

type durationsRequest struct {
	WorkMinutes  int `json:"work_minutes" binding:"required,min=1"`
	BreakMinutes int `json:"break_minutes" binding:"required,min=1"`
}

func (h *TimerHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.timer.Snapshot())
}

func (h *TimerHandler) Start(c *gin.Context) {
	ctx := trace.WithContext(h.base, trace.FromContext(c.Request.Context()))
	h.timer.Start(ctx)
	c.JSON(http.StatusOK, h.timer.Snapshot())
}

func (h *TimerHandler) Pause(c *gin.Context) {
	h.timer.Pause()
	c.JSON(http.StatusOK, h.timer.Snapshot())
}

func (h *TimerHandler) Reset(c *gin.Context) {
	h.timer.Reset(c.Request.Context())
	c.JSON(http.StatusOK, h.timer.Snapshot())
}

func (h *TimerHandler) SetDurations(c *gin.Context) {
	var req durationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "work_minutes and break_minutes must be positive")
		return
	}
	err := h.timer.SetDurations(c.Request.Context(),
		time.Duration(req.WorkMinutes)*time.Minute,
		time.Duration(req.BreakMinutes)*time.Minute,
	)
	if err != nil {
		respondError(c, h.logger, "SetDurations", err)
		return
	}
	c.JSON(http.StatusOK, h.timer.Snapshot())
}
