package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusdesk/internal/calendar"
	"focusdesk/internal/habit"
	"focusdesk/pkg/clock"
)

type HabitHandler struct {
	store  *habit.Store
	clock  clock.Clock
	logger *zap.Logger
}

func NewHabitHandler(store *habit.Store, clk clock.Clock, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{store: store, clock: clk, logger: logger}
}

type createHabitRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
}

type toggleHabitRequest struct {
	Date string `json:"date"`
}

func (h *HabitHandler) ListHabits(c *gin.Context) {
	habits := h.store.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

func (h *HabitHandler) CreateHabit(c *gin.Context) {
	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	created, err := h.store.Add(c.Request.Context(), req.Name, req.Category)
	if err != nil {
		respondError(c, h.logger, "CreateHabit", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *HabitHandler) DeleteHabit(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, "DeleteHabit", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleHabit flips one day; the body is optional and defaults to today.
func (h *HabitHandler) ToggleHabit(c *gin.Context) {
	var req toggleHabitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	if req.Date == "" {
		req.Date = calendar.Key(h.clock.Now())
	}

	updated, err := h.store.ToggleCompletion(c.Request.Context(), c.Param("id"), req.Date)
	if err != nil {
		respondError(c, h.logger, "ToggleHabit", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *HabitHandler) HabitWeek(c *gin.Context) {
	days, err := h.store.Week(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "HabitWeek", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

func (h *HabitHandler) HabitStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats(c.Request.Context()))
}
