package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusdesk/internal/task"
)

type TaskHandler struct {
	store  *task.Store
	logger *zap.Logger
}

func NewTaskHandler(store *task.Store, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{store: store, logger: logger}
}

type createTaskRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tasks":    h.store.List(c.Request.Context()),
		"selected": h.store.Selected(),
	})
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "text is required")
		return
	}
	created, err := h.store.Add(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, h.logger, "CreateTask", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TaskHandler) ToggleTask(c *gin.Context) {
	updated, err := h.store.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "ToggleTask", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, "DeleteTask", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) SelectTask(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Select(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "SelectTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": id})
}
