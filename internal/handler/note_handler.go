package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusdesk/internal/note"
)

type NoteHandler struct {
	store  *note.Store
	logger *zap.Logger
}

func NewNoteHandler(store *note.Store, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{store: store, logger: logger}
}

type saveNoteRequest struct {
	Content string `json:"content"`
}

func (h *NoteHandler) ListDates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"dates": h.store.Dates(c.Request.Context())})
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	date := c.Param("date")
	content, err := h.store.Get(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, "GetNote", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "content": content})
}

func (h *NoteHandler) SaveNote(c *gin.Context) {
	var req saveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	date := c.Param("date")
	if err := h.store.Save(c.Request.Context(), date, req.Content); err != nil {
		respondError(c, h.logger, "SaveNote", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "content": req.Content})
}
