package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusdesk/internal/prefs"
)

type PrefsHandler struct {
	store  *prefs.Store
	logger *zap.Logger
}

func NewPrefsHandler(store *prefs.Store, logger *zap.Logger) *PrefsHandler {
	return &PrefsHandler{store: store, logger: logger}
}

type themeRequest struct {
	Mode     string `json:"mode"`
	Selected string `json:"selected"`
}

func (h *PrefsHandler) GetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mode":     h.store.Mode(c.Request.Context()),
		"selected": h.store.Selected(c.Request.Context()),
		"themes":   prefs.Themes,
	})
}

// SetTheme updates whichever of mode and selected are present.
func (h *PrefsHandler) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	if req.Mode != "" {
		if err := h.store.SetMode(ctx, req.Mode); err != nil {
			respondError(c, h.logger, "SetTheme", err)
			return
		}
	}
	if req.Selected != "" {
		if err := h.store.Select(ctx, req.Selected); err != nil {
			respondError(c, h.logger, "SetTheme", err)
			return
		}
	}
	c.JSON(http.StatusOK, h.store.Theme(ctx))
}
