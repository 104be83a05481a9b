package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusdesk/internal/backup"
)

// maxImportBytes bounds an uploaded backup.
const maxImportBytes = 16 << 20

type BackupHandler struct {
	svc    *backup.Service
	logger *zap.Logger
}

func NewBackupHandler(svc *backup.Service, logger *zap.Logger) *BackupHandler {
	return &BackupHandler{svc: svc, logger: logger}
}

func (h *BackupHandler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(c.Request.Context(), &buf); err != nil {
		respondError(c, h.logger, "ExportCSV", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="habits-export.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *BackupHandler) ExportJSON(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ExportJSON(c.Request.Context(), &buf); err != nil {
		respondError(c, h.logger, "ExportJSON", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="habits-backup.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// Import restores a backup from the request body; ?confirm=true is required.
func (h *BackupHandler) Import(c *gin.Context) {
	confirm, _ := strconv.ParseBool(c.Query("confirm"))
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	res, err := h.svc.Import(c.Request.Context(), body, confirm)
	if err != nil {
		respondError(c, h.logger, "Import", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
