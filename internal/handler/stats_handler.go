package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusdesk/internal/stats"
)

type StatsHandler struct {
	agg    *stats.Aggregator
	logger *zap.Logger
}

func NewStatsHandler(agg *stats.Aggregator, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{agg: agg, logger: logger}
}

// Summary serves ?date=YYYY-MM-DD, today by default.
func (h *StatsHandler) Summary(c *gin.Context) {
	sum, err := h.agg.Summary(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, "StatsSummary", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *StatsHandler) Weekly(c *gin.Context) {
	days, err := h.agg.Weekly(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, "StatsWeekly", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}
