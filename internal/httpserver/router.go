package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"focusdesk/internal/handler"
	"focusdesk/internal/service/auth"
	"focusdesk/pkg/otel"
)

// Pinger reports whether a dependency is ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth   *handler.AuthHandler
	Habit  *handler.HabitHandler
	Task   *handler.TaskHandler
	Note   *handler.NoteHandler
	Stats  *handler.StatsHandler
	Timer  *handler.TimerHandler
	Prefs  *handler.PrefsHandler
	Backup *handler.BackupHandler
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(h Handlers, authSvc *auth.Service, store Pinger, logger *zap.Logger) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(otel.GinMiddleware())
	r.Use(RequestLogger(logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "store_not_ready", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/login", h.Auth.Login)

	// Protected
	api := r.Group("/")
	api.Use(AuthMiddleware(authSvc))
	{
		api.GET("/habits", h.Habit.ListHabits)
		api.POST("/habits", h.Habit.CreateHabit)
		api.GET("/habits/stats", h.Habit.HabitStats)
		api.DELETE("/habits/:id", h.Habit.DeleteHabit)
		api.POST("/habits/:id/toggle", h.Habit.ToggleHabit)
		api.GET("/habits/:id/week", h.Habit.HabitWeek)

		api.GET("/tasks", h.Task.ListTasks)
		api.POST("/tasks", h.Task.CreateTask)
		api.POST("/tasks/:id/toggle", h.Task.ToggleTask)
		api.DELETE("/tasks/:id", h.Task.DeleteTask)
		api.POST("/tasks/:id/select", h.Task.SelectTask)

		api.GET("/notes", h.Note.ListDates)
		api.GET("/notes/:date", h.Note.GetNote)
		api.PUT("/notes/:date", h.Note.SaveNote)

		api.GET("/stats", h.Stats.Summary)
		api.GET("/stats/weekly", h.Stats.Weekly)

		api.GET("/timer", h.Timer.Get)
		api.POST("/timer/start", h.Timer.Start)
		api.POST("/timer/pause", h.Timer.Pause)
		api.POST("/timer/reset", h.Timer.Reset)
		api.PUT("/timer/durations", h.Timer.SetDurations)

		api.GET("/prefs/theme", h.Prefs.GetTheme)
		api.PUT("/prefs/theme", h.Prefs.SetTheme)

		api.GET("/export/csv", h.Backup.ExportCSV)
		api.GET("/export/json", h.Backup.ExportJSON)
		api.POST("/import", h.Backup.Import)
	}

	return &Router{Engine: r}
}
