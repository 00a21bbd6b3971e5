package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/devhub-agent/config"
	"github.com/ngenohkevin/devhub-agent/internal/app"
	"github.com/ngenohkevin/devhub-agent/internal/logger"
	"github.com/ngenohkevin/devhub-agent/internal/notify"
	"github.com/ngenohkevin/devhub-agent/internal/system"
	"github.com/ngenohkevin/devhub-agent/internal/tasks"
	"github.com/ngenohkevin/devhub-agent/internal/terminal"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	cfg     *config.Config
	app     *app.App
	log     *logger.Logger
	version string

	// keepAlive is the SSE heartbeat interval
	keepAlive time.Duration
}

// NewHandlers creates a new handlers instance
func NewHandlers(cfg *config.Config, a *app.App, log *logger.Logger, version string) *Handlers {
	return &Handlers{
		cfg:       cfg,
		app:       a,
		log:       log,
		version:   version,
		keepAlive: 15 * time.Second,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	})
}

// GetInfo handles GET /api/info
func (h *Handlers) GetInfo(c *gin.Context) {
	hostInfo, err := system.GetHostInfo(h.cfg.CommandShell, h.cfg.CommandWorkdir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"host":    hostInfo,
		"agent":   "devhub-agent",
		"version": h.version,
	})
}

// Notification handlers

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": h.app.Notifications.List(),
		"unread":        h.app.Notifications.Unread(),
	})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.app.Notifications.MarkRead(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": h.app.Notifications.Unread()})
}

// ClearNotifications handles DELETE /api/notifications
func (h *Handlers) ClearNotifications(c *gin.Context) {
	h.app.Notifications.Clear()
	c.Status(http.StatusNoContent)
}

// StreamEvents handles GET /api/events (SSE notifications and command updates)
func (h *Handlers) StreamEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events, unsubscribe := h.app.Notifications.Subscribe(32)
	defer unsubscribe()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Kind), e.Data)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().UTC()})
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Close cleans up handlers resources
func (h *Handlers) Close() error {
	h.app.Close()
	return nil
}

// respondError maps domain errors onto status codes
func respondError(c *gin.Context, err error) {
	var validation *tasks.ValidationError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, tasks.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tasks.ErrNotFound), errors.Is(err, notify.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, terminal.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
