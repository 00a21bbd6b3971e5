package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/devhub-agent/internal/terminal"
)

// GetTerminal handles GET /api/terminal
func (h *Handlers) GetTerminal(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Terminal.Snapshot())
}

// SubmitCommand handles POST /api/terminal/commands. The command runs in
// the background; the response carries the pending record.
func (h *Handlers) SubmitCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	rec, err := h.app.Terminal.Submit(req.Command)
	if err != nil {
		respondError(c, err)
		return
	}
	if rec.ID == "" {
		// blank input is ignored
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusAccepted, rec)
}

// CancelCommand handles POST /api/terminal/cancel
func (h *Handlers) CancelCommand(c *gin.Context) {
	rec, err := h.app.Terminal.Cancel()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// RecallCommand handles POST /api/terminal/recall
func (h *Handlers) RecallCommand(c *gin.Context) {
	var req struct {
		Direction terminal.Direction `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: direction is required"})
		return
	}
	if req.Direction != terminal.Older && req.Direction != terminal.Newer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be 'older' or 'newer'"})
		return
	}

	text, ok := h.app.Terminal.Recall(req.Direction)
	c.JSON(http.StatusOK, gin.H{
		"command":  text,
		"selected": ok,
	})
}

// ClearHistory handles DELETE /api/terminal/history
func (h *Handlers) ClearHistory(c *gin.Context) {
	if err := h.app.Terminal.ClearHistory(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// QuickCommands handles GET /api/terminal/quick-commands
func (h *Handlers) QuickCommands(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg.QuickCommands)
}
