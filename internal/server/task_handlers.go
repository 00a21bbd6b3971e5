package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/devhub-agent/internal/tasks"
)

// tagList accepts either a JSON array or comma-separated text
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*t = tasks.ParseTags(text)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be a string or a list of strings")
	}
	*t = tasks.NormalizeTags(list)
	return nil
}

// nullableTime tells an explicit null apart from an omitted field
type nullableTime struct {
	Set   bool
	Value *time.Time
}

func (n *nullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("due_date must be an RFC 3339 timestamp or null")
	}
	n.Value = &t
	return nil
}

type createTaskRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      tasks.Status   `json:"status"`
	Priority    tasks.Priority `json:"priority"`
	Tags        tagList        `json:"tags"`
	DueDate     *time.Time     `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *tasks.Status   `json:"status"`
	Priority    *tasks.Priority `json:"priority"`
	Tags        *tagList        `json:"tags"`
	DueDate     nullableTime    `json:"due_date"`
}

func (r updateTaskRequest) patch() tasks.Patch {
	p := tasks.Patch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
	}
	if r.DueDate.Set {
		p.DueDate = r.DueDate.Value
		p.ClearDueDate = r.DueDate.Value == nil
	}
	if r.Tags != nil {
		tags := []string(*r.Tags)
		p.Tags = &tags
	}
	return p
}

// ListTasks handles GET /api/tasks?filter=&sort=
func (h *Handlers) ListTasks(c *gin.Context) {
	filter, err := tasks.ParseFilter(c.Query("filter"))
	if err != nil {
		respondError(c, err)
		return
	}
	key, err := tasks.ParseSortKey(c.Query("sort"))
	if err != nil {
		respondError(c, err)
		return
	}

	list, err := h.app.Views.View(filter, key)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":  list,
		"count":  len(list),
		"filter": filter,
		"sort":   key,
	})
}

// TaskStats handles GET /api/tasks/stats
func (h *Handlers) TaskStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Views.Stats())
}

// GetTask handles GET /api/tasks/:id
func (h *Handlers) GetTask(c *gin.Context) {
	task, err := h.app.Tasks.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask handles POST /api/tasks
func (h *Handlers) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	task, err := h.app.Tasks.Add(tasks.Input{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Tags:        req.Tags,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Infow("task created", "id", task.ID, "title", task.Title)
	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PATCH /api/tasks/:id
func (h *Handlers) UpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	task, err := h.app.Tasks.Update(c.Param("id"), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Infow("task updated", "id", task.ID, "status", task.Status)
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *Handlers) DeleteTask(c *gin.Context) {
	task, err := h.app.Tasks.Delete(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Infow("task deleted", "id", task.ID)
	c.JSON(http.StatusOK, task)
}
