package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/devhub-agent/config"
	"github.com/ngenohkevin/devhub-agent/internal/app"
)

// minAPIKeyLength is the shortest API key SaveKey accepts
const minAPIKeyLength = 32

// SetupHandlers handles the setup and settings endpoints
type SetupHandlers struct {
	cfg  *config.Config
	app  *app.App
	auth *AuthService
}

// NewSetupHandlers creates setup handlers. A saved API key is pushed into
// auth so it takes effect without a restart.
func NewSetupHandlers(cfg *config.Config, a *app.App, auth *AuthService) *SetupHandlers {
	return &SetupHandlers{cfg: cfg, app: a, auth: auth}
}

// GetSettings returns current settings (requires auth)
func (h *SetupHandlers) GetSettings(c *gin.Context) {
	configured, setupMode := h.app.AuthStatus()
	c.JSON(http.StatusOK, gin.H{
		"settings":        h.app.Settings(),
		"port":            h.cfg.Port,
		"host":            h.cfg.Host,
		"allowed_origins": h.cfg.AllowedOrigins,
		"log_level":       h.cfg.LogLevel,
		"rate_limit_rps":  h.cfg.RateLimitRPS,
		"command_shell":   h.cfg.CommandShell,
		"env_file":        h.cfg.EnvFile,
		"setup_mode":      setupMode,
		// Don't expose the actual API key, just indicate if it's set
		"api_key_configured": configured,
	})
}

// UpdateSettings handles PUT /api/settings. Omitted fields keep their
// current value.
func (h *SetupHandlers) UpdateSettings(c *gin.Context) {
	var req struct {
		MaxTasks              *int  `json:"max_tasks"`
		CommandTimeoutSeconds *int  `json:"command_timeout_seconds"`
		ShowNotifications     *bool `json:"show_notifications"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request",
		})
		return
	}

	settings := h.app.Settings()
	if req.MaxTasks != nil {
		settings.MaxTasks = *req.MaxTasks
	}
	if req.CommandTimeoutSeconds != nil {
		settings.CommandTimeoutSeconds = *req.CommandTimeoutSeconds
	}
	if req.ShowNotifications != nil {
		settings.ShowNotifications = *req.ShowNotifications
	}

	if err := settings.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.app.ApplySettings(settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save settings: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated",
		"settings": h.app.Settings(),
	})
}

// GenerateKey generates a new API key
func (h *SetupHandlers) GenerateKey(c *gin.Context) {
	apiKey, err := config.GenerateAPIKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate API key: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"api_key": apiKey,
	})
}

// SaveKey saves the API key to the .env file
func (h *SetupHandlers) SaveKey(c *gin.Context) {
	var req struct {
		APIKey string `json:"api_key" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: api_key is required",
		})
		return
	}

	if err := validateAPIKey(req.APIKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds, err := h.app.SaveAPIKey(req.APIKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save API key: " + err.Error(),
		})
		return
	}
	h.auth.SetCredentials(creds.APIKey, creds.JWTSecret)

	c.JSON(http.StatusOK, gin.H{
		"message":  "API key saved successfully",
		"env_file": h.cfg.EnvFile,
		"note":     "The new API key is active; tokens signed with a replaced secret must be reissued",
	})
}

func validateAPIKey(key string) error {
	if len(key) < minAPIKeyLength {
		return errors.New("API key must be at least 32 characters")
	}
	return nil
}
