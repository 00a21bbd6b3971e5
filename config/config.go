package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// GenerateAPIKey generates a secure random API key
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Config holds all configuration for the agent
type Config struct {
	// Server settings
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Authentication
	APIKey    string
	JWTSecret string

	// Security
	AllowedOrigins []string
	RateLimitRPS   int

	// Logging
	LogLevel    string
	LogEncoding string

	// Terminal
	CommandShell     string
	CommandTimeout   time.Duration
	CommandMaxOutput int
	CommandWorkdir   string
	QuickCommands    []QuickCommand

	// Dashboard
	MaxTasks          int
	ShowNotifications bool
	SeedWelcomeTask   bool
	ViewCacheTTL      time.Duration

	// Setup mode
	SetupMode bool
	EnvFile   string
}

// QuickCommand is a canned terminal command offered to the user
type QuickCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// DefaultQuickCommands returns the commands offered as one-click shortcuts
func DefaultQuickCommands() []QuickCommand {
	return []QuickCommand{
		{Command: "help", Description: "Show available commands"},
		{Command: "clear", Description: "Clear terminal"},
		{Command: "ls", Description: "List files"},
		{Command: "pwd", Description: "Print working directory"},
		{Command: "date", Description: "Show current date"},
		{Command: "whoami", Description: "Show current user"},
		{Command: "echo [text]", Description: "Echo text"},
		{Command: "cat [file]", Description: "Show file contents"},
		{Command: "history", Description: "Show command history"},
	}
}

// Settings are the values that can be changed at runtime
type Settings struct {
	MaxTasks              int  `json:"max_tasks"`
	CommandTimeoutSeconds int  `json:"command_timeout_seconds"`
	ShowNotifications     bool `json:"show_notifications"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Determine .env file path
	envFile := getEnvFile()

	// Load .env file if it exists
	_ = godotenv.Load(envFile)

	cfg := &Config{
		Port:              getEnvInt("PORT", 8092),
		Host:              getEnv("HOST", "0.0.0.0"),
		ReadTimeout:       time.Duration(getEnvInt("READ_TIMEOUT_SECONDS", 30)) * time.Second,
		WriteTimeout:      time.Duration(getEnvInt("WRITE_TIMEOUT_SECONDS", 300)) * time.Second,
		APIKey:            getEnv("API_KEY", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AllowedOrigins:    getEnvSlice("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:      getEnvInt("RATE_LIMIT_RPS", 100),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogEncoding:       getEnv("LOG_ENCODING", "console"),
		CommandShell:      getEnv("COMMAND_SHELL", "bash"),
		CommandTimeout:    time.Duration(getEnvInt("COMMAND_TIMEOUT_SECONDS", 30)) * time.Second,
		CommandMaxOutput:  getEnvInt("COMMAND_MAX_OUTPUT_BYTES", 1024*1024),
		CommandWorkdir:    getEnv("COMMAND_WORKDIR", ""),
		QuickCommands:     DefaultQuickCommands(),
		MaxTasks:          getEnvInt("MAX_TASKS", 100),
		ShowNotifications: getEnvBool("SHOW_NOTIFICATIONS", true),
		SeedWelcomeTask:   getEnvBool("SEED_WELCOME_TASK", true),
		ViewCacheTTL:      time.Duration(getEnvInt("VIEW_CACHE_TTL_SECONDS", 2)) * time.Second,
		SetupMode:         false,
		EnvFile:           envFile,
	}

	// Check if API key is configured
	if cfg.APIKey == "" {
		cfg.SetupMode = true
		return cfg, nil
	}

	if cfg.JWTSecret == "" {
		// Use API key as fallback for JWT secret
		cfg.JWTSecret = cfg.APIKey
	}

	return cfg, nil
}

// getEnvFile returns the path to the .env file
func getEnvFile() string {
	// Check if running from a specific directory
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		return envFile
	}

	// Try to find .env in current directory or executable directory
	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}

	// Get executable directory
	exe, err := os.Executable()
	if err == nil {
		dir := strings.TrimSuffix(exe, "/devhub-agent")
		envPath := dir + "/.env"
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	return ".env"
}

// SaveAPIKey saves the API key to the .env file
func (c *Config) SaveAPIKey(apiKey string) error {
	updates := map[string]string{"API_KEY": apiKey}
	if err := UpdateEnvFile(c.EnvFile, updates); err != nil {
		return err
	}

	// A JWT secret derived from the old key follows the new one; an
	// explicitly configured JWT_SECRET is kept.
	if c.JWTSecret == "" || c.JWTSecret == c.APIKey {
		c.JWTSecret = apiKey
	}
	c.APIKey = apiKey
	c.SetupMode = false

	return nil
}

// UpdateEnvFile updates or adds environment variables in a .env file
func UpdateEnvFile(envFile string, updates map[string]string) error {
	// Read existing .env content
	existingContent := ""
	if data, err := os.ReadFile(envFile); err == nil {
		existingContent = string(data)
	}

	// Parse existing lines
	lines := strings.Split(existingContent, "\n")
	found := make(map[string]bool)

	// Update existing keys
	for i, line := range lines {
		for key, value := range updates {
			if strings.HasPrefix(line, key+"=") {
				lines[i] = key + "=" + value
				found[key] = true
				break
			}
		}
	}

	// Add missing keys at the beginning
	var newLines []string
	for key, value := range updates {
		if !found[key] {
			newLines = append(newLines, key+"="+value)
		}
	}
	if len(newLines) > 0 {
		lines = append(newLines, lines...)
	}

	// Remove empty lines at the end
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	// Write back to .env file
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env file: %w", err)
	}

	return nil
}

// LoadWithDefaults loads config with defaults for testing
func LoadWithDefaults() *Config {
	return &Config{
		Port:              8092,
		Host:              "0.0.0.0",
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      300 * time.Second,
		APIKey:            "test-api-key",
		JWTSecret:         "test-jwt-secret",
		AllowedOrigins:    []string{"*"},
		RateLimitRPS:      100,
		LogLevel:          "info",
		LogEncoding:       "console",
		CommandShell:      "sh",
		CommandTimeout:    30 * time.Second,
		CommandMaxOutput:  1024 * 1024,
		QuickCommands:     DefaultQuickCommands(),
		MaxTasks:          100,
		ShowNotifications: true,
		SeedWelcomeTask:   true,
		ViewCacheTTL:      2 * time.Second,
	}
}

// Addr returns the server address string
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Settings returns the runtime-adjustable subset of the config
func (c *Config) Settings() Settings {
	return Settings{
		MaxTasks:              c.MaxTasks,
		CommandTimeoutSeconds: int(c.CommandTimeout / time.Second),
		ShowNotifications:     c.ShowNotifications,
	}
}

// Validate checks a settings update before it is applied
func (s Settings) Validate() error {
	if s.MaxTasks < 1 {
		return fmt.Errorf("max_tasks must be at least 1")
	}
	if s.CommandTimeoutSeconds < 1 {
		return fmt.Errorf("command_timeout_seconds must be at least 1")
	}
	return nil
}

// ApplySettings validates s, stores it in the config and persists it to
// the .env file when one is configured
func (c *Config) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if c.EnvFile != "" {
		updates := map[string]string{
			"MAX_TASKS":               strconv.Itoa(s.MaxTasks),
			"COMMAND_TIMEOUT_SECONDS": strconv.Itoa(s.CommandTimeoutSeconds),
			"SHOW_NOTIFICATIONS":      strconv.FormatBool(s.ShowNotifications),
		}
		if err := UpdateEnvFile(c.EnvFile, updates); err != nil {
			return err
		}
	}

	c.MaxTasks = s.MaxTasks
	c.CommandTimeout = time.Duration(s.CommandTimeoutSeconds) * time.Second
	c.ShowNotifications = s.ShowNotifications
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
