package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	envFile := filepath.Join(t.TempDir(), ".env")
	t.Setenv("ENV_FILE", envFile)
	for _, key := range []string{"API_KEY", "JWT_SECRET", "PORT", "HOST", "LOG_LEVEL", "MAX_TASKS", "COMMAND_TIMEOUT_SECONDS", "SHOW_NOTIFICATIONS"} {
		t.Setenv(key, "")
	}
	return envFile
}

func TestLoadWithDefaults(t *testing.T) {
	cfg := LoadWithDefaults()

	assert.NotNil(t, cfg)
	assert.Equal(t, 8092, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "test-api-key", cfg.APIKey)
	assert.NotEmpty(t, cfg.QuickCommands)
}

func TestLoadMissingAPIKeyEntersSetupMode(t *testing.T) {
	envFile := isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.SetupMode)
	assert.Equal(t, envFile, cfg.EnvFile)
	assert.Empty(t, cfg.JWTSecret)
}

func TestLoadWithEnvVars(t *testing.T) {
	isolateEnv(t)
	t.Setenv("API_KEY", "my-test-key")
	t.Setenv("PORT", "9000")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_TASKS", "5")
	t.Setenv("COMMAND_TIMEOUT_SECONDS", "10")
	t.Setenv("SHOW_NOTIFICATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.SetupMode)
	assert.Equal(t, "my-test-key", cfg.APIKey)
	assert.Equal(t, "my-test-key", cfg.JWTSecret)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.MaxTasks)
	assert.Equal(t, 10*time.Second, cfg.CommandTimeout)
	assert.False(t, cfg.ShowNotifications)
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)
	t.Setenv("API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8092, cfg.Port)
	assert.Equal(t, "bash", cfg.CommandShell)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 1024*1024, cfg.CommandMaxOutput)
	assert.Equal(t, 100, cfg.MaxTasks)
	assert.True(t, cfg.ShowNotifications)
	assert.True(t, cfg.SeedWelcomeTask)
	assert.Equal(t, 2*time.Second, cfg.ViewCacheTTL)
}

func TestConfigAddr(t *testing.T) {
	cfg := LoadWithDefaults()
	assert.Equal(t, "0.0.0.0:8092", cfg.Addr())
}

func TestDefaultQuickCommands(t *testing.T) {
	commands := DefaultQuickCommands()

	require.Len(t, commands, 9)
	assert.Equal(t, "help", commands[0].Command)
	assert.Equal(t, "history", commands[8].Command)
	for _, c := range commands {
		assert.NotEmpty(t, c.Description, c.Command)
	}
}

func TestGenerateAPIKey(t *testing.T) {
	a, err := GenerateAPIKey()
	require.NoError(t, err)
	b, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestUpdateEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=8092\nAPI_KEY=old\n"), 0600))

	err := UpdateEnvFile(envFile, map[string]string{"API_KEY": "new", "LOG_LEVEL": "debug"})
	require.NoError(t, err)

	data, err := os.ReadFile(envFile)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "PORT=8092\n")
	assert.Contains(t, content, "API_KEY=new\n")
	assert.Contains(t, content, "LOG_LEVEL=debug\n")
	assert.NotContains(t, content, "API_KEY=old")
}

func TestSaveAPIKey(t *testing.T) {
	cfg := LoadWithDefaults()
	cfg.EnvFile = filepath.Join(t.TempDir(), ".env")
	cfg.APIKey = ""
	cfg.JWTSecret = ""
	cfg.SetupMode = true

	require.NoError(t, cfg.SaveAPIKey("fresh"))

	assert.Equal(t, "fresh", cfg.APIKey)
	assert.Equal(t, "fresh", cfg.JWTSecret)
	assert.False(t, cfg.SetupMode)

	data, err := os.ReadFile(cfg.EnvFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "API_KEY=fresh")
}

func TestSaveAPIKey_KeepsExplicitJWTSecret(t *testing.T) {
	cfg := LoadWithDefaults()
	cfg.EnvFile = filepath.Join(t.TempDir(), ".env")
	cfg.APIKey = "old"
	cfg.JWTSecret = "separate-secret"

	require.NoError(t, cfg.SaveAPIKey("fresh"))
	assert.Equal(t, "fresh", cfg.APIKey)
	assert.Equal(t, "separate-secret", cfg.JWTSecret)

	cfg.JWTSecret = "fresh"
	require.NoError(t, cfg.SaveAPIKey("newer"))
	assert.Equal(t, "newer", cfg.JWTSecret, "a secret derived from the key follows it")
}

func TestSettings(t *testing.T) {
	cfg := LoadWithDefaults()

	s := cfg.Settings()
	assert.Equal(t, Settings{MaxTasks: 100, CommandTimeoutSeconds: 30, ShowNotifications: true}, s)
}

func TestApplySettings(t *testing.T) {
	cfg := LoadWithDefaults()
	cfg.EnvFile = filepath.Join(t.TempDir(), ".env")

	err := cfg.ApplySettings(Settings{MaxTasks: 20, CommandTimeoutSeconds: 5, ShowNotifications: false})
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.MaxTasks)
	assert.Equal(t, 5*time.Second, cfg.CommandTimeout)
	assert.False(t, cfg.ShowNotifications)

	data, err := os.ReadFile(cfg.EnvFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "MAX_TASKS=20")
	assert.Contains(t, string(data), "COMMAND_TIMEOUT_SECONDS=5")
	assert.Contains(t, string(data), "SHOW_NOTIFICATIONS=false")
}

func TestApplySettingsRejectsInvalid(t *testing.T) {
	cfg := LoadWithDefaults()

	tests := []struct {
		name     string
		settings Settings
	}{
		{"zero max tasks", Settings{MaxTasks: 0, CommandTimeoutSeconds: 30}},
		{"zero timeout", Settings{MaxTasks: 10, CommandTimeoutSeconds: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cfg.ApplySettings(tt.settings)
			assert.Error(t, err)
			assert.Equal(t, 100, cfg.MaxTasks)
		})
	}
}
