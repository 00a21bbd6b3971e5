package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/devhub-agent/internal/server"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	envFile := filepath.Join(t.TempDir(), ".env")
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("API_KEY", "")
	t.Setenv("JWT_SECRET", "")
	return envFile
}

func newTestCmd(t *testing.T, newCmd func() *cobra.Command, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := newCmd()
	require.NoError(t, cmd.Flags().Parse(args))

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	return cmd, out
}

func TestKeygen(t *testing.T) {
	isolateEnv(t)

	cmd, out := newTestCmd(t, newKeygenCmd)
	require.NoError(t, runKeygen(cmd, nil))

	assert.Len(t, strings.TrimSpace(out.String()), 64)
}

func TestKeygen_Save(t *testing.T) {
	envFile := isolateEnv(t)

	cmd, out := newTestCmd(t, newKeygenCmd, "--save")
	require.NoError(t, runKeygen(cmd, nil))

	key := strings.TrimSpace(out.String())
	data, err := os.ReadFile(envFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "API_KEY="+key)
}

func TestToken(t *testing.T) {
	isolateEnv(t)
	t.Setenv("API_KEY", "cli-test-key")

	cmd, out := newTestCmd(t, newTokenCmd, "--role", "admin", "--ttl", "1h")
	require.NoError(t, runToken(cmd, nil))

	token := strings.TrimSpace(out.String())
	claims, err := server.NewAuthService("cli-test-key", "cli-test-key").ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, server.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestToken_Errors(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		args   []string
	}{
		{"setup mode", "", nil},
		{"unknown role", "k", []string{"--role", "root"}},
		{"bad ttl", "k", []string{"--ttl", "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv("API_KEY", tt.apiKey)

			cmd, _ := newTestCmd(t, newTokenCmd, tt.args...)
			assert.Error(t, runToken(cmd, nil))
		})
	}
}

func TestVersion(t *testing.T) {
	root := &cobra.Command{Use: "devhub-agent", Version: "1.2.3"}
	cmd := &cobra.Command{Use: versionCmd.Use, Run: versionCmd.Run}
	root.AddCommand(cmd)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.Run(cmd, nil)

	assert.True(t, strings.HasPrefix(out.String(), "devhub-agent 1.2.3 ("))
}
