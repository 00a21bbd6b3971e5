package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ngenohkevin/devhub-agent/config"
	"github.com/ngenohkevin/devhub-agent/internal/server"
)

var tokenCmd = newTokenCmd()

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token",
		Long: `Issue a JWT signed with the configured JWT_SECRET (or API_KEY).

Viewer tokens can read tasks, the terminal and notifications but cannot
change anything.`,
		Args: cobra.NoArgs,
		RunE: runToken,
	}
	cmd.Flags().String("role", server.RoleViewer, "Token role (admin or viewer)")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if ttl <= 0 {
		return errors.New("--ttl must be positive")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.SetupMode {
		return errors.New("no API key configured; run keygen --save first")
	}

	token, err := server.NewAuthService(cfg.APIKey, cfg.JWTSecret).GenerateToken(role, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
