package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ngenohkevin/devhub-agent/config"
)

var keygenCmd = newKeygenCmd()

func newKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an API key",
		Long: `Generate a random API key.

With --save the key is written to the configured .env file as API_KEY.`,
		Args: cobra.NoArgs,
		RunE: runKeygen,
	}
	cmd.Flags().Bool("save", false, "Write the key to the .env file")
	return cmd
}

func runKeygen(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")

	key, err := config.GenerateAPIKey()
	if err != nil {
		return err
	}

	if save {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.SaveAPIKey(key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved API_KEY to %s\n", cfg.EnvFile)
	}

	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}
