package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "devhub-agent %s (%s %s/%s)\n",
			cmd.Root().Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
