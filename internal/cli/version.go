package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// Set with -ldflags "-X github.com/pstuifzand/tui-mindmap/internal/cli.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mindmap %s (%s) format %s %s\n",
				Version, GitCommit, model.FormatVersion, runtime.Version())
		},
	}
}
