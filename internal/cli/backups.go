package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pstuifzand/tui-mindmap/internal/session"
)

func newBackupsCommand(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				list, err := s.Backups()
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), "no backups")
					return nil
				}
				for _, b := range list {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d nodes\t%s\n",
						b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.FilePath), b.Nodes, b.Title)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the mind map with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				return s.RestoreBackup(args[0])
			})
		},
	})
	return cmd
}
