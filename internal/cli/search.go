package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pstuifzand/tui-mindmap/internal/session"
)

func newSearchCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search titles and descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return root.view(cmd, func(ctx context.Context, s *session.Session) error {
				hits := s.Search(query)
				if len(hits) == 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), "no matches")
					return nil
				}
				for _, h := range hits {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", h.ID, h.Title)
				}
				return nil
			})
		},
	}
}
