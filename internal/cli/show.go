package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pstuifzand/tui-mindmap/internal/model"
	"github.com/pstuifzand/tui-mindmap/internal/session"
)

type showFlags struct {
	visible      bool
	descriptions bool
}

func newShowCommand(root *rootFlags) *cobra.Command {
	flags := new(showFlags)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the mind map as a tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.view(cmd, func(ctx context.Context, s *session.Session) error {
				snap := s.Snapshot()
				printTree(cmd.OutOrStdout(), snap.Document, snap.SelectedID, *flags)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&flags.visible, "visible", false, "leave out the children of collapsed nodes")
	cmd.Flags().BoolVarP(&flags.descriptions, "descriptions", "d", false, "print descriptions below titles")
	return cmd
}

// printTree writes one node per line: a marker for collapsed branches, the
// title, the id and the color.
func printTree(w io.Writer, doc *model.Document, selectedID string, flags showFlags) {
	visit := func(n *model.Node, depth int) {
		var sb strings.Builder
		sb.WriteString(strings.Repeat("  ", depth))
		switch {
		case n.ID == selectedID:
			sb.WriteString("> ")
		case n.Collapsed() && !n.IsLeaf():
			sb.WriteString("+ ")
		case !n.IsLeaf():
			sb.WriteString("- ")
		default:
			sb.WriteString("  ")
		}
		sb.WriteString(n.Title)
		fmt.Fprintf(&sb, " (%s)", n.ID)
		if n.BaseColor != "" {
			sb.WriteString(" ")
			sb.WriteString(n.BaseColor)
		}
		fmt.Fprintln(w, sb.String())

		if flags.descriptions && n.Description != "" {
			fmt.Fprintf(w, "%s    %s\n", strings.Repeat("  ", depth), n.Description)
		}
	}

	if flags.visible {
		doc.WalkVisible(visit)
		return
	}
	doc.Walk(func(n *model.Node, depth int) bool {
		visit(n, depth)
		return true
	})
}
