package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pstuifzand/tui-mindmap/internal/model"
	"github.com/pstuifzand/tui-mindmap/internal/session"
)

func newAddCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <parent-id> <title> [description]",
		Short: "Add a child node and print its id",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := ""
			if len(args) == 3 {
				description = args[2]
			}
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				n, err := s.AddChild(args[0], args[1], description)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n.ID)
				return nil
			})
		},
	}
}

func newRmCommand(root *rootFlags) *cobra.Command {
	var single bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a node and its subtree",
		Long:  "Delete a node and its subtree. With --single only the node goes and its children take its place.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				if single {
					_, err := s.DeleteSingle(args[0])
					return err
				}
				_, err := s.DeleteBranch(args[0])
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&single, "single", false, "keep the children")
	return cmd
}

func newRenameCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Set the title of a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				_, err := s.Rename(args[0], args[1])
				return err
			})
		},
	}
}

func newDescribeCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <id> <description>",
		Short: "Set the description of a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				_, err := s.Describe(args[0], args[1])
				return err
			})
		},
	}
}

func newColorCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "color <id> [color]",
		Short: "Set the base color of a node, or clear it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			color := ""
			if len(args) == 2 {
				color = args[1]
			}
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				_, err := s.SetColor(args[0], color)
				return err
			})
		},
	}
}

func newMoveCommand(root *rootFlags) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "move <id> <new-parent-id>",
		Short: "Move a node under another parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				_, err := s.Move(args[0], args[1], index)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "position among the new siblings; negative appends")
	return cmd
}

func newToggleCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Collapse or expand the children of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				_, err := s.Toggle(args[0])
				return err
			})
		},
	}
}

func newCollapseCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "collapse [id]",
		Short: "Collapse a subtree, the whole map by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				_, err := s.CollapseAll(targetID(args))
				return err
			})
		},
	}
}

func newExpandCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "expand [id]",
		Short: "Expand a subtree, the whole map by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				_, err := s.ExpandAll(targetID(args))
				return err
			})
		},
	}
}

func targetID(args []string) string {
	if len(args) == 0 {
		return model.RootID
	}
	return args[0]
}
