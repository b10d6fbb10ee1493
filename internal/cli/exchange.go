package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pstuifzand/tui-mindmap/internal/exchange"
	"github.com/pstuifzand/tui-mindmap/internal/session"
)

func newExportCommand(root *rootFlags) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the mind map as JSON or markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var write func(s *session.Session, w io.Writer) error
			switch format {
			case "json":
				write = (*session.Session).Export
			case "markdown", "md":
				write = (*session.Session).ExportMarkdown
			default:
				return errors.Errorf("unknown format %q, want json or markdown", format)
			}

			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				if output == "" || output == "-" {
					return write(s, cmd.OutOrStdout())
				}
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(err, "failed to create export file")
				}
				if err := write(s, f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout by default (suggested: "+exchange.DefaultFilename+")")
	return cmd
}

func newImportCommand(root *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the mind map with a JSON export or a text outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outline := exchange.OutlineFormat(format)
			switch format {
			case "auto":
				outline = exchange.DetectFormat(args[0])
			case "md":
				outline = exchange.FormatMarkdown
			case string(exchange.FormatJSON), string(exchange.FormatMarkdown), string(exchange.FormatIndentedText):
			default:
				return errors.Errorf("unknown format %q, want auto, json, markdown or indented", format)
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(err, "failed to open import file")
				}
				defer f.Close()
				r = f
			}

			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				var err error
				if outline == exchange.FormatJSON {
					err = s.Import(r)
				} else {
					err = s.ImportOutline(r, outline)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d nodes\n", s.Snapshot().Document.Count())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "auto", "auto, json, markdown or indented")
	return cmd
}

func newNewCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Back up the current map, clear storage and start from the sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(ctx context.Context, s *session.Session) error {
				return s.NewMap(ctx)
			})
		},
	}
}
