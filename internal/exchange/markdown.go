package exchange

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// ExportMarkdown writes the mind map as a markdown heading for the root
// followed by a nested bullet list. Collapsed branches are included.
func ExportMarkdown(doc *model.Document, w io.Writer) error {
	var sb strings.Builder

	if doc.Root != nil {
		title := strings.TrimSpace(doc.Root.Title)
		if title == "" {
			title = untitledRoot
		}
		sb.WriteString("# ")
		sb.WriteString(title)
		sb.WriteString("\n\n")

		for _, child := range doc.Root.Subtree() {
			writeNodeAsMarkdown(&sb, child, 0)
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

// ExportMarkdownFile writes the markdown export to a file.
func ExportMarkdownFile(doc *model.Document, filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create markdown file: %w", err)
	}
	if err := ExportMarkdown(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeNodeAsMarkdown writes a node and its children as bullets, two spaces
// of indentation per level.
func writeNodeAsMarkdown(sb *strings.Builder, n *model.Node, depth int) {
	// Untitled nodes are skipped but their children keep the same depth
	if strings.TrimSpace(n.Title) == "" {
		for _, child := range n.Subtree() {
			writeNodeAsMarkdown(sb, child, depth)
		}
		return
	}

	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	sb.WriteString(n.Title)
	if desc := strings.TrimSpace(n.Description); desc != "" {
		sb.WriteString(": ")
		sb.WriteString(strings.ReplaceAll(desc, "\n", " "))
	}
	sb.WriteString("\n")

	for _, child := range n.Subtree() {
		writeNodeAsMarkdown(sb, child, depth+1)
	}
}
