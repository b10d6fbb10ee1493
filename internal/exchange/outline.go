package exchange

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// OutlineFormat names a plain text layout that can be turned into a map
type OutlineFormat string

const (
	FormatJSON         OutlineFormat = "json"
	FormatMarkdown     OutlineFormat = "markdown"
	FormatIndentedText OutlineFormat = "indented"
)

// untitledRoot is used when an outline has several top-level entries.
const untitledRoot = "Mind map"

// DetectFormat picks a format from the file extension. Unknown extensions
// are read as JSON.
func DetectFormat(filename string) OutlineFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".txt":
		return FormatIndentedText
	default:
		return FormatJSON
	}
}

// outlineEntry is one parsed line: its nesting level and the node it became
type outlineEntry struct {
	level int
	node  *model.Node
}

// ImportOutline builds a document from a markdown list or indented text. A
// single top-level entry (or a leading "# " heading) becomes the root;
// otherwise the entries hang below an untitled root. "title: description"
// lines are split the way ExportMarkdown joins them.
func ImportOutline(r io.Reader, format OutlineFormat, gen model.IDGenerator) (*model.Document, error) {
	var parse func(line string) (level int, text string, ok bool)
	switch format {
	case FormatMarkdown:
		parse = parseMarkdownLine
	case FormatIndentedText:
		parse = parseIndentedLine
	default:
		return nil, errors.Errorf("unsupported outline format: %s", format)
	}

	var heading string
	var top []*model.Node
	var stack []outlineEntry
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		// the first level-one heading names the root
		if format == FormatMarkdown && heading == "" && len(top) == 0 && strings.HasPrefix(line, "# ") {
			heading = strings.TrimSpace(line[2:])
			continue
		}

		level, text, ok := parse(line)
		if !ok {
			continue
		}
		title, description := splitTitle(text)
		node, err := newOutlineNode(gen, seen, title, description)
		if err != nil {
			return nil, err
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			top = append(top, node)
		} else {
			stack[len(stack)-1].node.Append(node)
		}
		stack = append(stack, outlineEntry{level: level, node: node})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read outline")
	}

	var root *model.Node
	switch {
	case heading != "":
		root = model.NewNode(model.RootID, heading, "").Append(top...)
	case len(top) == 1:
		root = model.NewNode(model.RootID, top[0].Title, top[0].Description).Append(top[0].Subtree()...)
	case len(top) > 1:
		root = model.NewNode(model.RootID, untitledRoot, "").Append(top...)
	default:
		return nil, model.Malformed("outline has no entries", nil)
	}

	doc := model.NewDocument(root)
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func newOutlineNode(gen model.IDGenerator, seen map[string]bool, title, description string) (*model.Node, error) {
	for i := 0; i < 8; i++ {
		id := gen.NewID()
		if id == "" || id == model.RootID || seen[id] {
			continue
		}
		seen[id] = true
		return model.NewNode(id, title, description), nil
	}
	return nil, errors.Wrap(model.ErrInvariant, "could not generate a unique id")
}

// splitTitle splits "title: description" at the first ": ".
func splitTitle(text string) (string, string) {
	if title, description, ok := strings.Cut(text, ": "); ok {
		return strings.TrimSpace(title), strings.TrimSpace(description)
	}
	return text, ""
}

// parseMarkdownLine reads list items ("-", "*", "+"), headings and plain
// text. Headings nest by their level; list items by indentation, two spaces
// per level, below any heading. Plain text belongs to the previous entry.
func parseMarkdownLine(line string) (int, string, bool) {
	if strings.HasPrefix(line, "#") {
		hashes := len(line) - len(strings.TrimLeft(line, "#"))
		text := strings.TrimSpace(line[hashes:])
		return hashes - 1, text, text != ""
	}

	indent := indentWidth(line)
	trimmed := strings.TrimSpace(line)
	if len(trimmed) > 2 && strings.ContainsRune("-*+", rune(trimmed[0])) && trimmed[1] == ' ' {
		return headingDepth + indent/2, strings.TrimSpace(trimmed[2:]), true
	}
	return headingDepth + indent/2 + 1, trimmed, true
}

// headingDepth keeps list items below the six markdown heading levels.
const headingDepth = 6

// parseIndentedLine reads one entry per line, nested by indentation.
func parseIndentedLine(line string) (int, string, bool) {
	text := strings.TrimSpace(line)
	return indentWidth(line) / 2, text, text != ""
}

// indentWidth counts leading whitespace; a tab counts as two spaces
func indentWidth(line string) int {
	indent := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\t':
			indent += 2
		case ' ':
			indent++
		default:
			return indent
		}
	}
	return indent
}
