package exchange

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// titles lists every node title, indented one space per level.
func titles(doc *model.Document) []string {
	var out []string
	doc.Walk(func(n *model.Node, depth int) bool {
		out = append(out, strings.Repeat(" ", depth)+n.Title)
		return true
	})
	return out
}

func TestImportOutlineMarkdownRoundTrip(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, ExportMarkdown(model.Sample(), &sb))

	doc, err := ImportOutline(strings.NewReader(sb.String()), FormatMarkdown, model.NewSequence("n", 1))
	require.NoError(t, err)

	assert.Equal(t, []string{"Central Idea", " First Branch", "  Sub Topic", " Second Branch"}, titles(doc))
	assert.Equal(t, model.RootID, doc.Root.ID)
	assert.Equal(t, "This is a main topic", doc.Find("n1").Description)
	assert.Equal(t, "More detailed thinking", doc.Find("n2").Description)

	var again strings.Builder
	require.NoError(t, ExportMarkdown(doc, &again))
	assert.Equal(t, sb.String(), again.String())
}

func TestImportOutlineMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single top item becomes the root",
			input:    "- Plan\n  - Design\n  - Build\n    * Test\n",
			expected: []string{"Plan", " Design", " Build", "  Test"},
		},
		{
			name:     "several top items get an untitled root",
			input:    "- One\n- Two\n  + Two A\n",
			expected: []string{"Mind map", " One", " Two", "  Two A"},
		},
		{
			name:     "sub headings nest lists",
			input:    "# Trip\n\n## Packing\n- Tent\n- Stove\n## Route\n- North\n",
			expected: []string{"Trip", " Packing", "  Tent", "  Stove", " Route", "  North"},
		},
		{
			name:     "plain text goes below the previous item",
			input:    "# Notes\n- Idea\n  remember this\n",
			expected: []string{"Notes", " Idea", "  remember this"},
		},
		{
			name:     "tabs count as two spaces",
			input:    "# T\n- A\n\t- B\n",
			expected: []string{"T", " A", "  B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ImportOutline(strings.NewReader(tt.input), FormatMarkdown, model.NewSequence(model.IDPrefix, 1))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, titles(doc))
		})
	}
}

func TestImportOutlineIndented(t *testing.T) {
	input := "Project\n  Backend\n    API: REST and events\n  Frontend\n\n"
	doc, err := ImportOutline(strings.NewReader(input), FormatIndentedText, model.NewSequence(model.IDPrefix, 1))
	require.NoError(t, err)

	assert.Equal(t, []string{"Project", " Backend", "  API", " Frontend"}, titles(doc))
	assert.Equal(t, "REST and events", doc.Find("node_3").Description)
	assert.Equal(t, 4, doc.Count())
	assert.NoError(t, doc.Validate())
}

func TestImportOutlineErrors(t *testing.T) {
	_, err := ImportOutline(strings.NewReader("\n  \n"), FormatIndentedText, model.RandomIDs{})
	assert.ErrorIs(t, err, model.ErrMalformedInput)

	_, err = ImportOutline(strings.NewReader("- a"), FormatJSON, model.RandomIDs{})
	assert.Error(t, err)

	// a generator that repeats itself cannot fill the tree
	_, err = ImportOutline(strings.NewReader("a\nb\n"), FormatIndentedText, fixedIDs("node_x"))
	assert.ErrorIs(t, err, model.ErrInvariant)
}

type fixedIDs string

func (f fixedIDs) NewID() string { return string(f) }

func TestDetectFormat(t *testing.T) {
	tests := map[string]OutlineFormat{
		"map.md":       FormatMarkdown,
		"MAP.Markdown": FormatMarkdown,
		"notes.txt":    FormatIndentedText,
		"mindmap.json": FormatJSON,
		"-":            FormatJSON,
	}
	for name, want := range tests {
		assert.Equal(t, want, DetectFormat(name), name)
	}
}
