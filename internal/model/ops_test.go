package model

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDocument builds:
//
//	root
//	├── a
//	│   ├── a1
//	│   └── a2
//	│       └── a2x
//	└── b
func newTestDocument() *Document {
	root := NewNode(RootID, "Root", "")
	a := NewNode("a", "A", "first").Append(
		NewNode("a1", "A1", ""),
		NewNode("a2", "A2", "").Append(NewNode("a2x", "A2X", "")),
	)
	b := NewNode("b", "B", "")
	root.Append(a, b)
	return NewDocument(root)
}

func TestCentralIdeaScenario(t *testing.T) {
	doc := NewDocument(NewNode(RootID, "Central Idea", ""))
	initial := doc.Clone()
	gen := NewSequence(IDPrefix, 1)

	child, err := doc.AddChild(gen, RootID, "Branch", "")
	require.NoError(t, err)
	require.Len(t, doc.Root.Children(), 1)
	assert.Equal(t, "Branch", child.Title)
	assert.NotEqual(t, RootID, child.ID)

	_, err = doc.DeleteBranch(RootID)
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Len(t, doc.Root.Children(), 1)

	_, err = doc.DeleteBranch(child.ID)
	require.NoError(t, err)
	assert.Empty(t, doc.Root.Children())
	assert.True(t, doc.Equal(initial), "tree differs from initial state:\n%s", spew.Sdump(doc))
}

func TestAddChild(t *testing.T) {
	doc := newTestDocument()
	before := doc.IDs()

	child, err := doc.AddChild(NewSequence(IDPrefix, 1), "a2", "New", "desc")
	require.NoError(t, err)
	assert.Equal(t, "node_1", child.ID)
	assert.Equal(t, "desc", child.Description)
	assert.True(t, child.IsLeaf())

	a2 := doc.Find("a2")
	require.Len(t, a2.Children(), 2)
	assert.Same(t, child, a2.Children()[1])
	assert.Equal(t, len(before)+1, doc.Count())
}

func TestAddChildUnknownParent(t *testing.T) {
	doc := newTestDocument()
	_, err := doc.AddChild(RandomIDs{}, "missing", "x", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 6, doc.Count())
}

func TestAddChildToCollapsedParent(t *testing.T) {
	doc := newTestDocument()
	_, err := doc.ToggleCollapse("a")
	require.NoError(t, err)

	_, err = doc.AddChild(NewSequence(IDPrefix, 1), "a", "hidden", "")
	require.NoError(t, err)

	a := doc.Find("a")
	assert.True(t, a.Collapsed())
	assert.Nil(t, a.Children())
	assert.Len(t, a.Subtree(), 3)
}

// constIDs always returns the same id.
type constIDs string

func (c constIDs) NewID() string { return string(c) }

func TestAddChildDuplicateID(t *testing.T) {
	doc := newTestDocument()
	_, err := doc.AddChild(constIDs("a1"), RootID, "dup", "")
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Equal(t, 6, doc.Count())
}

func TestAddChildSkipsTakenIDs(t *testing.T) {
	doc := Sample()
	// node_1 and node_2 are taken by the sample
	child, err := doc.AddChild(NewSequence(IDPrefix, 1), RootID, "x", "")
	require.NoError(t, err)
	assert.Equal(t, "node_3", child.ID)
}

func TestDeleteBranch(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		wantErr   error
		remaining []string
	}{
		{"leaf", "b", nil, []string{"root", "a", "a1", "a2", "a2x"}},
		{"subtree", "a", nil, []string{"root", "b"}},
		{"nested", "a2", nil, []string{"root", "a", "a1", "b"}},
		{"root", RootID, ErrInvariant, []string{"root", "a", "a1", "a2", "a2x", "b"}},
		{"missing", "zzz", ErrNotFound, []string{"root", "a", "a1", "a2", "a2x", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestDocument()
			_, err := doc.DeleteBranch(tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.remaining, doc.IDs())
		})
	}
}

func TestDeleteSingle(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		wantErr   error
		remaining []string
		rootKids  []string
	}{
		{"splices children in place", "a", nil, []string{"root", "a1", "a2", "a2x", "b"}, []string{"a1", "a2", "b"}},
		{"leaf", "a1", nil, []string{"root", "a", "a2", "a2x", "b"}, []string{"a", "b"}},
		{"nested", "a2", nil, []string{"root", "a", "a1", "a2x", "b"}, []string{"a", "b"}},
		{"root", RootID, ErrInvariant, []string{"root", "a", "a1", "a2", "a2x", "b"}, []string{"a", "b"}},
		{"missing", "zzz", ErrNotFound, []string{"root", "a", "a1", "a2", "a2x", "b"}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestDocument()
			_, err := doc.DeleteSingle(tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.remaining, doc.IDs())
			assert.Equal(t, tt.rootKids, childIDs(doc.Root))
		})
	}
}

func TestDeleteSingleKeepsNestedCollapseState(t *testing.T) {
	doc := newTestDocument()
	_, err := doc.ToggleCollapse("a2")
	require.NoError(t, err)

	_, err = doc.DeleteSingle("a")
	require.NoError(t, err)

	a2 := doc.Find("a2")
	require.NotNil(t, a2)
	assert.True(t, a2.Collapsed())
	assert.Equal(t, []string{"a2x"}, childIDs(a2))
}

func TestToggleCollapse(t *testing.T) {
	doc := newTestDocument()

	n, err := doc.ToggleCollapse("a")
	require.NoError(t, err)
	assert.True(t, n.Collapsed())
	assert.Nil(t, n.Children())
	assert.Len(t, n.Subtree(), 2)

	n, err = doc.ToggleCollapse("a")
	require.NoError(t, err)
	assert.False(t, n.Collapsed())
	assert.Len(t, n.Children(), 2)

	_, err = doc.ToggleCollapse("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollapseAllPreservesNestedState(t *testing.T) {
	doc := newTestDocument()
	a2 := doc.Find("a2")
	a2.Toggle()

	_, err := doc.CollapseAll(RootID)
	require.NoError(t, err)
	assert.True(t, doc.Root.Collapsed())
	assert.True(t, doc.Find("a").Collapsed())
	assert.True(t, a2.Collapsed())
	// a2 was already collapsed, so its children were not touched
	assert.False(t, doc.Find("a2x").Collapsed())

	_, err = doc.ExpandAll(RootID)
	require.NoError(t, err)
	doc.Walk(func(n *Node, _ int) bool {
		assert.False(t, n.Collapsed(), "node %s still collapsed", n.ID)
		return true
	})
}

func TestEditField(t *testing.T) {
	doc := newTestDocument()

	_, err := doc.EditField("a1", FieldTitle, "renamed")
	require.NoError(t, err)
	_, err = doc.EditField("a1", FieldDescription, "")
	require.NoError(t, err)
	assert.Equal(t, "renamed", doc.Find("a1").Title)

	_, err = doc.Rename("a1", "")
	require.NoError(t, err)
	assert.Equal(t, "", doc.Find("a1").Title)

	_, err = doc.Describe("b", "some words")
	require.NoError(t, err)
	assert.Equal(t, "some words", doc.Find("b").Description)

	_, err = doc.EditField("a1", Field("color"), "x")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = doc.EditField("missing", FieldTitle, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetColor(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"#FF0000", "#ff0000", false},
		{"#0f0", "#00ff00", false},
		{"00ff00", "#00ff00", false},
		{"rgb(0, 0, 255)", "#0000ff", false},
		{"", "", false},
		{"rgb(300, 0, 0)", "", true},
		{"not a color", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			doc := newTestDocument()
			doc.Find("a").BaseColor = "#123456"
			n, err := doc.SetColor("a", tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedInput)
				assert.Equal(t, "#123456", doc.Find("a").BaseColor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.BaseColor)
		})
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		parent   string
		index    int
		wantErr  error
		rootKids []string
		aKids    []string
	}{
		{"to other parent", "b", "a", 0, nil, []string{"a"}, []string{"b", "a1", "a2"}},
		{"append with negative index", "b", "a", -1, nil, []string{"a"}, []string{"a1", "a2", "b"}},
		{"index clamped", "a2x", RootID, 99, nil, []string{"a", "b", "a2x"}, []string{"a1", "a2"}},
		{"reorder siblings", "a2", "a", 0, nil, []string{"a", "b"}, []string{"a2", "a1"}},
		{"under own descendant", "a", "a2x", 0, ErrInvariant, []string{"a", "b"}, []string{"a1", "a2"}},
		{"under itself", "a", "a", 0, ErrInvariant, []string{"a", "b"}, []string{"a1", "a2"}},
		{"root", RootID, "a", 0, ErrInvariant, []string{"a", "b"}, []string{"a1", "a2"}},
		{"missing node", "zzz", "a", 0, ErrNotFound, []string{"a", "b"}, []string{"a1", "a2"}},
		{"missing parent", "b", "zzz", 0, ErrNotFound, []string{"a", "b"}, []string{"a1", "a2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestDocument()
			_, err := doc.Move(tt.id, tt.parent, tt.index)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.rootKids, childIDs(doc.Root))
			assert.Equal(t, tt.aKids, childIDs(doc.Find("a")))
			assert.NoError(t, doc.Validate())
		})
	}
}

func TestValidate(t *testing.T) {
	shared := NewNode("shared", "", "")

	tests := []struct {
		name    string
		doc     *Document
		wantErr bool
	}{
		{"sample", Sample(), false},
		{"no root", &Document{Version: FormatVersion}, true},
		{"wrong root id", NewDocument(NewNode("top", "", "")), true},
		{"duplicate id", NewDocument(NewNode(RootID, "", "").Append(NewNode("x", "", ""), NewNode("x", "", ""))), true},
		{"empty id", NewDocument(NewNode(RootID, "", "").Append(NewNode("", "", ""))), true},
		{"shared node", NewDocument(NewNode(RootID, "", "").Append(shared, NewNode("y", "", "").Append(shared))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvariant)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	root := NewNode(RootID, "", "")
	child := NewNode("c", "", "")
	root.Append(child)
	child.Append(root)

	assert.ErrorIs(t, NewDocument(root).Validate(), ErrInvariant)
}

func TestSampleIsFresh(t *testing.T) {
	first := Sample()
	first.Root.Title = "changed"
	assert.Equal(t, "Central Idea", Sample().Root.Title)
	assert.Equal(t, []string{"root", "node_1", "node_1_1", "node_2"}, Sample().IDs())
}

func TestCloneIsDeep(t *testing.T) {
	doc := newTestDocument()
	c := doc.Clone()
	require.True(t, doc.Equal(c))

	c.Find("a1").Title = "changed"
	_, err := c.DeleteBranch("b")
	require.NoError(t, err)

	assert.Equal(t, "A1", doc.Find("a1").Title)
	assert.True(t, doc.Contains("b"))
}

func TestSearch(t *testing.T) {
	root := NewNode(RootID, "Project plan", "")
	root.Append(
		NewNode("n1", "Budget", "money for the plan"),
		NewNode("n2", "Planning poker", "").Append(NewNode("n3", "Plan B", "")),
		NewNode("n4", "Marketing", ""),
	)
	doc := NewDocument(root)
	doc.Find("n2").Toggle()

	var ids []string
	for _, n := range doc.Search("plan") {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"n3", "root", "n2", "n1"}, ids)
	assert.Empty(t, doc.Search("   "))
	assert.Empty(t, doc.Search("xyz"))
}

func TestSequence(t *testing.T) {
	seq := NewSequence("n", 7)
	assert.Equal(t, "n7", seq.NewID())
	assert.Equal(t, "n8", seq.NewID())
}

func TestRandomIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := RandomIDs{}.NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assert.Contains(t, id, IDPrefix)
	}
}

func childIDs(n *Node) []string {
	ids := []string{}
	for _, c := range n.Subtree() {
		ids = append(ids, c.ID)
	}
	return ids
}
