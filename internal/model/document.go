package model

import (
	"time"

	"github.com/pkg/errors"
)

const (
	// FormatVersion is the only document format this package reads and writes.
	FormatVersion = "1.0"

	// RootID is the id of the root node of every document.
	RootID = "root"
)

// Document is the persisted unit: a root node plus metadata
type Document struct {
	Version   string     `json:"version"`
	UpdatedAt *time.Time `json:"updatedAt"`
	Root      *Node      `json:"root"`
}

// NewDocument wraps root in a document of the current format version.
func NewDocument(root *Node) *Document {
	return &Document{
		Version: FormatVersion,
		Root:    root,
	}
}

// Sample returns a fresh copy of the starter mind map used when nothing has
// been saved yet.
func Sample() *Document {
	root := NewNode(RootID, "Central Idea", "Double-click a node to edit. Click to expand.")
	first := NewNode("node_1", "First Branch", "This is a main topic").
		Append(NewNode("node_1_1", "Sub Topic", "More detailed thinking"))
	second := NewNode("node_2", "Second Branch", "Another main topic")
	root.Append(first, second)
	return NewDocument(root)
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{Version: d.Version, Root: d.Root.Clone()}
	if d.UpdatedAt != nil {
		t := *d.UpdatedAt
		c.UpdatedAt = &t
	}
	return c
}

// Equal compares version, timestamp and tree.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.Version != o.Version {
		return false
	}
	switch {
	case d.UpdatedAt == nil && o.UpdatedAt == nil:
	case d.UpdatedAt == nil || o.UpdatedAt == nil:
		return false
	case !d.UpdatedAt.Equal(*o.UpdatedAt):
		return false
	}
	return d.Root.Equal(o.Root)
}

// WithDocument calls fn with the document itself. It lets a bare document be
// handed to code that otherwise expects a lock-holding owner.
func (d *Document) WithDocument(fn func(*Document) error) error {
	return fn(d)
}

// Walk visits the tree depth-first in pre-order, hidden children included,
// siblings in order. It stops as soon as fn returns false and reports whether
// the walk ran to the end.
func (d *Document) Walk(fn func(n *Node, depth int) bool) bool {
	if d.Root == nil {
		return true
	}
	return walk(d.Root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for _, child := range n.kids.nodes {
		if !walk(child, depth+1, fn) {
			return false
		}
	}
	return true
}

// WalkVisible is like Walk but does not descend into collapsed nodes.
func (d *Document) WalkVisible(fn func(n *Node, depth int)) {
	var visit func(*Node, int)
	visit = func(n *Node, depth int) {
		fn(n, depth)
		for _, child := range n.Children() {
			visit(child, depth+1)
		}
	}
	if d.Root != nil {
		visit(d.Root, 0)
	}
}

// Find returns the first node with the given id, or nil.
func (d *Document) Find(id string) *Node {
	var found *Node
	d.Walk(func(n *Node, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindParent returns the parent of the node with the given id and the node's
// index among its siblings. The root and unknown ids give (nil, -1).
func (d *Document) FindParent(id string) (*Node, int) {
	var parent *Node
	index := -1
	d.Walk(func(n *Node, _ int) bool {
		for i, child := range n.kids.nodes {
			if child.ID == id {
				parent, index = n, i
				return false
			}
		}
		return true
	})
	return parent, index
}

// Count returns the number of nodes in the tree.
func (d *Document) Count() int {
	count := 0
	d.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// IDs returns every id in pre-order.
func (d *Document) IDs() []string {
	var ids []string
	d.Walk(func(n *Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// Contains reports whether a node with the given id exists.
func (d *Document) Contains(id string) bool {
	return d.Find(id) != nil
}

// Validate checks the structural invariants: a root with id "root", ids that
// are non-empty and unique, and every node owned by exactly one parent.
func (d *Document) Validate() error {
	if d.Root == nil {
		return errors.Wrap(ErrInvariant, "document has no root")
	}
	if d.Root.ID != RootID {
		return errors.Wrapf(ErrInvariant, "root id is %q, want %q", d.Root.ID, RootID)
	}

	seenIDs := make(map[string]bool)
	seenNodes := make(map[*Node]bool)
	var err error
	var check func(n *Node) bool
	check = func(n *Node) bool {
		if n == nil {
			err = errors.Wrap(ErrInvariant, "nil node in child list")
			return false
		}
		if seenNodes[n] {
			err = errors.Wrapf(ErrInvariant, "node %q is reachable twice", n.ID)
			return false
		}
		seenNodes[n] = true
		if n.ID == "" {
			err = errors.Wrap(ErrInvariant, "node without id")
			return false
		}
		if seenIDs[n.ID] {
			err = errors.Wrapf(ErrInvariant, "duplicate id %q", n.ID)
			return false
		}
		seenIDs[n.ID] = true
		for _, child := range n.kids.nodes {
			if !check(child) {
				return false
			}
		}
		return true
	}
	check(d.Root)
	return err
}
