// Package model contains the mind map tree and the operations that edit it
package model

// ChildState holds a node's children together with whether they are shown.
// A node owns exactly one list; collapsing only flips the tag, so the
// "children and collapsedChildren both populated" state cannot be built.
type ChildState struct {
	nodes     []*Node
	collapsed bool
}

// Expanded returns a visible child list.
func Expanded(nodes ...*Node) ChildState {
	return ChildState{nodes: nodes}
}

// Collapsed returns a hidden child list.
func Collapsed(nodes ...*Node) ChildState {
	return ChildState{nodes: nodes, collapsed: true}
}

// Node is a single labeled entry in the mind map
type Node struct {
	ID          string
	Title       string
	Description string
	BaseColor   string // category tag for renderers, carried as data

	kids ChildState
}

// NewNode creates a leaf with the given id
func NewNode(id, title, description string) *Node {
	return &Node{
		ID:          id,
		Title:       title,
		Description: description,
	}
}

// GenerateNode creates a leaf with a fresh id taken from gen
func GenerateNode(gen IDGenerator, title, description, baseColor string) *Node {
	n := NewNode(gen.NewID(), title, description)
	n.BaseColor = baseColor
	return n
}

// Append adds children at the end of the node's child list, whether it is
// collapsed or not, and returns the node.
func (n *Node) Append(children ...*Node) *Node {
	n.kids.nodes = append(n.kids.nodes, children...)
	return n
}

// SetChildState replaces the node's children.
func (n *Node) SetChildState(s ChildState) {
	n.kids = s
}

// ChildState returns the node's children and their visibility.
func (n *Node) ChildState() ChildState {
	return n.kids
}

// Children returns the visible children, nil while the node is collapsed.
func (n *Node) Children() []*Node {
	if n.kids.collapsed {
		return nil
	}
	return n.kids.nodes
}

// Subtree returns the children regardless of visibility.
func (n *Node) Subtree() []*Node {
	return n.kids.nodes
}

// Collapsed reports whether the children are hidden.
func (n *Node) Collapsed() bool {
	return n.kids.collapsed
}

// IsLeaf reports whether the node has no children, shown or hidden.
func (n *Node) IsLeaf() bool {
	return len(n.kids.nodes) == 0
}

// Toggle flips between showing and hiding the children.
func (n *Node) Toggle() {
	n.kids.collapsed = !n.kids.collapsed
}

// CollapseAll hides the subtree. Nodes that are already collapsed are left
// alone, so collapse state nested inside them survives.
func (n *Node) CollapseAll() {
	if n.kids.collapsed {
		return
	}
	for _, child := range n.kids.nodes {
		child.CollapseAll()
	}
	n.kids.collapsed = true
}

// ExpandAll shows the node and every descendant.
func (n *Node) ExpandAll() {
	n.kids.collapsed = false
	for _, child := range n.kids.nodes {
		child.ExpandAll()
	}
}

// Clone returns a deep copy of the node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.kids.nodes = nil
	if n.kids.nodes != nil {
		c.kids.nodes = make([]*Node, len(n.kids.nodes))
		for i, child := range n.kids.nodes {
			c.kids.nodes[i] = child.Clone()
		}
	}
	return &c
}

// Equal reports whether two subtrees have the same fields, order and
// collapse state.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.ID != o.ID || n.Title != o.Title || n.Description != o.Description || n.BaseColor != o.BaseColor {
		return false
	}
	if n.kids.collapsed != o.kids.collapsed || len(n.kids.nodes) != len(o.kids.nodes) {
		return false
	}
	for i := range n.kids.nodes {
		if !n.kids.nodes[i].Equal(o.kids.nodes[i]) {
			return false
		}
	}
	return true
}
