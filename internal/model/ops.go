package model

import (
	"slices"

	"github.com/pkg/errors"
)

// maxIDAttempts bounds how often AddChild asks the generator again after
// getting an id that is already in the tree.
const maxIDAttempts = 8

// Field names a user-editable text field of a node
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

// AddChild appends a new leaf under the node with id parentID and returns it.
func (d *Document) AddChild(gen IDGenerator, parentID, title, description string) (*Node, error) {
	parent := d.Find(parentID)
	if parent == nil {
		return nil, errors.Wrapf(ErrNotFound, "parent %q", parentID)
	}

	for i := 0; i < maxIDAttempts; i++ {
		child := GenerateNode(gen, title, description, "")
		if child.ID == "" || d.Contains(child.ID) {
			continue
		}
		parent.Append(child)
		return child, nil
	}
	return nil, errors.Wrapf(ErrInvariant, "could not generate a unique id after %d attempts", maxIDAttempts)
}

// DeleteBranch removes the node with the given id together with its subtree
// and returns the removed node.
func (d *Document) DeleteBranch(id string) (*Node, error) {
	parent, index, err := d.locateForRemoval(id)
	if err != nil {
		return nil, err
	}
	target := parent.kids.nodes[index]
	parent.kids.nodes = slices.Delete(slices.Clone(parent.kids.nodes), index, index+1)
	return target, nil
}

// DeleteSingle removes only the node with the given id. Its children take its
// place in the parent's child list, in their original order.
func (d *Document) DeleteSingle(id string) (*Node, error) {
	parent, index, err := d.locateForRemoval(id)
	if err != nil {
		return nil, err
	}
	siblings := parent.kids.nodes
	target := siblings[index]

	spliced := make([]*Node, 0, len(siblings)-1+len(target.kids.nodes))
	spliced = append(spliced, siblings[:index]...)
	spliced = append(spliced, target.kids.nodes...)
	spliced = append(spliced, siblings[index+1:]...)
	parent.kids.nodes = spliced

	target.kids.nodes = nil
	return target, nil
}

func (d *Document) locateForRemoval(id string) (*Node, int, error) {
	if d.Root != nil && id == d.Root.ID {
		return nil, -1, errors.Wrap(ErrInvariant, "cannot delete the root node")
	}
	parent, index := d.FindParent(id)
	if parent == nil {
		return nil, -1, errors.Wrapf(ErrNotFound, "node %q", id)
	}
	return parent, index, nil
}

// ToggleCollapse shows or hides the children of a node.
func (d *Document) ToggleCollapse(id string) (*Node, error) {
	return d.apply(id, (*Node).Toggle)
}

// CollapseAll hides the subtree below a node.
func (d *Document) CollapseAll(id string) (*Node, error) {
	return d.apply(id, (*Node).CollapseAll)
}

// ExpandAll shows the subtree below a node.
func (d *Document) ExpandAll(id string) (*Node, error) {
	return d.apply(id, (*Node).ExpandAll)
}

// EditField sets the title or the description of a node. Any string is
// accepted, including the empty one.
func (d *Document) EditField(id string, field Field, value string) (*Node, error) {
	switch field {
	case FieldTitle:
		return d.apply(id, func(n *Node) { n.Title = value })
	case FieldDescription:
		return d.apply(id, func(n *Node) { n.Description = value })
	default:
		return nil, errors.Wrapf(ErrUnknownField, "%q", field)
	}
}

// Rename sets the title of a node.
func (d *Document) Rename(id, title string) (*Node, error) {
	return d.EditField(id, FieldTitle, title)
}

// Describe sets the description of a node.
func (d *Document) Describe(id, description string) (*Node, error) {
	return d.EditField(id, FieldDescription, description)
}

// SetColor stores the normalized form of color as the node's base color. An
// empty color clears it.
func (d *Document) SetColor(id, color string) (*Node, error) {
	normalized, err := NormalizeColor(color)
	if err != nil {
		return nil, err
	}
	return d.apply(id, func(n *Node) { n.BaseColor = normalized })
}

func (d *Document) apply(id string, fn func(*Node)) (*Node, error) {
	n := d.Find(id)
	if n == nil {
		return nil, errors.Wrapf(ErrNotFound, "node %q", id)
	}
	fn(n)
	return n, nil
}

// Move detaches the node with the given id and inserts it as a child of
// newParentID at position index. A negative or too large index appends. When
// the node stays under the same parent, index counts positions after the node
// was taken out.
func (d *Document) Move(id, newParentID string, index int) (*Node, error) {
	if d.Root != nil && id == d.Root.ID {
		return nil, errors.Wrap(ErrInvariant, "cannot move the root node")
	}
	oldParent, oldIndex := d.FindParent(id)
	if oldParent == nil {
		return nil, errors.Wrapf(ErrNotFound, "node %q", id)
	}
	target := oldParent.kids.nodes[oldIndex]

	sub := NewDocument(target)
	if sub.Contains(newParentID) {
		return nil, errors.Wrapf(ErrInvariant, "cannot move %q below itself", id)
	}
	newParent := d.Find(newParentID)
	if newParent == nil {
		return nil, errors.Wrapf(ErrNotFound, "parent %q", newParentID)
	}

	oldParent.kids.nodes = slices.Delete(slices.Clone(oldParent.kids.nodes), oldIndex, oldIndex+1)

	siblings := newParent.kids.nodes
	if index < 0 || index > len(siblings) {
		index = len(siblings)
	}
	newParent.kids.nodes = slices.Insert(slices.Clone(siblings), index, target)
	return target, nil
}
