package model

import (
	"github.com/bytedance/sonic"
)

// nodeWire is the persisted shape of a node. Exactly one of Children and
// CollapsedChildren is non-null.
type nodeWire struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Name              string  `json:"name,omitempty"`
	Description       string  `json:"description"`
	Children          []*Node `json:"children"`
	CollapsedChildren []*Node `json:"collapsedChildren"`
	BaseColor         string  `json:"baseColor,omitempty"`
}

// MarshalJSON writes the node with its children under "children" or
// "collapsedChildren" depending on the collapse state.
func (n *Node) MarshalJSON() ([]byte, error) {
	w := nodeWire{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		BaseColor:   n.BaseColor,
	}
	list := n.kids.nodes
	if list == nil {
		list = []*Node{}
	}
	if n.kids.collapsed {
		w.CollapsedChildren = list
	} else {
		w.Children = list
	}
	return sonic.ConfigStd.Marshal(w)
}

// UnmarshalJSON accepts the persisted shape. Files written by older versions
// that use "name" instead of "title" are read as well.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := sonic.ConfigStd.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(w.Children) > 0 && len(w.CollapsedChildren) > 0 {
		return Malformed("node "+w.ID+" has both children and collapsedChildren", nil)
	}

	title := w.Title
	if title == "" {
		title = w.Name
	}
	*n = Node{
		ID:          w.ID,
		Title:       title,
		Description: w.Description,
		BaseColor:   w.BaseColor,
	}
	switch {
	case len(w.Children) > 0:
		n.kids = Expanded(w.Children...)
	case len(w.CollapsedChildren) > 0:
		n.kids = Collapsed(w.CollapsedChildren...)
	case w.Children == nil && w.CollapsedChildren != nil:
		n.kids = Collapsed()
	default:
		n.kids = Expanded()
	}
	return nil
}
