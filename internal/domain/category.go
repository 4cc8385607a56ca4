package domain

import (
	"errors"
	"fmt"
)

var ErrCategoryCycle = errors.New("category tree contains a cycle")

// BuildCategoryTree resolves a flat parent-id adjacency list into root nodes.
// Categories whose parent chain never reaches a root are reported as a cycle.
func BuildCategoryTree(categories []*Category) ([]*CategoryNode, error) {
	nodes := make(map[int64]*CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &CategoryNode{Category: *c, Children: []*CategoryNode{}}
	}

	roots := []*CategoryNode{}
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok {
			return nil, fmt.Errorf("category %d references missing parent %d", c.ID, *c.ParentID)
		}
		parent.Children = append(parent.Children, node)
	}

	reached := 0
	var walk func(n *CategoryNode)
	walk = func(n *CategoryNode) {
		reached++
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	if reached != len(nodes) {
		return nil, ErrCategoryCycle
	}

	return roots, nil
}

// ChildrenOf returns the direct children of parentID, or the roots when
// parentID is nil
func ChildrenOf(categories []*Category, parentID *int64) []*Category {
	children := []*Category{}
	for _, c := range categories {
		switch {
		case parentID == nil && c.ParentID == nil:
			children = append(children, c)
		case parentID != nil && c.ParentID != nil && *c.ParentID == *parentID:
			children = append(children, c)
		}
	}
	return children
}
