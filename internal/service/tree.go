package service

import (
	"sort"

	"canopy/internal/domain/models"
)

// BuildForest derives the nested forest from the flat item list. It is pure:
// no repository access, no retained state, recomputed from scratch on every
// call. Children are fully materialized so a renderer can expand and
// collapse without further fetches.
//
// Within each group folders sort before notes and ai-notes, then by creation
// time ascending, matching the repository's sibling ordering.
func BuildForest(items []models.Item) *models.Forest {
	nodes := make(map[string]*models.TreeNode, len(items))

	// First pass: create a node per item
	for i := range items {
		item := &items[i]
		nodes[item.ID] = &models.TreeNode{
			Item:     item,
			Children: []*models.TreeNode{},
		}
	}

	// Second pass: attach children to parents. Items whose parent is absent
	// from the list group at the root rather than vanish.
	roots := make([]*models.TreeNode, 0)
	for i := range items {
		item := &items[i]
		node := nodes[item.ID]
		if item.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, exists := nodes[*item.ParentID]; exists {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}

	// Third pass: order every sibling group
	sortSiblings(roots)
	for _, node := range nodes {
		sortSiblings(node.Children)
	}

	return &models.Forest{Roots: roots}
}

func sortSiblings(siblings []*models.TreeNode) {
	sort.SliceStable(siblings, func(a, b int) bool {
		av, bv := siblings[a].Item, siblings[b].Item
		if (av.Variant == models.VariantFolder) != (bv.Variant == models.VariantFolder) {
			return av.Variant == models.VariantFolder
		}
		return av.CreatedAt.Before(bv.CreatedAt)
	})
}
