package models

// TreeNode is one item with its fully materialized descendant subtree.
// Tree structures are pure derivations of the flat item list; they hold no
// state of record and are rebuilt whenever the list changes.
type TreeNode struct {
	Item     *Item       `json:"item"`
	Children []*TreeNode `json:"children"`
}

// Forest is the set of root-level trees.
type Forest struct {
	Roots []*TreeNode `json:"roots"`
}
