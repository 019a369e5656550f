package proof

// RootID is the identifier assigned to the root of every flattened tree.
const RootID = "root"

// ProofNode is a step in a proof tree. Children are the substeps the step
// is decomposed into; their order is part of each child's identifier.
type ProofNode struct {
	Step        string       `json:"step"`
	Explanation *string      `json:"explanation"`
	Children    []*ProofNode `json:"children"`
	IsLeaf      bool         `json:"is_leaf"` // declared by the author, not derived
}

// HasChildren reports whether the node actually has substeps.
// It is independent of the declared IsLeaf flag.
func (n *ProofNode) HasChildren() bool {
	return len(n.Children) > 0
}

// FlatNode is one record of a flattened tree.
type FlatNode struct {
	ID          string  `json:"id"`
	ParentID    *string `json:"parent_id"`
	Depth       int     `json:"depth"`
	Step        string  `json:"step"`
	Explanation *string `json:"explanation"`
	IsLeaf      bool    `json:"is_leaf"`
	HasChildren bool    `json:"has_children"`
	ChildCount  int     `json:"child_count"`
}

// IsRoot reports whether the record has no parent.
func (f FlatNode) IsRoot() bool {
	return f.ParentID == nil
}

// NodeAssumptions pairs a node with its direct children, which act as the
// premises when validating the node's step. It encodes as a named object,
// {"node": ..., "assumptions": [...]}.
type NodeAssumptions struct {
	Node        FlatNode   `json:"node"`
	Assumptions []FlatNode `json:"assumptions"`
}

// TreeStructure is the caller-facing projection of a tree.
type TreeStructure struct {
	Step        string           `json:"step"`
	Explanation *string          `json:"explanation"`
	IsLeaf      bool             `json:"is_leaf"`
	Children    []*TreeStructure `json:"children,omitempty"`
}
