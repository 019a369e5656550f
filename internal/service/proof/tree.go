package proof

import (
	"fmt"
	"strconv"
	"strings"

	"prooftree/internal/domain"
	models "prooftree/internal/domain/models/proof"
)

// BuildTree converts an untyped JSON object into a ProofNode tree.
//
// Missing fields take defaults: step "", explanation nil, is_leaf false.
// A children value that is not an array is ignored.
func BuildTree(raw map[string]any) (*models.ProofNode, error) {
	return buildNode(raw, models.RootID)
}

func buildNode(raw map[string]any, id string) (*models.ProofNode, error) {
	node := &models.ProofNode{}

	if v, ok := raw["step"]; ok && v != nil {
		step, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: node %s: step must be a string", domain.ErrValidation, id)
		}
		node.Step = step
	}

	if v, ok := raw["explanation"]; ok && v != nil {
		explanation, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: node %s: explanation must be a string", domain.ErrValidation, id)
		}
		node.Explanation = &explanation
	}

	if v, ok := raw["is_leaf"]; ok && v != nil {
		isLeaf, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: node %s: is_leaf must be a boolean", domain.ErrValidation, id)
		}
		node.IsLeaf = isLeaf
	}

	children, _ := raw["children"].([]any)
	for i, c := range children {
		childID := childIDFor(id, i)
		childRaw, ok := c.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: node %s: child must be an object", domain.ErrValidation, childID)
		}
		child, err := buildNode(childRaw, childID)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

func childIDFor(parentID string, index int) string {
	return parentID + "_" + strconv.Itoa(index)
}

// Flatten lists every node of the tree in pre-order. Parents precede their
// descendants and siblings keep their input order.
func Flatten(root *models.ProofNode) []models.FlatNode {
	var nodes []models.FlatNode

	var traverse func(node *models.ProofNode, id string, parentID *string, depth int)
	traverse = func(node *models.ProofNode, id string, parentID *string, depth int) {
		nodes = append(nodes, models.FlatNode{
			ID:          id,
			ParentID:    parentID,
			Depth:       depth,
			Step:        node.Step,
			Explanation: node.Explanation,
			IsLeaf:      node.IsLeaf,
			HasChildren: node.HasChildren(),
			ChildCount:  len(node.Children),
		})

		nodeID := id
		for i, child := range node.Children {
			traverse(child, childIDFor(id, i), &nodeID, depth+1)
		}
	}

	if root != nil {
		traverse(root, models.RootID, nil, 0)
	}
	return nodes
}

// Leaves returns the nodes whose declared is_leaf flag is set, regardless of
// how many children they actually have.
func Leaves(root *models.ProofNode) []models.FlatNode {
	return filterLeaves(Flatten(root))
}

func filterLeaves(nodes []models.FlatNode) []models.FlatNode {
	leaves := []models.FlatNode{}
	for _, n := range nodes {
		if n.IsLeaf {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// Structure projects the tree onto step, explanation, is_leaf and children.
func Structure(root *models.ProofNode) *models.TreeStructure {
	if root == nil {
		return nil
	}

	s := &models.TreeStructure{
		Step:        root.Step,
		Explanation: root.Explanation,
		IsLeaf:      root.IsLeaf,
	}
	for _, child := range root.Children {
		s.Children = append(s.Children, Structure(child))
	}
	return s
}

// FindNodeByID walks the tree along the positional id ("root_0_2").
// Ids are only meaningful for the tree they were derived from.
func FindNodeByID(root *models.ProofNode, id string) (*models.ProofNode, bool) {
	if root == nil {
		return nil, false
	}

	parts := strings.Split(id, "_")
	if parts[0] != models.RootID {
		return nil, false
	}

	current := root
	for _, part := range parts[1:] {
		index, err := strconv.Atoi(part)
		if err != nil || index < 0 || index >= len(current.Children) {
			return nil, false
		}
		current = current.Children[index]
	}
	return current, true
}

// PathToLeaf returns the records from the root down to leafID.
// A leaf id or ancestor link missing from the tree yields domain.ErrNotFound.
func PathToLeaf(root *models.ProofNode, leafID string) ([]models.FlatNode, error) {
	return pathTo(Flatten(root), leafID)
}

func pathTo(nodes []models.FlatNode, leafID string) ([]models.FlatNode, error) {
	byID := make(map[string]models.FlatNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var path []models.FlatNode
	currentID := &leafID
	for currentID != nil {
		node, ok := byID[*currentID]
		if !ok {
			return nil, fmt.Errorf("%w: node %s", domain.ErrNotFound, *currentID)
		}
		path = append(path, node)
		currentID = node.ParentID
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// NodesWithAssumptions pairs every node with its direct children.
// Childless nodes get an empty, non-nil assumptions list.
func NodesWithAssumptions(root *models.ProofNode) []models.NodeAssumptions {
	return pairAssumptions(Flatten(root))
}

func pairAssumptions(nodes []models.FlatNode) []models.NodeAssumptions {
	childrenByParent := make(map[string][]models.FlatNode)
	for _, n := range nodes {
		if n.ParentID != nil {
			childrenByParent[*n.ParentID] = append(childrenByParent[*n.ParentID], n)
		}
	}

	pairs := make([]models.NodeAssumptions, 0, len(nodes))
	for _, n := range nodes {
		assumptions := childrenByParent[n.ID]
		if assumptions == nil {
			assumptions = []models.FlatNode{}
		}
		pairs = append(pairs, models.NodeAssumptions{Node: n, Assumptions: assumptions})
	}
	return pairs
}

// maxDepth returns the deepest depth in the flattened list.
func maxDepth(nodes []models.FlatNode) int {
	deepest := 0
	for _, n := range nodes {
		if n.Depth > deepest {
			deepest = n.Depth
		}
	}
	return deepest
}

// maxFanOut returns the largest child count in the flattened list.
func maxFanOut(nodes []models.FlatNode) int {
	widest := 0
	for _, n := range nodes {
		if n.ChildCount > widest {
			widest = n.ChildCount
		}
	}
	return widest
}
