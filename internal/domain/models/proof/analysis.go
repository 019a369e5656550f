package proof

import "time"

// TreeAnalysis is everything derived from one proof tree.
type TreeAnalysis struct {
	AnalysisID           string            `json:"analysis_id"`
	Theorem              string            `json:"theorem"`
	AllNodes             []FlatNode        `json:"all_nodes"`
	LeafNodes            []FlatNode        `json:"leaf_nodes"`
	TreeStructure        *TreeStructure    `json:"tree_structure"`
	NodeCount            int               `json:"node_count"`
	LeafCount            int               `json:"leaf_count"`
	MaxDepth             int               `json:"max_depth"`
	MaxFanOut            int               `json:"max_fan_out"`
	FanOutCap            int               `json:"fan_out_cap"`
	NodesWithAssumptions []NodeAssumptions `json:"nodes_with_assumptions"`
	ProcessedNodes       []ProcessedNode   `json:"processed_nodes"`
	ValidationSummary    ValidationSummary `json:"validation_summary"`
	SamplePathToLeaf     []FlatNode        `json:"sample_path_to_leaf,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
}

// TheoremResult is the response of a decomposition.
type TheoremResult struct {
	Theorem      string         `json:"theorem"`
	ProofTree    map[string]any `json:"proof_tree"`
	MaxFanOut    int            `json:"max_fan_out"` // may exceed the prompted cap
	TreeAnalysis *TreeAnalysis  `json:"tree_analysis,omitempty"`
}
