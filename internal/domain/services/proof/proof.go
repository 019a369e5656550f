package proof

import (
	"context"

	"prooftree/internal/domain/models/proof"
)

// ProofService defines the decomposition and analysis operations.
type ProofService interface {
	// DecomposeTheorem asks a chat model for a proof tree of the theorem.
	// When req.Analyze is set the tree is also analyzed and validated.
	DecomposeTheorem(ctx context.Context, req *TheoremRequest) (*proof.TheoremResult, error)

	// AnalyzeTree flattens, pairs and validates a caller-supplied tree.
	AnalyzeTree(ctx context.Context, req *AnalyzeRequest) (*proof.TreeAnalysis, error)

	// GetAnalysis returns an archived analysis.
	GetAnalysis(ctx context.Context, id string) (*proof.TreeAnalysis, error)

	Recomputer
}

// Verifier validates one step against its assumptions.
type Verifier interface {
	Verify(ctx context.Context, req *VerifyRequest) (proof.Outcome, error)
}

// Recomputer reruns a full decomposition with analysis for a theorem.
// The verifier falls back to it when the judge answer is unreadable.
type Recomputer interface {
	Recompute(ctx context.Context, theorem string) (*proof.TheoremResult, error)
}

// TheoremRequest is the input of a decomposition.
type TheoremRequest struct {
	Theorem     string  `json:"theorem"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Analyze     bool    `json:"-"` // parse_tree query flag
}

// AnalyzeRequest is the input of a tree analysis.
type AnalyzeRequest struct {
	Theorem   string
	ProofTree map[string]any
	Validate  bool
}

// VerifyRequest is the input of a single node validation.
type VerifyRequest struct {
	NodeID      string
	Step        string
	Assumptions []string
	Theorem     string
}
