package proof

import (
	"strings"

	models "prooftree/internal/domain/models/proof"
)

// RenderText draws the tree with box-drawing branches, one node per line:
//
//	root T
//	├── root_0 A [success]
//	│   └── root_0_0 A1 (leaf)
//	└── root_1 B (leaf)
//
// outcomes is keyed by node id and may be nil.
func RenderText(root *models.ProofNode, outcomes map[string]models.Outcome) string {
	if root == nil {
		return ""
	}

	var b strings.Builder
	writeLine(&b, "", models.RootID, root, outcomes)
	renderChildren(&b, "", models.RootID, root, outcomes)
	return strings.TrimSuffix(b.String(), "\n")
}

func renderChildren(b *strings.Builder, prefix, parentID string, n *models.ProofNode, outcomes map[string]models.Outcome) {
	for i, child := range n.Children {
		id := childIDFor(parentID, i)
		last := i == len(n.Children)-1

		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}
		writeLine(b, prefix+branch, id, child, outcomes)
		renderChildren(b, prefix+indent, id, child, outcomes)
	}
}

func writeLine(b *strings.Builder, prefix, id string, n *models.ProofNode, outcomes map[string]models.Outcome) {
	b.WriteString(prefix)
	b.WriteString(id)
	b.WriteString(" ")
	b.WriteString(n.Step)
	if n.IsLeaf {
		b.WriteString(" (leaf)")
	}
	if o, ok := outcomes[id]; ok {
		b.WriteString(" [" + string(o.Kind) + "]")
	}
	b.WriteString("\n")
}

// OutcomesByID indexes the validation results of an analysis.
func OutcomesByID(processed []models.ProcessedNode) map[string]models.Outcome {
	out := make(map[string]models.Outcome, len(processed))
	for _, p := range processed {
		out[p.ID] = p.ValidationResult
	}
	return out
}
