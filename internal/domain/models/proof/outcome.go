package proof

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind enumerates the results of validating one node.
type OutcomeKind string

const (
	OutcomeSuccess    OutcomeKind = "success"
	OutcomeFailure    OutcomeKind = "failure"
	OutcomeError      OutcomeKind = "error"
	OutcomeSkipped    OutcomeKind = "skipped - no assumptions"
	OutcomeRecomputed OutcomeKind = "recomputed"
)

// Outcome is the validation result of a node.
//
// When the judge answer cannot be read as a number the pipeline reruns the
// whole decomposition instead, and the outcome carries that result.
type Outcome struct {
	Kind       OutcomeKind
	Recomputed *TheoremResult
}

func Success() Outcome { return Outcome{Kind: OutcomeSuccess} }
func Failure() Outcome { return Outcome{Kind: OutcomeFailure} }
func Error() Outcome   { return Outcome{Kind: OutcomeError} }
func Skipped() Outcome { return Outcome{Kind: OutcomeSkipped} }

// Recomputed wraps a fresh decomposition produced by the judge fallback.
func Recomputed(result *TheoremResult) Outcome {
	return Outcome{Kind: OutcomeRecomputed, Recomputed: result}
}

// MarshalJSON renders the tri-state outcomes as their plain strings and a
// recomputed outcome as the nested theorem result.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Kind == OutcomeRecomputed {
		return json.Marshal(o.Recomputed)
	}
	return json.Marshal(string(o.Kind))
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch OutcomeKind(s) {
		case OutcomeSuccess, OutcomeFailure, OutcomeError, OutcomeSkipped:
			*o = Outcome{Kind: OutcomeKind(s)}
			return nil
		}
		return fmt.Errorf("unknown outcome %q", s)
	}

	var result TheoremResult
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("decode recomputed outcome: %w", err)
	}
	*o = Recomputed(&result)
	return nil
}

// AssumptionSummary is the short form of an assumption in a processed node.
type AssumptionSummary struct {
	Step        string  `json:"step"`
	Explanation *string `json:"explanation"`
	IsLeaf      bool    `json:"is_leaf"`
}

// ProcessedNode is the validation record of one (node, assumptions) pair.
type ProcessedNode struct {
	ID               string              `json:"id"`
	Step             string              `json:"step"`
	Explanation      *string             `json:"explanation"`
	IsLeaf           bool                `json:"is_leaf"`
	AssumptionCount  int                 `json:"assumption_count"`
	Assumptions      []AssumptionSummary `json:"assumptions"`
	ValidationResult Outcome             `json:"validation_result"`
}

// ValidationSummary counts outcomes across an analysis.
type ValidationSummary struct {
	Success    int `json:"success"`
	Failure    int `json:"failure"`
	Error      int `json:"error"`
	Skipped    int `json:"skipped"`
	Recomputed int `json:"recomputed"`
}

// Add counts one outcome.
func (s *ValidationSummary) Add(o Outcome) {
	switch o.Kind {
	case OutcomeSuccess:
		s.Success++
	case OutcomeFailure:
		s.Failure++
	case OutcomeError:
		s.Error++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeRecomputed:
		s.Recomputed++
	}
}
