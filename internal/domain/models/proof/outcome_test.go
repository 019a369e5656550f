package proof

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeJSON(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{name: "success", outcome: Success(), want: `"success"`},
		{name: "failure", outcome: Failure(), want: `"failure"`},
		{name: "error", outcome: Error(), want: `"error"`},
		{name: "skipped", outcome: Skipped(), want: `"skipped - no assumptions"`},
		{
			name:    "recomputed",
			outcome: Recomputed(&TheoremResult{Theorem: "T", ProofTree: map[string]any{"step": "T"}}),
			want:    `{"theorem": "T", "proof_tree": {"step": "T"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.outcome)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back Outcome
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.outcome.Kind, back.Kind)
		})
	}
}

func TestOutcomeUnmarshalUnknown(t *testing.T) {
	var o Outcome
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &o))
	assert.Error(t, json.Unmarshal([]byte(`42`), &o))
}

func TestValidationSummaryAdd(t *testing.T) {
	var s ValidationSummary
	for _, o := range []Outcome{Success(), Success(), Failure(), Error(), Skipped(), Recomputed(nil)} {
		s.Add(o)
	}
	assert.Equal(t, ValidationSummary{Success: 2, Failure: 1, Error: 1, Skipped: 1, Recomputed: 1}, s)
}
