package proof

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "prooftree/internal/domain/models/proof"
)

func TestProcessNodeSkipsWithoutAssumptions(t *testing.T) {
	verifier := &fakeVerifier{outcome: models.Success()}
	v := NewValidator(verifier, 0, discardLogger())

	pairs := NodesWithAssumptions(mustTree(t, scenarioTree))
	got := v.ProcessNode(context.Background(), pairs[1], "T")

	assert.Equal(t, models.OutcomeSkipped, got.ValidationResult.Kind)
	assert.Equal(t, 0, got.AssumptionCount)
	assert.NotNil(t, got.Assumptions)
	assert.Empty(t, verifier.requests)
}

func TestProcessAllScenario(t *testing.T) {
	verifier := &fakeVerifier{outcome: models.Success()}
	v := NewValidator(verifier, 0, discardLogger())

	pairs := NodesWithAssumptions(mustTree(t, scenarioTree))
	results := v.ProcessAll(context.Background(), pairs, "T")
	require.Len(t, results, 3)

	root := results[0]
	assert.Equal(t, "root", root.ID)
	assert.Equal(t, "T", root.Step)
	assert.Equal(t, 2, root.AssumptionCount)
	require.Len(t, root.Assumptions, 2)
	assert.Equal(t, "A", root.Assumptions[0].Step)
	assert.True(t, root.Assumptions[0].IsLeaf)
	assert.Equal(t, models.OutcomeSuccess, root.ValidationResult.Kind)

	assert.Equal(t, models.OutcomeSkipped, results[1].ValidationResult.Kind)
	assert.Equal(t, models.OutcomeSkipped, results[2].ValidationResult.Kind)

	require.Len(t, verifier.requests, 1)
	req := verifier.requests[0]
	assert.Equal(t, "root", req.NodeID)
	assert.Equal(t, "T", req.Step)
	assert.Equal(t, []string{"A", "B"}, req.Assumptions)
	assert.Equal(t, "T", req.Theorem)
}

func TestProcessAllContinuesAfterError(t *testing.T) {
	root := mustTree(t, `{
		"step": "r",
		"children": [
			{"step": "a", "children": [{"step": "a0"}]},
			{"step": "b", "children": [{"step": "b0"}]}
		]
	}`)
	verifier := &fakeVerifier{
		outcome: models.Failure(),
		fail:    map[string]error{"root_0": errors.New("agent unavailable")},
	}
	v := NewValidator(verifier, 0, discardLogger())

	results := v.ProcessAll(context.Background(), NodesWithAssumptions(root), "")

	kinds := make(map[string]models.OutcomeKind, len(results))
	order := make([]string, 0, len(results))
	for _, r := range results {
		kinds[r.ID] = r.ValidationResult.Kind
		order = append(order, r.ID)
	}

	assert.Equal(t, []string{"root", "root_0", "root_0_0", "root_1", "root_1_0"}, order)
	assert.Equal(t, models.OutcomeFailure, kinds["root"])
	assert.Equal(t, models.OutcomeError, kinds["root_0"])
	assert.Equal(t, models.OutcomeFailure, kinds["root_1"])
	assert.Equal(t, models.OutcomeSkipped, kinds["root_0_0"])
	assert.Len(t, verifier.requests, 3)
}

func TestProcessNodeRateLimitedCancelled(t *testing.T) {
	verifier := &fakeVerifier{outcome: models.Success()}
	v := NewValidator(verifier, 0.001, discardLogger())

	pairs := NodesWithAssumptions(mustTree(t, scenarioTree))

	// first call consumes the burst token
	first := v.ProcessNode(context.Background(), pairs[0], "T")
	assert.Equal(t, models.OutcomeSuccess, first.ValidationResult.Kind)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := v.ProcessNode(ctx, pairs[0], "T")

	assert.Equal(t, models.OutcomeError, second.ValidationResult.Kind)
	assert.Len(t, verifier.requests, 1)
}
