package proof

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	models "prooftree/internal/domain/models/proof"
	proofSvc "prooftree/internal/domain/services/proof"
	"prooftree/internal/metrics"
)

// Validator runs the verifier over (node, assumptions) pairs one at a time.
type Validator struct {
	verifier proofSvc.Verifier
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewValidator creates a validator. A positive rps caps verifier calls per
// second across every analysis served by this validator; zero disables the cap.
func NewValidator(verifier proofSvc.Verifier, rps float64, logger *slog.Logger) *Validator {
	v := &Validator{
		verifier: verifier,
		logger:   logger,
	}
	if rps > 0 {
		v.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return v
}

// ProcessAll validates every pair in order. A failing node never stops the
// remaining ones.
func (v *Validator) ProcessAll(ctx context.Context, pairs []models.NodeAssumptions, theorem string) []models.ProcessedNode {
	results := make([]models.ProcessedNode, 0, len(pairs))
	for _, pair := range pairs {
		results = append(results, v.ProcessNode(ctx, pair, theorem))
	}
	return results
}

// ProcessNode validates one node against its direct children. A node
// without children is skipped without calling the verifier.
func (v *Validator) ProcessNode(ctx context.Context, pair models.NodeAssumptions, theorem string) models.ProcessedNode {
	result := models.ProcessedNode{
		ID:              pair.Node.ID,
		Step:            pair.Node.Step,
		Explanation:     pair.Node.Explanation,
		IsLeaf:          pair.Node.IsLeaf,
		AssumptionCount: len(pair.Assumptions),
		Assumptions:     make([]models.AssumptionSummary, len(pair.Assumptions)),
	}
	for i, a := range pair.Assumptions {
		result.Assumptions[i] = models.AssumptionSummary{
			Step:        a.Step,
			Explanation: a.Explanation,
			IsLeaf:      a.IsLeaf,
		}
	}

	result.ValidationResult = v.verify(ctx, pair, theorem)
	metrics.ValidationOutcomes.WithLabelValues(string(result.ValidationResult.Kind)).Inc()
	return result
}

func (v *Validator) verify(ctx context.Context, pair models.NodeAssumptions, theorem string) models.Outcome {
	if len(pair.Assumptions) == 0 {
		return models.Skipped()
	}

	if v.limiter != nil {
		if err := v.limiter.Wait(ctx); err != nil {
			v.logger.Warn("node validation not started",
				"node_id", pair.Node.ID,
				"error", err,
			)
			return models.Error()
		}
	}

	steps := make([]string, len(pair.Assumptions))
	for i, a := range pair.Assumptions {
		steps[i] = a.Step
	}

	v.logger.Debug("validating node",
		"node_id", pair.Node.ID,
		"assumption_count", len(steps),
	)

	outcome, err := v.verifier.Verify(ctx, &proofSvc.VerifyRequest{
		NodeID:      pair.Node.ID,
		Step:        pair.Node.Step,
		Assumptions: steps,
		Theorem:     theorem,
	})
	if err != nil {
		v.logger.Error("node validation failed",
			"node_id", pair.Node.ID,
			"error", err,
		)
		return models.Error()
	}
	return outcome
}
