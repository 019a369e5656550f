package proof

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"prooftree/internal/config"
	models "prooftree/internal/domain/models/proof"
	"prooftree/internal/domain/services"
	domainllm "prooftree/internal/domain/services/llm"
	proofSvc "prooftree/internal/domain/services/proof"
	"prooftree/internal/prompts"
	"prooftree/internal/telemetry"
)

const toolFileSearch = "file_search"

type recomputeDepthKey struct{}

// recomputeDepth returns how many judge fallbacks enclose ctx.
func recomputeDepth(ctx context.Context) int {
	depth, _ := ctx.Value(recomputeDepthKey{}).(int)
	return depth
}

func withRecomputeDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, recomputeDepthKey{}, depth)
}

// Pipeline verifies a step in two stages: an agent run tries to prove the
// step from its assumptions, then a judge model grades the run output.
type Pipeline struct {
	agent          services.AgentRunner
	judge          domainllm.ChatCompleter
	judgeModel     string
	prompts        *prompts.Registry
	recomputer     proofSvc.Recomputer
	defaultTheorem string
	maxRecompute   int
	logger         *slog.Logger
}

// NewPipeline creates a verifier backed by an agent runner and a judge model.
// SetRecomputer must be called before the judge fallback can succeed.
func NewPipeline(
	agent services.AgentRunner,
	judge domainllm.ChatCompleter,
	registry *prompts.Registry,
	cfg *config.Config,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		agent:          agent,
		judge:          judge,
		judgeModel:     cfg.JudgeModel,
		prompts:        registry,
		defaultTheorem: cfg.DefaultTheorem,
		maxRecompute:   cfg.MaxRecomputeDepth,
		logger:         logger,
	}
}

// SetRecomputer installs the decomposition flow used when the judge answer
// is not a number.
func (p *Pipeline) SetRecomputer(r proofSvc.Recomputer) {
	p.recomputer = r
}

// Verify proves and judges one step.
//
// A judge answer of 1 is Success and any other integer is Failure. Anything
// else reruns the whole decomposition for the theorem (or the default
// theorem) and returns it as a Recomputed outcome.
func (p *Pipeline) Verify(ctx context.Context, req *proofSvc.VerifyRequest) (models.Outcome, error) {
	ctx, span := telemetry.Tracer("proof").Start(ctx, "proof.verify")
	defer span.End()
	span.SetAttributes(
		attribute.String("proof.node_id", req.NodeID),
		attribute.Int("proof.assumption_count", len(req.Assumptions)),
	)

	outcome, err := p.verify(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Outcome{}, err
	}
	span.SetAttributes(attribute.String("proof.outcome", string(outcome.Kind)))
	return outcome, nil
}

func (p *Pipeline) verify(ctx context.Context, req *proofSvc.VerifyRequest) (models.Outcome, error) {
	provePrompt, err := p.prompts.Render(prompts.Prove, prompts.ProveData{
		Step:        req.Step,
		Assumptions: req.Assumptions,
	})
	if err != nil {
		return models.Outcome{}, err
	}

	output, err := p.agent.Run(ctx, provePrompt, []string{toolFileSearch})
	if err != nil {
		return models.Outcome{}, fmt.Errorf("prove run: %w", err)
	}

	judgePrompt, err := p.prompts.Render(prompts.Judge, prompts.JudgeData{
		Step:        req.Step,
		Assumptions: req.Assumptions,
		Output:      output,
	})
	if err != nil {
		return models.Outcome{}, err
	}

	resp, err := p.judge.Complete(ctx, &domainllm.ChatRequest{
		Model:    p.judgeModel,
		Messages: []domainllm.ChatMessage{domainllm.UserMessage(judgePrompt)},
	})
	if err != nil {
		return models.Outcome{}, fmt.Errorf("judge: %w", err)
	}

	answer := strings.TrimSpace(resp.Content)
	verdict, err := strconv.Atoi(answer)
	if err == nil {
		if verdict == 1 {
			return models.Success(), nil
		}
		return models.Failure(), nil
	}

	p.logger.Warn("judge answer is not a number, recomputing decomposition",
		"node_id", req.NodeID,
		"answer", answer,
	)
	return p.recompute(ctx, req.Theorem)
}

func (p *Pipeline) recompute(ctx context.Context, theorem string) (models.Outcome, error) {
	depth := recomputeDepth(ctx)
	if depth >= p.maxRecompute {
		return models.Outcome{}, fmt.Errorf("judge fallback skipped: recompute depth %d reached", depth)
	}
	if p.recomputer == nil {
		return models.Outcome{}, fmt.Errorf("judge fallback unavailable: no recomputer configured")
	}

	if theorem == "" {
		theorem = p.defaultTheorem
	}

	result, err := p.recomputer.Recompute(withRecomputeDepth(ctx, depth+1), theorem)
	if err != nil {
		return models.Outcome{}, fmt.Errorf("recompute: %w", err)
	}
	return models.Recomputed(result), nil
}
