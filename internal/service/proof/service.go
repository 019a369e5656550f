package proof

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"prooftree/internal/config"
	"prooftree/internal/domain"
	models "prooftree/internal/domain/models/proof"
	"prooftree/internal/domain/repositories"
	domainllm "prooftree/internal/domain/services/llm"
	proofSvc "prooftree/internal/domain/services/proof"
	"prooftree/internal/prompts"
	"prooftree/internal/telemetry"
)

type proofService struct {
	chat      domainllm.ChatCompleter
	prompts   *prompts.Registry
	validator *Validator
	archive   repositories.AnalysisRepository
	cfg       *config.Config
	logger    *slog.Logger
}

// NewProofService creates the decomposition and analysis service.
// archive may be nil, in which case analyses are not persisted.
func NewProofService(
	chat domainllm.ChatCompleter,
	registry *prompts.Registry,
	validator *Validator,
	archive repositories.AnalysisRepository,
	cfg *config.Config,
	logger *slog.Logger,
) proofSvc.ProofService {
	return &proofService{
		chat:      chat,
		prompts:   registry,
		validator: validator,
		archive:   archive,
		cfg:       cfg,
		logger:    logger,
	}
}

// NewTheoremRequest returns a decomposition request with the default model,
// token budget and temperature.
func NewTheoremRequest(theorem string, cfg *config.Config) *proofSvc.TheoremRequest {
	return &proofSvc.TheoremRequest{
		Theorem:     theorem,
		Model:       cfg.DefaultModel,
		MaxTokens:   config.DefaultMaxTokens,
		Temperature: config.DefaultTemperature,
	}
}

// DecomposeTheorem asks the chat model for a proof tree in JSON mode.
func (s *proofService) DecomposeTheorem(ctx context.Context, req *proofSvc.TheoremRequest) (*models.TheoremResult, error) {
	if err := s.validateTheoremRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.Model == "" {
		req.Model = s.cfg.DefaultModel
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = config.DefaultMaxTokens
	}

	ctx, span := telemetry.Tracer("proof").Start(ctx, "proof.decompose")
	defer span.End()
	span.SetAttributes(
		attribute.String("proof.model", req.Model),
		attribute.Bool("proof.analyze", req.Analyze),
		attribute.Int("proof.recompute_depth", recomputeDepth(ctx)),
	)

	system, err := s.prompts.Render(prompts.DecomposeSystem, prompts.DecomposeData{FanOutCap: s.cfg.FanOutCap})
	if err != nil {
		return nil, err
	}
	user, err := s.prompts.Render(prompts.DecomposeUser, prompts.DecomposeData{Theorem: req.Theorem})
	if err != nil {
		return nil, err
	}

	temperature := req.Temperature
	resp, err := s.chat.Complete(ctx, &domainllm.ChatRequest{
		Model:       req.Model,
		System:      system,
		Messages:    []domainllm.ChatMessage{domainllm.UserMessage(user)},
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	tree, fanOut, err := s.parseProofTree(resp.Content)
	if err != nil {
		return nil, err
	}

	s.logger.Info("theorem decomposed",
		"model", req.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
	)

	result := &models.TheoremResult{
		Theorem:   req.Theorem,
		ProofTree: tree,
		MaxFanOut: fanOut,
	}

	if req.Analyze {
		analysis, err := s.AnalyzeTree(ctx, &proofSvc.AnalyzeRequest{
			Theorem:   req.Theorem,
			ProofTree: tree,
			Validate:  true,
		})
		if err != nil {
			return nil, err
		}
		result.TreeAnalysis = analysis
	}

	return result, nil
}

// parseProofTree decodes the model output into a tree and reports its
// widest step. The fan-out cap is only a prompt instruction, so a wider
// tree is logged, not rejected.
func (s *proofService) parseProofTree(content string) (map[string]any, int, error) {
	var tree map[string]any
	if err := json.Unmarshal([]byte(content), &tree); err != nil {
		return nil, 0, &domain.ModelOutputError{Raw: content, Err: err}
	}
	if tree == nil {
		return nil, 0, &domain.ModelOutputError{Raw: content, Err: errors.New("response is not a JSON object")}
	}

	root, err := BuildTree(tree)
	if err != nil {
		return nil, 0, &domain.ModelOutputError{Raw: content, Err: err}
	}

	fanOut := maxFanOut(Flatten(root))
	if s.cfg.FanOutCap > 0 && fanOut > s.cfg.FanOutCap {
		s.logger.Warn("decomposed tree exceeds fan-out cap",
			"max_fan_out", fanOut,
			"fan_out_cap", s.cfg.FanOutCap,
		)
	}
	return tree, fanOut, nil
}

func (s *proofService) validateTheoremRequest(req *proofSvc.TheoremRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Theorem,
			validation.Required,
			validation.Length(1, config.MaxTheoremLength),
		),
		validation.Field(&req.MaxTokens,
			validation.Min(0),
			validation.Max(config.MaxOutputTokens),
		),
		validation.Field(&req.Temperature,
			validation.Min(0.0),
			validation.Max(config.MaxTemperature),
		),
	)
}

// AnalyzeTree derives the flattened views of a tree and validates every node.
func (s *proofService) AnalyzeTree(ctx context.Context, req *proofSvc.AnalyzeRequest) (*models.TreeAnalysis, error) {
	if req.ProofTree == nil {
		return nil, fmt.Errorf("%w: proof_tree is required", domain.ErrValidation)
	}

	root, err := BuildTree(req.ProofTree)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer("proof").Start(ctx, "proof.analyze")
	defer span.End()

	nodes := Flatten(root)
	leaves := filterLeaves(nodes)
	pairs := pairAssumptions(nodes)

	analysis := &models.TreeAnalysis{
		AnalysisID:           uuid.NewString(),
		Theorem:              req.Theorem,
		AllNodes:             nodes,
		LeafNodes:            leaves,
		TreeStructure:        Structure(root),
		NodeCount:            len(nodes),
		LeafCount:            len(leaves),
		MaxDepth:             maxDepth(nodes),
		MaxFanOut:            maxFanOut(nodes),
		FanOutCap:            s.cfg.FanOutCap,
		NodesWithAssumptions: pairs,
		ProcessedNodes:       []models.ProcessedNode{},
		CreatedAt:            time.Now().UTC(),
	}
	span.SetAttributes(
		attribute.String("proof.analysis_id", analysis.AnalysisID),
		attribute.Int("proof.node_count", analysis.NodeCount),
	)

	if s.cfg.FanOutCap > 0 && analysis.MaxFanOut > s.cfg.FanOutCap {
		s.logger.Warn("proof tree exceeds fan-out cap",
			"analysis_id", analysis.AnalysisID,
			"max_fan_out", analysis.MaxFanOut,
			"fan_out_cap", s.cfg.FanOutCap,
		)
	}

	if req.Validate {
		analysis.ProcessedNodes = s.validator.ProcessAll(ctx, pairs, req.Theorem)
		// Nodes cut off by the deadline would read as "error" outcomes
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("validate proof tree: %w", err)
		}
		for _, p := range analysis.ProcessedNodes {
			analysis.ValidationSummary.Add(p.ValidationResult)
		}
	}

	if len(leaves) > 0 {
		path, err := pathTo(nodes, leaves[0].ID)
		if err != nil {
			return nil, err
		}
		analysis.SamplePathToLeaf = path
	}

	s.logger.Info("proof tree analyzed",
		"analysis_id", analysis.AnalysisID,
		"node_count", analysis.NodeCount,
		"leaf_count", analysis.LeafCount,
		"max_depth", analysis.MaxDepth,
		"validated", req.Validate,
	)

	if s.archive != nil {
		if err := s.archive.Save(ctx, analysis); err != nil {
			s.logger.Warn("failed to archive analysis",
				"analysis_id", analysis.AnalysisID,
				"error", err,
			)
		}
	}

	return analysis, nil
}

// GetAnalysis returns an archived analysis by id.
func (s *proofService) GetAnalysis(ctx context.Context, id string) (*models.TreeAnalysis, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("%w: analysis archive not configured", domain.ErrNotFound)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid analysis id", domain.ErrValidation)
	}
	return s.archive.Get(ctx, id)
}

// Recompute reruns the decomposition with analysis using default settings.
func (s *proofService) Recompute(ctx context.Context, theorem string) (*models.TheoremResult, error) {
	req := NewTheoremRequest(theorem, s.cfg)
	req.Analyze = true
	return s.DecomposeTheorem(ctx, req)
}
