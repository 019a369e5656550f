package proof

import (
	"fmt"
	"log/slog"

	"prooftree/internal/config"
	"prooftree/internal/domain/repositories"
	"prooftree/internal/domain/services"
	domainllm "prooftree/internal/domain/services/llm"
	proofSvc "prooftree/internal/domain/services/proof"
	"prooftree/internal/prompts"
)

// SetupService wires the prove/judge pipeline, the validator and the proof
// service, and closes the judge fallback loop back into the service.
func SetupService(
	cfg *config.Config,
	chat domainllm.ChatCompleter,
	agent services.AgentRunner,
	archive repositories.AnalysisRepository,
	logger *slog.Logger,
) (proofSvc.ProofService, error) {
	registry, err := prompts.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	pipeline := NewPipeline(agent, chat, registry, cfg, logger)
	validator := NewValidator(pipeline, cfg.ValidationRPS, logger)
	svc := NewProofService(chat, registry, validator, archive, cfg, logger)
	pipeline.SetRecomputer(svc)

	logger.Info("proof service initialized",
		"fan_out_cap", cfg.FanOutCap,
		"max_recompute_depth", cfg.MaxRecomputeDepth,
		"validation_rps", cfg.ValidationRPS,
		"archive", archive != nil,
	)

	return svc, nil
}
