package proof

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"prooftree/internal/config"
	"prooftree/internal/domain"
	models "prooftree/internal/domain/models/proof"
	domainllm "prooftree/internal/domain/services/llm"
	proofSvc "prooftree/internal/domain/services/proof"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultModel:      config.DefaultModel,
		JudgeModel:        config.DefaultJudgeModel,
		DefaultTheorem:    config.DefaultTheorem,
		FanOutCap:         config.DefaultFanOutCap,
		MaxRecomputeDepth: 1,
	}
}

// fakeChat answers decomposition requests (JSON mode) and judge requests
// separately.
type fakeChat struct {
	mu          sync.Mutex
	decompose   []string // consumed in order, last one repeats
	judge       string
	err         error
	requests    []domainllm.ChatRequest
	judgeCalls  int
	decompCalls int
}

func (f *fakeChat) Name() string              { return "fake" }
func (f *fakeChat) SupportsModel(string) bool { return true }

func (f *fakeChat) Complete(_ context.Context, req *domainllm.ChatRequest) (*domainllm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, *req)
	if f.err != nil {
		return nil, f.err
	}

	if !req.JSONMode {
		f.judgeCalls++
		return &domainllm.ChatResponse{Content: f.judge, Model: req.Model}, nil
	}

	i := f.decompCalls
	if i >= len(f.decompose) {
		i = len(f.decompose) - 1
	}
	f.decompCalls++
	return &domainllm.ChatResponse{Content: f.decompose[i], Model: req.Model}, nil
}

type fakeAgent struct {
	output string
	err    error
	inputs []string
	tools  [][]string
}

func (f *fakeAgent) Run(_ context.Context, input string, tools []string) (string, error) {
	f.inputs = append(f.inputs, input)
	f.tools = append(f.tools, tools)
	return f.output, f.err
}

// fakeVerifier returns a fixed outcome, or an error for node ids in fail.
type fakeVerifier struct {
	outcome  models.Outcome
	fail     map[string]error
	requests []proofSvc.VerifyRequest
}

func (f *fakeVerifier) Verify(_ context.Context, req *proofSvc.VerifyRequest) (models.Outcome, error) {
	f.requests = append(f.requests, *req)
	if err, ok := f.fail[req.NodeID]; ok {
		return models.Outcome{}, err
	}
	return f.outcome, nil
}

type fakeRecomputer struct {
	theorems []string
	depths   []int
	result   *models.TheoremResult
	err      error
}

func (f *fakeRecomputer) Recompute(ctx context.Context, theorem string) (*models.TheoremResult, error) {
	f.theorems = append(f.theorems, theorem)
	f.depths = append(f.depths, recomputeDepth(ctx))
	return f.result, f.err
}

type memoryArchive struct {
	analyses map[string]*models.TreeAnalysis
	saveErr  error
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{analyses: make(map[string]*models.TreeAnalysis)}
}

func (a *memoryArchive) Save(_ context.Context, analysis *models.TreeAnalysis) error {
	if a.saveErr != nil {
		return a.saveErr
	}
	a.analyses[analysis.AnalysisID] = analysis
	return nil
}

func (a *memoryArchive) Get(_ context.Context, id string) (*models.TreeAnalysis, error) {
	analysis, ok := a.analyses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return analysis, nil
}

func (a *memoryArchive) Ping(context.Context) error { return nil }
