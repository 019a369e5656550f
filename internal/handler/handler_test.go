package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prooftree/internal/config"
	"prooftree/internal/domain"
	models "prooftree/internal/domain/models/proof"
	proofSvc "prooftree/internal/domain/services/proof"
)

type fakeProofService struct {
	decomposeReq *proofSvc.TheoremRequest
	analyzeReq   *proofSvc.AnalyzeRequest
	getID        string
	err          error
}

func (f *fakeProofService) DecomposeTheorem(_ context.Context, req *proofSvc.TheoremRequest) (*models.TheoremResult, error) {
	f.decomposeReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.TheoremResult{Theorem: req.Theorem, ProofTree: map[string]any{"step": req.Theorem}}, nil
}

func (f *fakeProofService) AnalyzeTree(_ context.Context, req *proofSvc.AnalyzeRequest) (*models.TreeAnalysis, error) {
	f.analyzeReq = req
	if f.err != nil {
		return nil, f.err
	}
	if req.ProofTree == nil {
		return nil, errors.Join(domain.ErrValidation, errors.New("proof_tree is required"))
	}
	return &models.TreeAnalysis{AnalysisID: "a-1", Theorem: req.Theorem, NodeCount: 1}, nil
}

func (f *fakeProofService) GetAnalysis(_ context.Context, id string) (*models.TreeAnalysis, error) {
	f.getID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.TreeAnalysis{AnalysisID: id}, nil
}

func (f *fakeProofService) Recompute(context.Context, string) (*models.TheoremResult, error) {
	return nil, errors.New("not used")
}

type staticProviders map[string]bool

func (p staticProviders) Available() map[string]bool { return p }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		DefaultModel: config.DefaultModel,
		JudgeModel:   config.DefaultJudgeModel,
		FanOutCap:    config.DefaultFanOutCap,
	}
}

func newTestRouter(svc *fakeProofService, archive Pinger) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	return NewRouter(RouterConfig{
		Proof:          NewProofHandler(svc, cfg, logger),
		Health:         NewHealthHandler(archive, logger),
		Models:         NewModelsHandler(cfg, staticProviders{"openai": true, "anthropic": false}),
		ArchiveEnabled: archive != nil,
		Logger:         logger,
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, reader))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRoot(t *testing.T) {
	rec := do(t, newTestRouter(&fakeProofService{}, nil), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the minimal API demo", decode(t, rec)["message"])
}

func TestTheoremProof(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		body        string
		wantStatus  int
		wantAnalyze bool
		wantModel   string
		wantTokens  int
		wantTemp    float64
	}{
		{
			name:       "defaults",
			target:     "/theorem-proof",
			body:       `{"theorem": "T"}`,
			wantStatus: http.StatusOK,
			wantModel:  config.DefaultModel,
			wantTokens: config.DefaultMaxTokens,
			wantTemp:   config.DefaultTemperature,
		},
		{
			name:        "explicit fields and parse_tree",
			target:      "/theorem-proof?parse_tree=true",
			body:        `{"theorem": "T", "model": "claude-haiku-4-5", "max_tokens": 800, "temperature": 0}`,
			wantStatus:  http.StatusOK,
			wantAnalyze: true,
			wantModel:   "claude-haiku-4-5",
			wantTokens:  800,
			wantTemp:    0,
		},
		{name: "bad parse_tree", target: "/theorem-proof?parse_tree=maybe", body: `{"theorem": "T"}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", target: "/theorem-proof", body: `{"theorem":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeProofService{}
			rec := do(t, newTestRouter(svc, nil), http.MethodPost, tt.target, tt.body)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				assert.Nil(t, svc.decomposeReq)
				return
			}

			require.NotNil(t, svc.decomposeReq)
			assert.Equal(t, "T", svc.decomposeReq.Theorem)
			assert.Equal(t, tt.wantAnalyze, svc.decomposeReq.Analyze)
			assert.Equal(t, tt.wantModel, svc.decomposeReq.Model)
			assert.Equal(t, tt.wantTokens, svc.decomposeReq.MaxTokens)
			assert.InDelta(t, tt.wantTemp, svc.decomposeReq.Temperature, 1e-9)
			assert.Equal(t, "T", decode(t, rec)["theorem"])
		})
	}
}

func TestTheoremProofErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
		wantRaw    string
	}{
		{
			name:       "configuration",
			err:        errors.Join(domain.ErrConfiguration, errors.New("OPENAI_API_KEY environment variable not set")),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "LLM provider not configured",
		},
		{
			name:       "model output",
			err:        &domain.ModelOutputError{Raw: "Sure! Here is", Err: errors.New("invalid character 'S'")},
			wantStatus: http.StatusInternalServerError,
			wantRaw:    "Sure! Here is",
		},
		{
			name:       "validation",
			err:        errors.Join(domain.ErrValidation, errors.New("theorem: cannot be blank")),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "timeout",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "unknown",
			err:        errors.New("db exploded"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(&fakeProofService{err: tt.err}, nil), http.MethodPost, "/theorem-proof", `{"theorem": "T"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			body := decode(t, rec)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["detail"])
			}
			if tt.wantRaw != "" {
				assert.Equal(t, tt.wantRaw, body["raw_response"])
			}
		})
	}
}

func TestParseTheoremTree(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid", body: `{"theorem": "T", "proof_tree": {"step": "T"}}`, wantStatus: http.StatusOK},
		{name: "missing proof_tree", body: `{"theorem": "T"}`, wantStatus: http.StatusBadRequest},
		{name: "null proof_tree", body: `{"theorem": "T", "proof_tree": null}`, wantStatus: http.StatusBadRequest},
		{name: "proof_tree not an object", body: `{"proof_tree": [1, 2]}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeProofService{}
			rec := do(t, newTestRouter(svc, nil), http.MethodPost, "/parse-theorem-tree", tt.body)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.True(t, svc.analyzeReq.Validate)
				assert.Equal(t, "T", svc.analyzeReq.Theorem)
				assert.Equal(t, "a-1", decode(t, rec)["analysis_id"])
			}
		})
	}
}

func TestGetAnalysisRoute(t *testing.T) {
	t.Run("archive disabled", func(t *testing.T) {
		rec := do(t, newTestRouter(&fakeProofService{}, nil), http.MethodGet, "/api/analyses/abc", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("archive enabled", func(t *testing.T) {
		svc := &fakeProofService{}
		rec := do(t, newTestRouter(svc, fakePinger{}), http.MethodGet, "/api/analyses/abc", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "abc", svc.getID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeProofService{err: domain.ErrNotFound}
		rec := do(t, newTestRouter(svc, fakePinger{}), http.MethodGet, "/api/analyses/abc", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name        string
		archive     Pinger
		wantStatus  int
		wantArchive string
	}{
		{name: "no archive", archive: nil, wantStatus: http.StatusOK, wantArchive: "disabled"},
		{name: "archive up", archive: fakePinger{}, wantStatus: http.StatusOK, wantArchive: "ok"},
		{name: "archive down", archive: fakePinger{err: errors.New("refused")}, wantStatus: http.StatusServiceUnavailable, wantArchive: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(&fakeProofService{}, tt.archive), http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantArchive, decode(t, rec)["archive"])
		})
	}
}

func TestModels(t *testing.T) {
	rec := do(t, newTestRouter(&fakeProofService{}, nil), http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ModelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, config.DefaultModel, body.DefaultModel)
	assert.Equal(t, 5, body.FanOutCap)
	assert.True(t, body.Providers["openai"])
	assert.False(t, body.Providers["anthropic"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(&fakeProofService{}, nil)
	do(t, h, http.MethodGet, "/", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "prooftree_http_requests_total")
}

type rejectingVerifier struct{}

func (rejectingVerifier) VerifyToken(string) (*jwt.RegisteredClaims, error) {
	return nil, domain.ErrUnauthorized
}
func (rejectingVerifier) Close() error { return nil }

func TestRouterAuthCoversOnlyAPIRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	h := NewRouter(RouterConfig{
		Proof:    NewProofHandler(&fakeProofService{}, cfg, logger),
		Health:   NewHealthHandler(nil, logger),
		Models:   NewModelsHandler(cfg, staticProviders{}),
		Verifier: rejectingVerifier{},
		Logger:   logger,
	})

	tests := []struct {
		method string
		target string
		want   int
	}{
		{method: http.MethodGet, target: "/", want: http.StatusOK},
		{method: http.MethodGet, target: "/health", want: http.StatusOK},
		{method: http.MethodGet, target: "/metrics", want: http.StatusOK},
		{method: http.MethodPost, target: "/theorem-proof", want: http.StatusUnauthorized},
		{method: http.MethodPost, target: "/parse-theorem-tree", want: http.StatusUnauthorized},
		{method: http.MethodGet, target: "/api/models", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, h, tt.method, tt.target, "").Code)
		})
	}
}
