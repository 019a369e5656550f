package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"prooftree/internal/config"
	proofSvc "prooftree/internal/domain/services/proof"
	"prooftree/internal/httputil"
	"prooftree/internal/service/proof"
)

// ProofHandler serves decomposition and analysis requests.
type ProofHandler struct {
	svc    proofSvc.ProofService
	cfg    *config.Config
	logger *slog.Logger
}

// NewProofHandler creates a new proof handler
func NewProofHandler(svc proofSvc.ProofService, cfg *config.Config, logger *slog.Logger) *ProofHandler {
	return &ProofHandler{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
}

// parseTreeRequest is the body of POST /parse-theorem-tree.
type parseTreeRequest struct {
	Theorem   string         `json:"theorem"`
	ProofTree map[string]any `json:"proof_tree"`
}

// Root returns the welcome message
// GET /
func (h *ProofHandler) Root(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the minimal API demo",
	})
}

// TheoremProof decomposes a theorem into a proof tree
// POST /theorem-proof?parse_tree=bool
func (h *ProofHandler) TheoremProof(w http.ResponseWriter, r *http.Request) {
	analyze, err := httputil.QueryBool(r, "parse_tree", false)
	if err != nil {
		handleError(w, err)
		return
	}

	// Fields absent from the body keep these defaults
	req := proof.NewTheoremRequest("", h.cfg)
	if err := httputil.ParseJSON(w, r, req); err != nil {
		handleError(w, err)
		return
	}
	req.Analyze = analyze

	result, err := h.svc.DecomposeTheorem(r.Context(), req)
	if err != nil {
		h.logger.Warn("theorem decomposition failed",
			"subject", httputil.Subject(r),
			"model", req.Model,
			"parse_tree", analyze,
			"error", err,
		)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ParseTheoremTree analyzes and validates a caller-supplied tree
// POST /parse-theorem-tree
//
// Each nodes_with_assumptions entry is an object
// {"node": {...}, "assumptions": [{...}, ...]}, not a [node, assumptions] pair.
func (h *ProofHandler) ParseTheoremTree(w http.ResponseWriter, r *http.Request) {
	var req parseTreeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	analysis, err := h.svc.AnalyzeTree(r.Context(), &proofSvc.AnalyzeRequest{
		Theorem:   req.Theorem,
		ProofTree: req.ProofTree,
		Validate:  true,
	})
	if err != nil {
		h.logger.Warn("tree analysis failed",
			"subject", httputil.Subject(r),
			"error", err,
		)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, analysis)
}

// GetAnalysis returns an archived analysis
// GET /api/analyses/{id}
func (h *ProofHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	analysis, err := h.svc.GetAnalysis(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, analysis)
}
