package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prooftree/internal/auth"
	"prooftree/internal/middleware"
)

// RouterConfig collects the handlers and options of the HTTP API.
type RouterConfig struct {
	Proof  *ProofHandler
	Health *HealthHandler
	Models *ModelsHandler

	// Verifier enables bearer-token auth on the API routes when non-nil
	Verifier auth.JWTVerifier

	// ArchiveEnabled registers GET /api/analyses/{id}
	ArchiveEnabled bool

	// RequestTimeout bounds decomposition and analysis requests
	RequestTimeout time.Duration

	Logger *slog.Logger
}

// NewRouter builds the chi router.
//
// Order: RequestID → RealIP → Recovery → Metrics → [Auth → Timeout] → routes
func NewRouter(rc RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(rc.Logger))
	r.Use(middleware.Metrics)

	// Public routes
	r.Get("/", rc.Proof.Root)
	r.Get("/health", rc.Health.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if rc.Verifier != nil {
			r.Use(middleware.Auth(rc.Verifier, rc.Logger))
		}
		if rc.RequestTimeout > 0 {
			r.Use(chimw.Timeout(rc.RequestTimeout))
		}

		r.Post("/theorem-proof", rc.Proof.TheoremProof)
		r.Post("/parse-theorem-tree", rc.Proof.ParseTheoremTree)
		r.Get("/api/models", rc.Models.GetModels)

		if rc.ArchiveEnabled {
			r.Get("/api/analyses/{id}", rc.Proof.GetAnalysis)
		}
	})

	return r
}
