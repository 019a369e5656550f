package repositories

import (
	"context"

	"prooftree/internal/domain/models/proof"
)

// AnalysisRepository archives completed tree analyses.
type AnalysisRepository interface {
	// Save stores the analysis under its AnalysisID
	Save(ctx context.Context, analysis *proof.TreeAnalysis) error

	// Get returns domain.ErrNotFound when no analysis has the id
	Get(ctx context.Context, id string) (*proof.TreeAnalysis, error)

	// Ping checks the backing store is reachable
	Ping(ctx context.Context) error
}
