package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"prooftree/internal/domain"
	"prooftree/internal/domain/models/proof"
	"prooftree/internal/domain/repositories"
)

// analysisDB is satisfied by *pgxpool.Pool.
type analysisDB interface {
	repositories.DBTX
	Ping(ctx context.Context) error
}

// PostgresAnalysisRepository stores analyses as JSONB documents with a few
// summary columns for querying.
type PostgresAnalysisRepository struct {
	db     analysisDB
	tables *TableNames
	logger *slog.Logger
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(config *RepositoryConfig) *PostgresAnalysisRepository {
	return newAnalysisRepository(config.Pool, config.Tables, config.Logger)
}

func newAnalysisRepository(db analysisDB, tables *TableNames, logger *slog.Logger) *PostgresAnalysisRepository {
	return &PostgresAnalysisRepository{
		db:     db,
		tables: tables,
		logger: logger,
	}
}

// EnsureSchema creates the analyses table when it does not exist.
func (r *PostgresAnalysisRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          UUID PRIMARY KEY,
			theorem     TEXT NOT NULL,
			node_count  INTEGER NOT NULL,
			leaf_count  INTEGER NOT NULL,
			max_depth   INTEGER NOT NULL,
			analysis    JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)
	`, r.tables.Analyses)

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", r.tables.Analyses, err)
	}

	r.logger.Debug("analysis table ready", "table", r.tables.Analyses)
	return nil
}

// Save inserts the analysis. Saving the same id twice is a conflict.
func (r *PostgresAnalysisRepository) Save(ctx context.Context, analysis *proof.TreeAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, theorem, node_count, leaf_count, max_depth, analysis, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
	`, r.tables.Analyses)

	_, err = r.db.Exec(ctx, query,
		analysis.AnalysisID,
		analysis.Theorem,
		analysis.NodeCount,
		analysis.LeafCount,
		analysis.MaxDepth,
		string(data),
		analysis.CreatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == uniqueViolation {
			return fmt.Errorf("analysis %s already archived: %w", analysis.AnalysisID, domain.ErrValidation)
		}
		return fmt.Errorf("save analysis: %w", err)
	}

	return nil
}

// Get retrieves an analysis by id
func (r *PostgresAnalysisRepository) Get(ctx context.Context, id string) (*proof.TreeAnalysis, error) {
	query := fmt.Sprintf(`
		SELECT analysis
		FROM %s
		WHERE id = $1
	`, r.tables.Analyses)

	var data []byte
	if err := r.db.QueryRow(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	var analysis proof.TreeAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	return &analysis, nil
}

// Ping checks the database is reachable
func (r *PostgresAnalysisRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
