package ports

import (
	"context"
	"fos-allocation-service/internal/domain"
)

// Port: a boundary for retrieving the stored agent and case datasets.
// Rows are returned in their stored order; the engine's tie-breaks depend on it.
type DatasetRepository interface {
	ListAgentRows(ctx context.Context) ([]domain.Row, error)
	ListCaseRows(ctx context.Context) ([]domain.Row, error)
}

// Port: replaces a stored dataset wholesale.
type DatasetWriter interface {
	ReplaceAgentRows(ctx context.Context, rows []domain.Row) error
	ReplaceCaseRows(ctx context.Context, rows []domain.Row) error
}
