package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/platform/obs"
)

// Postgres-backed implementation of the DatasetRepository port.
// Each dataset lives in its own table as one JSONB document per row; the
// serial id preserves upload order.
type PostgresDatasetRepository struct{ DB *sql.DB }

func NewPostgresDatasetRepository(db *sql.DB) *PostgresDatasetRepository {
	return &PostgresDatasetRepository{DB: db}
}

func (p *PostgresDatasetRepository) ListAgentRows(ctx context.Context) (_ []domain.Row, err error) {
	defer obs.Time(ctx, "datasets.ListAgentRows")(&err)
	return p.listRows(ctx, "agents")
}

func (p *PostgresDatasetRepository) ListCaseRows(ctx context.Context) (_ []domain.Row, err error) {
	defer obs.Time(ctx, "datasets.ListCaseRows")(&err)
	return p.listRows(ctx, "cases")
}

// ReplaceAgentRows swaps the stored agent dataset for rows.
func (p *PostgresDatasetRepository) ReplaceAgentRows(ctx context.Context, rows []domain.Row) error {
	return p.replaceRows(ctx, "agents", rows)
}

// ReplaceCaseRows swaps the stored case dataset for rows.
func (p *PostgresDatasetRepository) ReplaceCaseRows(ctx context.Context, rows []domain.Row) error {
	return p.replaceRows(ctx, "cases", rows)
}

// table is always one of the constants above, never caller input.
func (p *PostgresDatasetRepository) listRows(ctx context.Context, table string) ([]domain.Row, error) {
	if p.DB == nil {
		return nil, errors.New("dataset repository: DB is nil")
	}

	query := fmt.Sprintf(`
	SELECT data
	FROM %s
	ORDER BY id;
	`, table)
	rows, err := p.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: query: %w", table, err)
	}
	defer rows.Close()

	out := make([]domain.Row, 0, 64)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("list %s: scan row: %w", table, err)
		}

		var r domain.Row
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("list %s: decode row: %w", table, err)
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: row iteration: %w", table, err)
	}

	return out, nil
}

func (p *PostgresDatasetRepository) replaceRows(ctx context.Context, table string, rows []domain.Row) error {
	if p.DB == nil {
		return errors.New("dataset repository: DB is nil")
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace %s: begin tx: %w", table, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY;", table)); err != nil {
		return fmt.Errorf("replace %s: truncate: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (data) VALUES ($1);", table))
	if err != nil {
		return fmt.Errorf("replace %s: prepare insert: %w", table, err)
	}
	defer stmt.Close()

	for i, r := range rows {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("replace %s: encode row %d: %w", table, i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, b); err != nil {
			return fmt.Errorf("replace %s: insert row %d: %w", table, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace %s: commit tx: %w", table, err)
	}

	return nil
}
