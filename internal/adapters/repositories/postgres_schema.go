package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"fos-allocation-service/internal/domain"
	"os"
)

// Initialize the Postgres schema. Statements are idempotent.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createAgentsQuery := `
	CREATE TABLE IF NOT EXISTS agents (
		id BIGSERIAL PRIMARY KEY,
		data JSONB NOT NULL
	);
	`

	createCasesQuery := `
	CREATE TABLE IF NOT EXISTS cases (
		id BIGSERIAL PRIMARY KEY,
		data JSONB NOT NULL
	);
	`

	createAssignmentsQuery := `
	CREATE TABLE IF NOT EXISTS assignments (
		id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		data JSONB NOT NULL,
		assigned_at TIMESTAMPTZ NOT NULL
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_assignments_run_id
	ON assignments(run_id);
	`

	createLoanIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_assignments_loan_no
	ON assignments ((data->>'LoanNo/CC'));
	`

	statements := []string{
		createAgentsQuery,
		createCasesQuery,
		createAssignmentsQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
		createLoanIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// DatasetSeed is the layout of the seed file: both spreadsheets as JSON rows.
type DatasetSeed struct {
	Agents []domain.Row `json:"agents"`
	Cases  []domain.Row `json:"cases"`
}

// Replace the stored datasets with the contents of a JSON seed file.
func SeedFromJSON(ctx context.Context, repo *PostgresDatasetRepository, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed datasets: read %q: %w", jsonPath, err)
	}

	var seed DatasetSeed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return fmt.Errorf("seed datasets: parse json: %w", err)
	}

	if err := repo.ReplaceAgentRows(ctx, seed.Agents); err != nil {
		return fmt.Errorf("seed datasets: %w", err)
	}
	if err := repo.ReplaceCaseRows(ctx, seed.Cases); err != nil {
		return fmt.Errorf("seed datasets: %w", err)
	}

	return nil
}
