package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/platform/obs"
	"time"
)

// Postgres-backed implementation of the AssignmentStore port.
type PostgresAssignmentStore struct{ DB *sql.DB }

func NewPostgresAssignmentStore(db *sql.DB) *PostgresAssignmentStore {
	return &PostgresAssignmentStore{DB: db}
}

// SaveAssignments inserts every row in one transaction. The stored document
// also carries assignedTimestamp so exports need no join.
func (p *PostgresAssignmentStore) SaveAssignments(
	ctx context.Context,
	runID string,
	rows []domain.Row,
	assignedAt time.Time,
) (_ int, err error) {
	defer obs.Time(ctx, "assignments.SaveAssignments")(&err)

	if p.DB == nil {
		return 0, errors.New("assignment store: DB is nil")
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save assignments: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO assignments (run_id, data, assigned_at)
	VALUES ($1, $2, $3);
	`)
	if err != nil {
		return 0, fmt.Errorf("save assignments: prepare insert: %w", err)
	}
	defer stmt.Close()

	stamp := assignedAt.Format(time.RFC3339)
	for i, r := range rows {
		doc := make(domain.Row, len(r)+1)
		for k, v := range r {
			doc[k] = v
		}
		doc["assignedTimestamp"] = stamp

		b, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("save assignments: encode row %d: %w", i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, b, assignedAt); err != nil {
			return 0, fmt.Errorf("save assignments: insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save assignments: commit tx: %w", err)
	}

	return len(rows), nil
}

// ResolveLoans closes every stored assignment whose LoanNo/CC is listed.
// Rows already resolved count as matched but not updated.
func (p *PostgresAssignmentStore) ResolveLoans(ctx context.Context, loanNumbers []string) (matched, updated int, err error) {
	defer obs.Time(ctx, "assignments.ResolveLoans")(&err)

	if p.DB == nil {
		return 0, 0, errors.New("assignment store: DB is nil")
	}
	if len(loanNumbers) == 0 {
		return 0, 0, nil
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve loans: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	countQuery := `
	SELECT count(*)
	FROM assignments
	WHERE data->>'LoanNo/CC' = ANY($1::text[]);
	`
	if err := tx.QueryRowContext(ctx, countQuery, loanNumbers).Scan(&matched); err != nil {
		return 0, 0, fmt.Errorf("resolve loans: count matches: %w", err)
	}
	if matched == 0 {
		return 0, 0, nil
	}

	updateQuery := `
	UPDATE assignments
	SET data = data || jsonb_build_object('caseStatus', $2::text, 'acceptanceStatus', $3::text)
	WHERE data->>'LoanNo/CC' = ANY($1::text[])
	  AND (data->>'caseStatus' IS DISTINCT FROM $2::text
	    OR data->>'acceptanceStatus' IS DISTINCT FROM $3::text);
	`
	res, err := tx.ExecContext(ctx, updateQuery, loanNumbers, domain.CaseStatusClosed, domain.AcceptanceResolved)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve loans: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("resolve loans: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("resolve loans: commit tx: %w", err)
	}

	return matched, int(n), nil
}
