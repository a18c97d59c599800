package ports

import (
	"context"
	"fos-allocation-service/internal/domain"
	"time"
)

// Port: persists accepted assignment rows for a run.
type AssignmentStore interface {
	// Save rows stamped with assignedAt and return how many were stored.
	SaveAssignments(ctx context.Context, runID string, rows []domain.Row, assignedAt time.Time) (int, error)
}

// Port: closes stored assignments whose loans have been repaid.
type LoanResolver interface {
	// ResolveLoans marks assignments for the given loan numbers resolved and
	// reports how many matched and how many actually changed.
	ResolveLoans(ctx context.Context, loanNumbers []string) (matched, updated int, err error)
}
