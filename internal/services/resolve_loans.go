package services

import (
	"context"
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/platform/obs"
	"fos-allocation-service/internal/ports"
	"log"
	"strings"
)

type ResolveLoansRequest struct {
	Rows []domain.Row
	// LoanColumn names the column holding repaid loan numbers.
	LoanColumn string
}

type ResolveLoansResult struct {
	Processed int
	Matched   int
	Updated   int
}

// ResolveLoans closes the stored assignments of every distinct loan number
// found in LoanColumn. Blank cells are ignored; a sheet with no loan numbers
// is rejected.
func ResolveLoans(ctx context.Context, req ResolveLoansRequest, resolver ports.LoanResolver) (_ ResolveLoansResult, err error) {
	defer obs.Time(ctx, "loans.resolve")(&err)

	col := strings.TrimSpace(req.LoanColumn)
	if col == "" {
		return ResolveLoansResult{}, domain.Invalidf("resolve loans: loan_column is required")
	}
	if !HasColumn(req.Rows, col) {
		return ResolveLoansResult{}, domain.Invalidf("resolve loans: column %q not found", col)
	}

	loans := make([]string, 0, len(req.Rows))
	seen := make(map[string]struct{}, len(req.Rows))
	for _, r := range req.Rows {
		loan := strings.TrimSpace(FormatValue(r[col]))
		if loan == "" {
			continue
		}
		if _, ok := seen[loan]; ok {
			continue
		}
		seen[loan] = struct{}{}
		loans = append(loans, loan)
	}
	if len(loans) == 0 {
		return ResolveLoansResult{}, domain.Invalidf("resolve loans: no loan numbers found in column %q", col)
	}

	matched, updated, err := resolver.ResolveLoans(ctx, loans)
	if err != nil {
		return ResolveLoansResult{}, fmt.Errorf("resolve loans: %w", err)
	}

	log.Printf("req_id=%s loans=%d matched=%d updated=%d", obs.RequestID(ctx), len(loans), matched, updated)
	return ResolveLoansResult{Processed: len(loans), Matched: matched, Updated: updated}, nil
}
