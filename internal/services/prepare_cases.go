package services

import (
	"fmt"
	"fos-allocation-service/internal/domain"
	"maps"
	"strings"
)

const (
	// ColMaskedLoanNumber holds the display form of LoanNo/CC.
	ColMaskedLoanNumber = "Masked_LoanNo/CC"
	// InitialStatus is given to cases that have never been through a run.
	InitialStatus = "unAssigned0"

	maskedLength  = 10
	visibleDigits = 6
)

type PrepareCasesRequest struct {
	Rows []domain.Row
	// LoanColumn names the column holding the loan number; it is renamed to
	// LoanNo/CC. Empty means the rows already use LoanNo/CC.
	LoanColumn string
	// Columns, when set, is the exact output layout. Missing columns are null.
	Columns []string
}

// MaskLoanNumber keeps the last six characters of a loan number behind a
// fixed "xxxx" prefix, so every masked value is at most ten characters.
func MaskLoanNumber(loan string) string {
	loan = strings.TrimSpace(loan)
	if len(loan) > visibleDigits {
		loan = loan[len(loan)-visibleDigits:]
	}
	return strings.Repeat("x", maskedLength-visibleDigits) + loan
}

// PrepareCases turns a raw case sheet into one the allocator accepts: the
// loan column becomes LoanNo/CC, Masked_LoanNo/CC is derived from it, and
// rows without a status start at unAssigned0. Input rows are not modified.
func PrepareCases(req PrepareCasesRequest) ([]domain.Row, error) {
	loanCol := strings.TrimSpace(req.LoanColumn)
	if loanCol == "" {
		loanCol = ColLoanNumber
	}
	if len(req.Rows) > 0 && !HasColumn(req.Rows, loanCol) {
		return nil, fmt.Errorf("prepare cases: %w", domain.Invalidf("column %q not found", loanCol))
	}

	out := make([]domain.Row, 0, len(req.Rows))
	for _, r := range req.Rows {
		row := maps.Clone(r)
		if row == nil {
			row = domain.Row{}
		}

		if loanCol != ColLoanNumber {
			row[ColLoanNumber] = row[loanCol]
			delete(row, loanCol)
		}
		row[ColMaskedLoanNumber] = MaskLoanNumber(FormatValue(row[ColLoanNumber]))

		if strings.TrimSpace(FormatValue(row[ColStatus])) == "" {
			row[ColStatus] = InitialStatus
		}

		if len(req.Columns) > 0 {
			shaped := make(domain.Row, len(req.Columns))
			for _, col := range req.Columns {
				shaped[col] = row[col]
			}
			row = shaped
		}
		out = append(out, row)
	}

	return out, nil
}
