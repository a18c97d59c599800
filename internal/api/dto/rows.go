package dto

import "fos-allocation-service/internal/domain"

// RowsRequest is the body shared by the row-oriented endpoints.
type RowsRequest struct {
	Rows []domain.Row `json:"rows"`
}

type DistancesResponse struct {
	Rows    []domain.Row `json:"rows"`
	Dropped int          `json:"dropped"`
}

type GeocodeResponse struct {
	Rows      []domain.Row `json:"rows"`
	Requested int          `json:"requested"`
	FromCache int          `json:"from_cache"`
	Resolved  int          `json:"resolved"`
	NotFound  int          `json:"not_found"`
	Exhausted bool         `json:"exhausted"`
}

type DatasetResponse struct {
	Dataset string `json:"dataset"`
	Rows    int    `json:"rows"`
}

type PrepareCasesRequest struct {
	Rows       []domain.Row `json:"rows"`
	LoanColumn string       `json:"loan_column"`
	Columns    []string     `json:"columns"`
	// Store replaces the stored case dataset with the prepared rows.
	Store bool `json:"store"`
}

type PrepareCasesResponse struct {
	Rows   []domain.Row `json:"rows"`
	Stored bool         `json:"stored"`
}

type ColumnsResponse struct {
	Dataset string   `json:"dataset"`
	Columns []string `json:"columns"`
}

type ColumnValuesResponse struct {
	Dataset string `json:"dataset"`
	Column  string `json:"column"`
	Values  []any  `json:"values"`
}

type ResolveLoansRequest struct {
	Rows       []domain.Row `json:"rows"`
	LoanColumn string       `json:"loan_column"`
}

type ResolveLoansResponse struct {
	ProcessedLoanNumbers int `json:"processed_loan_numbers"`
	MatchingCases        int `json:"matching_cases"`
	UpdatedDocuments     int `json:"updated_documents"`
}
