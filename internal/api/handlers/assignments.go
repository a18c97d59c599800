package handlers

import (
	"crypto/subtle"
	"fos-allocation-service/internal/api/dto"
	"fos-allocation-service/internal/ports"
	"fos-allocation-service/internal/services"
	"net/http"
	"time"
)

const resolveTokenHeader = "X-Resolve-Token"

type AssignmentHandler struct {
	Store ports.AssignmentStore
	Now   func() time.Time

	Resolver ports.LoanResolver
	// ResolveToken guards Resolve; empty disables the endpoint.
	ResolveToken string
}

// Commit persists the assignment rows a dispatcher accepted from a run.
func (h *AssignmentHandler) Commit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.Store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "assignment storage is not configured")
		return
	}

	var req dto.CommitAssignmentsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	n, err := services.CommitAssignments(r.Context(), services.CommitRequest{
		RunID: req.RunID,
		Rows:  req.Rows,
		Now:   h.Now,
	}, h.Store)
	if err != nil {
		writeServiceError(w, r, "commit assignments", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.CommitAssignmentsResponse{RunID: req.RunID, Stored: n})
}

// Resolve closes the stored assignments of repaid loans.
func (h *AssignmentHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.Resolver == nil || h.ResolveToken == "" {
		writeError(w, r, http.StatusServiceUnavailable, "loan resolution is not configured")
		return
	}
	token := r.Header.Get(resolveTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.ResolveToken)) != 1 {
		writeError(w, r, http.StatusUnauthorized, "invalid resolve token")
		return
	}

	var req dto.ResolveLoansRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := services.ResolveLoans(r.Context(), services.ResolveLoansRequest{
		Rows:       req.Rows,
		LoanColumn: req.LoanColumn,
	}, h.Resolver)
	if err != nil {
		writeServiceError(w, r, "resolve loans", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ResolveLoansResponse{
		ProcessedLoanNumbers: res.Processed,
		MatchingCases:        res.Matched,
		UpdatedDocuments:     res.Updated,
	})
}
