package handlers

import (
	"context"
	"fos-allocation-service/internal/api/dto"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/ports"
	"fos-allocation-service/internal/services"
	"net/http"
	"strings"
)

type DatasetHandler struct {
	Repo  ports.DatasetRepository
	Store ports.DatasetWriter
}

func (h *DatasetHandler) ReplaceAgents(w http.ResponseWriter, r *http.Request) {
	h.replace(w, r, "agents", func(ctx context.Context, rows []domain.Row) error {
		return h.Store.ReplaceAgentRows(ctx, rows)
	})
}

func (h *DatasetHandler) ReplaceCases(w http.ResponseWriter, r *http.Request) {
	h.replace(w, r, "cases", func(ctx context.Context, rows []domain.Row) error {
		return h.Store.ReplaceCaseRows(ctx, rows)
	})
}

func (h *DatasetHandler) replace(
	w http.ResponseWriter,
	r *http.Request,
	dataset string,
	save func(context.Context, []domain.Row) error,
) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	if h.Store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "dataset storage is not configured")
		return
	}

	var req dto.RowsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Rows == nil {
		writeError(w, r, http.StatusBadRequest, "rows is required")
		return
	}

	if err := save(r.Context(), req.Rows); err != nil {
		writeServiceError(w, r, "replace "+dataset, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DatasetResponse{Dataset: dataset, Rows: len(req.Rows)})
}

// PrepareCases masks loan numbers and seeds missing statuses so a raw case
// sheet can be allocated. With store set the result replaces the stored cases.
func (h *DatasetHandler) PrepareCases(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.PrepareCasesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Store && h.Store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "dataset storage is not configured")
		return
	}

	rows, err := services.PrepareCases(services.PrepareCasesRequest{
		Rows:       req.Rows,
		LoanColumn: req.LoanColumn,
		Columns:    req.Columns,
	})
	if err != nil {
		writeServiceError(w, r, "prepare cases", err)
		return
	}

	if req.Store {
		if err := h.Store.ReplaceCaseRows(r.Context(), rows); err != nil {
			writeServiceError(w, r, "prepare cases", err)
			return
		}
	}

	writeJSON(w, r, http.StatusOK, dto.PrepareCasesResponse{Rows: rows, Stored: req.Store})
}

func (h *DatasetHandler) AgentColumns(w http.ResponseWriter, r *http.Request) {
	h.columns(w, r, "agents", h.listAgents)
}

func (h *DatasetHandler) CaseColumns(w http.ResponseWriter, r *http.Request) {
	h.columns(w, r, "cases", h.listCases)
}

func (h *DatasetHandler) AgentColumnValues(w http.ResponseWriter, r *http.Request) {
	h.columnValues(w, r, "agents", h.listAgents)
}

func (h *DatasetHandler) CaseColumnValues(w http.ResponseWriter, r *http.Request) {
	h.columnValues(w, r, "cases", h.listCases)
}

func (h *DatasetHandler) listAgents(ctx context.Context) ([]domain.Row, error) {
	return h.Repo.ListAgentRows(ctx)
}

func (h *DatasetHandler) listCases(ctx context.Context) ([]domain.Row, error) {
	return h.Repo.ListCaseRows(ctx)
}

// columns lists the filterable columns of a stored dataset.
func (h *DatasetHandler) columns(
	w http.ResponseWriter,
	r *http.Request,
	dataset string,
	list func(context.Context) ([]domain.Row, error),
) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if h.Repo == nil {
		writeError(w, r, http.StatusServiceUnavailable, "dataset storage is not configured")
		return
	}

	rows, err := list(r.Context())
	if err != nil {
		writeServiceError(w, r, "list "+dataset+" columns", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ColumnsResponse{Dataset: dataset, Columns: services.ListColumns(rows)})
}

// columnValues lists the distinct values of ?column= in a stored dataset.
func (h *DatasetHandler) columnValues(
	w http.ResponseWriter,
	r *http.Request,
	dataset string,
	list func(context.Context) ([]domain.Row, error),
) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if h.Repo == nil {
		writeError(w, r, http.StatusServiceUnavailable, "dataset storage is not configured")
		return
	}

	column := strings.TrimSpace(r.URL.Query().Get("column"))
	if column == "" {
		writeError(w, r, http.StatusBadRequest, "column is required")
		return
	}

	rows, err := list(r.Context())
	if err != nil {
		writeServiceError(w, r, "list "+dataset+" column values", err)
		return
	}

	values, err := services.ColumnValues(rows, column)
	if err != nil {
		writeServiceError(w, r, "list "+dataset+" column values", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ColumnValuesResponse{Dataset: dataset, Column: column, Values: values})
}
