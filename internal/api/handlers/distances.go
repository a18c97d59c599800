package handlers

import (
	"fos-allocation-service/internal/api/dto"
	"fos-allocation-service/internal/services"
	"net/http"
)

// Distances adds the great-circle distance between each row's case and agent.
func Distances(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.RowsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rows, dropped, err := services.CalculatePairDistances(req.Rows)
	if err != nil {
		writeServiceError(w, r, "calculate distances", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DistancesResponse{Rows: rows, Dropped: dropped})
}
