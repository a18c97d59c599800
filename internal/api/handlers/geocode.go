package handlers

import (
	"fos-allocation-service/internal/api/dto"
	"fos-allocation-service/internal/ports"
	"fos-allocation-service/internal/services"
	"net/http"
)

type GeocodeHandler struct {
	Geocoder ports.Geocoder
	Cache    ports.GeocodeCache
}

// Geocode resolves Cus_Add for rows that have no usable coordinates.
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.Geocoder == nil {
		writeError(w, r, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}

	var req dto.RowsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rows, stats, err := services.GeocodeRows(r.Context(), req.Rows, h.Geocoder, h.Cache)
	if err != nil {
		writeServiceError(w, r, "geocode", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.GeocodeResponse{
		Rows:      rows,
		Requested: stats.Requested,
		FromCache: stats.FromCache,
		Resolved:  stats.Resolved,
		NotFound:  stats.NotFound,
		Exhausted: stats.Exhausted,
	})
}
