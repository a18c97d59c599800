package handlers

import (
	"fos-allocation-service/internal/api/dto"
	"fos-allocation-service/internal/ports"
	"fos-allocation-service/internal/services"
	"net/http"
)

type AllocationHandler struct {
	Datasets ports.DatasetRepository
	// DefaultMaxCases applies when a request omits max_cases; 0 makes it required.
	DefaultMaxCases int
}

// Allocate assigns the inline case rows to the inline agent rows.
func (h *AllocationHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.AllocationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	maxCases, err := h.maxCases(req.MaxCases)
	if err != nil {
		writeServiceError(w, r, "allocate", err)
		return
	}

	res, err := services.Allocate(r.Context(), services.AllocateRequest{
		Agents:       req.Agents,
		Cases:        req.Cases,
		MaxCases:     maxCases,
		AgentFilters: toFilters(req.AgentFilters),
		CaseFilters:  toFilters(req.CaseFilters),
	})
	if err != nil {
		writeServiceError(w, r, "allocate", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAllocationResponse(res))
}

// AllocateStored runs the same allocation over the stored datasets.
func (h *AllocationHandler) AllocateStored(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.Datasets == nil {
		writeError(w, r, http.StatusServiceUnavailable, "dataset storage is not configured")
		return
	}

	var req dto.StoredAllocationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	maxCases, err := h.maxCases(req.MaxCases)
	if err != nil {
		writeServiceError(w, r, "allocate stored", err)
		return
	}

	res, err := services.AllocateStored(r.Context(), services.AllocateRequest{
		MaxCases:     maxCases,
		AgentFilters: toFilters(req.AgentFilters),
		CaseFilters:  toFilters(req.CaseFilters),
	}, h.Datasets)
	if err != nil {
		writeServiceError(w, r, "allocate stored", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAllocationResponse(res))
}

func (h *AllocationHandler) maxCases(v any) (int, error) {
	if v == nil && h.DefaultMaxCases > 0 {
		return h.DefaultMaxCases, nil
	}
	return services.ParseCapacity(v)
}

func toFilters(in []dto.ColumnFilter) []services.ColumnFilter {
	out := make([]services.ColumnFilter, 0, len(in))
	for _, f := range in {
		out = append(out, services.ColumnFilter{Column: f.Column, Values: f.Values})
	}
	return out
}

func toAllocationResponse(res *services.AllocateResult) dto.AllocationResponse {
	m := dto.MapData{
		CenterLat:      res.Map.CenterLat,
		CenterLon:      res.Map.CenterLon,
		AgentLocations: make([]dto.AgentMarker, 0, len(res.Map.Agents)),
		CaseLocations:  make([]dto.CaseMarker, 0, len(res.Map.Cases)),
	}
	for _, a := range res.Map.Agents {
		m.AgentLocations = append(m.AgentLocations, dto.AgentMarker{Lat: a.Lat, Lon: a.Lon, Name: a.Name})
	}
	for _, c := range res.Map.Cases {
		m.CaseLocations = append(m.CaseLocations, dto.CaseMarker{Lat: c.Lat, Lon: c.Lon, Address: c.Address})
	}

	return dto.AllocationResponse{
		RunID:       res.RunID,
		Assignments: res.Assignments,
		Excluded:    res.Excluded,
		Map:         m,
		Stats: dto.AllocationStats{
			Agents:        res.Stats.Agents,
			Cases:         res.Stats.Cases,
			DroppedAgents: res.Stats.DroppedAgents,
			DroppedCases:  res.Stats.DroppedCases,
			Assigned:      res.Stats.Assigned,
			Excluded:      res.Stats.Excluded,
			Deferred:      res.Stats.Deferred,
		},
	}
}
