package dto

import "fos-allocation-service/internal/domain"

type ColumnFilter struct {
	Column string `json:"column"`
	Values []any  `json:"values"`
}

// AllocationRequest carries both datasets inline. MaxCases is left untyped so
// numeric strings from spreadsheet front ends are accepted too.
type AllocationRequest struct {
	Agents       []domain.Row   `json:"agents"`
	Cases        []domain.Row   `json:"cases"`
	MaxCases     any            `json:"max_cases"`
	AgentFilters []ColumnFilter `json:"agent_filters"`
	CaseFilters  []ColumnFilter `json:"case_filters"`
}

// StoredAllocationRequest runs over the datasets already held by the service.
type StoredAllocationRequest struct {
	MaxCases     any            `json:"max_cases"`
	AgentFilters []ColumnFilter `json:"agent_filters"`
	CaseFilters  []ColumnFilter `json:"case_filters"`
}

type AgentMarker struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"long"`
	Name string  `json:"name"`
}

type CaseMarker struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"long"`
	Address string  `json:"Cus_Add"`
}

type MapData struct {
	CenterLat      float64       `json:"center_lat"`
	CenterLon      float64       `json:"center_long"`
	AgentLocations []AgentMarker `json:"fos_locations"`
	CaseLocations  []CaseMarker  `json:"case_locations"`
}

type AllocationStats struct {
	Agents        int `json:"agents"`
	Cases         int `json:"cases"`
	DroppedAgents int `json:"dropped_agents"`
	DroppedCases  int `json:"dropped_cases"`
	Assigned      int `json:"assigned"`
	Excluded      int `json:"excluded"`
	Deferred      int `json:"deferred"`
}

type AllocationResponse struct {
	RunID       string          `json:"run_id"`
	Assignments []domain.Row    `json:"fos_assignments"`
	Excluded    []domain.Row    `json:"excluded_cases"`
	Map         MapData         `json:"map_data"`
	Stats       AllocationStats `json:"stats"`
}

type CommitAssignmentsRequest struct {
	RunID string       `json:"run_id"`
	Rows  []domain.Row `json:"rows"`
}

type CommitAssignmentsResponse struct {
	RunID  string `json:"run_id"`
	Stored int    `json:"stored"`
}
