package services

import (
	"context"
	"errors"
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/platform/metrics"
	"fos-allocation-service/internal/platform/obs"
	"fos-allocation-service/internal/ports"
	"log"
	"time"

	"github.com/google/uuid"
)

type AllocateRequest struct {
	Agents       []domain.Row
	Cases        []domain.Row
	MaxCases     int
	AgentFilters []ColumnFilter
	CaseFilters  []ColumnFilter
}

type AllocationStats struct {
	Agents        int
	Cases         int
	DroppedAgents int
	DroppedCases  int
	Assigned      int
	Excluded      int
	Deferred      int
}

type AllocateResult struct {
	RunID       string
	Assignments []domain.Row
	Excluded    []domain.Row
	Map         domain.MapSummary
	Stats       AllocationStats
}

// Allocate prepares both datasets and runs the assignment engine.
//
// Preparation projects each dataset to its known columns, applies the
// caller's filters, drops rows without numeric coordinates and keeps only
// unassigned cases. Validation failures are returned before any assignment
// work starts and wrap domain.ErrValidation.
func Allocate(ctx context.Context, req AllocateRequest) (_ *AllocateResult, err error) {
	defer obs.Time(ctx, "allocate")(&err)
	start := time.Now()
	defer func() {
		switch {
		case errors.Is(err, domain.ErrValidation):
			metrics.ObserveAllocation("invalid", 0, 0, 0, time.Since(start))
		case err != nil:
			metrics.ObserveAllocation("error", 0, 0, 0, time.Since(start))
		}
	}()

	if req.MaxCases <= 0 {
		return nil, domain.Invalidf("allocate: max_cases must be a number greater than 0 (got %d)", req.MaxCases)
	}

	agentRows, err := ApplyFilters(ProjectColumns(req.Agents, AgentColumns), req.AgentFilters)
	if err != nil {
		return nil, fmt.Errorf("allocate: agent filters: %w", err)
	}
	if len(agentRows) == 0 && len(req.Agents) > 0 {
		return nil, domain.Invalidf("allocate: no agents match the filters")
	}
	caseRows, err := ApplyFilters(ProjectColumns(req.Cases, CaseColumns), req.CaseFilters)
	if err != nil {
		return nil, fmt.Errorf("allocate: case filters: %w", err)
	}

	agents, droppedAgents, err := ParseAgents(agentRows)
	if err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}
	cases, droppedCases, err := ParseCases(caseRows)
	if err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}

	outcome, err := AssignCases(cases, agents, req.MaxCases)
	if err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}

	proj := ProjectResults(outcome, agents)
	res := &AllocateResult{
		RunID:       uuid.NewString(),
		Assignments: RecordRows(proj.Records),
		Excluded:    ExcludedRows(proj.Excluded),
		Map:         proj.Map,
		Stats: AllocationStats{
			Agents:        len(agents),
			Cases:         len(cases),
			DroppedAgents: droppedAgents,
			DroppedCases:  droppedCases,
			Assigned:      len(outcome.Assignable),
			Excluded:      len(outcome.Excluded),
			Deferred:      outcome.Deferred,
		},
	}

	metrics.ObserveAllocation("ok", res.Stats.Assigned, res.Stats.Excluded, res.Stats.Deferred, time.Since(start))
	log.Printf(
		"req_id=%s run_id=%s agents=%d cases=%d assigned=%d excluded=%d deferred=%d dropped_agents=%d dropped_cases=%d",
		obs.RequestID(ctx), res.RunID, res.Stats.Agents, res.Stats.Cases, res.Stats.Assigned,
		res.Stats.Excluded, res.Stats.Deferred, droppedAgents, droppedCases,
	)

	return res, nil
}

// AllocateStored runs Allocate over the datasets held by repo.
// Inline rows in req are replaced by the stored ones.
func AllocateStored(ctx context.Context, req AllocateRequest, repo ports.DatasetRepository) (*AllocateResult, error) {
	agents, err := repo.ListAgentRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate stored: list agents: %w", err)
	}
	cases, err := repo.ListCaseRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate stored: list cases: %w", err)
	}

	req.Agents = agents
	req.Cases = cases
	return Allocate(ctx, req)
}
