package services

import (
	"errors"
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/geo"
)

// AssignCases assigns unassigned cases to agents by travel distance, subject
// to a capacity ceiling shared by every agent.
//
// The run has two passes over the cases, both in input order:
//
//  1. Each case looks at its single nearest agent only. If that agent has
//     room the case is assigned; otherwise the case is deferred, even when a
//     farther agent still has room.
//  2. Deferred cases scan all agents from nearest to farthest and take the
//     first one with room. A case that finds none stays unassigned.
//
// Distance ties go to the agent that appears first in agents. The function
// is pure: cases and agents are not modified and no state outlives the call.
func AssignCases(cases []domain.Case, agents []domain.Agent, ceiling int) (*domain.AssignmentOutcome, error) {
	if ceiling < 0 {
		return nil, domain.Invalidf("assign cases: capacity ceiling must not be negative (got %d)", ceiling)
	}
	if len(agents) == 0 {
		return nil, domain.Invalidf("assign cases: agent list must not be empty")
	}
	for i, c := range cases {
		if !c.Status.IsUnassigned() {
			return nil, domain.Invalidf("assign cases: case %d (%s) has status %q, want unassigned", i, c.Ref, c.Status)
		}
	}

	matrix := BuildDistanceMatrix(cases, agents)
	tracker := NewCapacityTracker(agents, ceiling)

	results := make([]domain.CaseAssignment, len(cases))
	deferred := make([]int, 0)

	// Phase 1: nearest agent or defer.
	for i, c := range cases {
		results[i] = domain.CaseAssignment{Index: i, Case: c}

		nearest := matrix.NearestAgents(i)[0]
		if !tracker.HasCapacity(agents[nearest].Key()) {
			deferred = append(deferred, i)
			continue
		}

		if err := assign(&results[i], &agents[nearest], matrix.At(i, nearest), tracker); err != nil {
			return nil, fmt.Errorf("assign cases: phase 1: %w", err)
		}
	}

	// Phase 2: first agent with room, nearest first.
	for _, i := range deferred {
		for _, j := range matrix.NearestAgents(i) {
			if !tracker.HasCapacity(agents[j].Key()) {
				continue
			}
			if err := assign(&results[i], &agents[j], matrix.At(i, j), tracker); err != nil {
				return nil, fmt.Errorf("assign cases: phase 2: %w", err)
			}
			break
		}
	}

	outcome := &domain.AssignmentOutcome{
		Assignable: make([]domain.CaseAssignment, 0, len(results)),
		Excluded:   make([]domain.CaseAssignment, 0),
		Deferred:   len(deferred),
	}
	for _, r := range results {
		if r.Case.Status.IsUnassigned() {
			outcome.Excluded = append(outcome.Excluded, r)
			continue
		}
		r.Acceptance = domain.AcceptancePending
		outcome.Assignable = append(outcome.Assignable, r)
	}
	outcome.Counts = tracker.Snapshot()

	return outcome, nil
}

func assign(r *domain.CaseAssignment, agent *domain.Agent, km float64, tracker *CapacityTracker) error {
	if r.Agent != nil {
		return errors.New("case is already assigned")
	}
	if err := tracker.Increment(agent.Key()); err != nil {
		return err
	}

	a := *agent
	d := geo.RoundKm(km)
	r.Agent = &a
	r.DistanceKm = &d
	r.Case.Status = r.Case.Status.Advance()
	return nil
}
