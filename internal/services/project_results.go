package services

import "fos-allocation-service/internal/domain"

// ProjectResults builds the presentation view of a finished run: one record
// per assignable case and a map summary centered on the agents' mean
// coordinate. The outcome is not modified.
func ProjectResults(outcome *domain.AssignmentOutcome, agents []domain.Agent) domain.Projection {
	records := make([]domain.AssignmentRecord, 0, len(outcome.Assignable))
	caseMarkers := make([]domain.CaseMarker, 0, len(outcome.Assignable))
	for _, a := range outcome.Assignable {
		rec := domain.AssignmentRecord{
			Case:       a.Case,
			Status:     a.Case.Status.String(),
			Acceptance: a.Acceptance,
		}
		if a.Agent != nil {
			rec.AgentName = a.Agent.Name
			rec.AgentID = a.Agent.ID
		}
		if a.DistanceKm != nil {
			rec.DistanceKm = *a.DistanceKm
		}
		records = append(records, rec)

		caseMarkers = append(caseMarkers, domain.CaseMarker{
			Lat:     a.Case.Location.Lat,
			Lon:     a.Case.Location.Lon,
			Address: a.Case.Address,
		})
	}

	excluded := make([]domain.Case, 0, len(outcome.Excluded))
	for _, e := range outcome.Excluded {
		excluded = append(excluded, e.Case)
	}

	agentMarkers := make([]domain.AgentMarker, 0, len(agents))
	var sumLat, sumLon float64
	for _, a := range agents {
		sumLat += a.Location.Lat
		sumLon += a.Location.Lon
		agentMarkers = append(agentMarkers, domain.AgentMarker{
			Lat:  a.Location.Lat,
			Lon:  a.Location.Lon,
			Name: a.Name,
		})
	}

	summary := domain.MapSummary{Agents: agentMarkers, Cases: caseMarkers}
	if n := float64(len(agents)); n > 0 {
		summary.CenterLat = sumLat / n
		summary.CenterLon = sumLon / n
	}

	return domain.Projection{Records: records, Excluded: excluded, Map: summary}
}
