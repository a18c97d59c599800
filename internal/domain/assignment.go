package domain

// Outcome of the assignment run for one case.
// Agent and DistanceKm are nil when the case ended unassigned.
type CaseAssignment struct {
	Index      int
	Case       Case
	Agent      *Agent
	DistanceKm *float64
	Acceptance string
}

// Assigned reports whether the case was placed with an agent.
func (a CaseAssignment) Assigned() bool { return a.Agent != nil }

// AssignmentOutcome partitions every input case into exactly one of
// Assignable or Excluded, both in input order.
type AssignmentOutcome struct {
	Assignable []CaseAssignment
	Excluded   []CaseAssignment
	// Final assigned count per agent key.
	Counts   map[string]int
	Deferred int
}

// Total number of cases that went through the run.
func (o *AssignmentOutcome) Total() int { return len(o.Assignable) + len(o.Excluded) }

// AgentMarker is an agent pin on the allocation map.
type AgentMarker struct {
	Lat  float64
	Lon  float64
	Name string
}

// CaseMarker is an assignable case pin on the allocation map.
type CaseMarker struct {
	Lat     float64
	Lon     float64
	Address string
}

// MapSummary is the presentation payload for the allocation map.
type MapSummary struct {
	CenterLat float64
	CenterLon float64
	Agents    []AgentMarker
	Cases     []CaseMarker
}

// AssignmentRecord is one assignable case as presented to the caller.
type AssignmentRecord struct {
	Case       Case
	AgentName  string
	AgentID    string
	DistanceKm float64
	Status     string
	Acceptance string
}

// Projection is the presentation view of a finished run.
type Projection struct {
	Records  []AssignmentRecord
	Excluded []Case
	Map      MapSummary
}
