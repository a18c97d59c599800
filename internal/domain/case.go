package domain

// AcceptancePending is the acceptance marker every freshly assigned case starts with.
const AcceptancePending = "pending"

// Markers written to an assignment once its loan is repaid.
const (
	AcceptanceResolved = "Resolved"
	CaseStatusClosed   = "CLOSE_O"
)

// Represents a single work item with a location that needs an agent.
// Ref is a human readable reference (the loan number when present) used in
// logs; Fields carries the caller's columns through the run untouched.
type Case struct {
	Ref      string
	Address  string
	Location Coordinates
	Status   Status
	Fields   Row
}
