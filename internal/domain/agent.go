package domain

// Row is a single tabular record as supplied by the caller (one spreadsheet row).
type Row = map[string]any

// Field officer (FOS) eligible to receive case assignments.
// Agents are read-only during a run; the assigned count lives in the
// capacity tracker, not on the agent.
type Agent struct {
	ID       string
	Name     string
	Location Coordinates
	Fields   Row
}

// Key identifies the agent's capacity counter. Ids and names live in separate
// namespaces so a nameless id never collides with an id-less name.
func (a Agent) Key() string {
	if a.ID != "" {
		return "id:" + a.ID
	}
	return "name:" + a.Name
}
