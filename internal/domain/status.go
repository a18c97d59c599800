package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type StatusKind int

const (
	StatusUnassigned StatusKind = iota
	StatusAssigned
)

const (
	unassignedPrefix = "unAssigned"
	assignedPrefix   = "Assigned"
)

// Status is the assignment state of a case.
//
// The legacy string form is "unAssigned<N>" / "Assigned<N>", where N is the
// attempt generation. Numeric is false when the suffix was missing or not an
// integer; such a status keeps its raw text so it can be written back unchanged.
type Status struct {
	Kind    StatusKind
	Attempt int
	Numeric bool
	raw     string
}

func Unassigned(attempt int) Status {
	return Status{Kind: StatusUnassigned, Attempt: attempt, Numeric: true}
}

func Assigned(attempt int) Status {
	return Status{Kind: StatusAssigned, Attempt: attempt, Numeric: true}
}

// ParseStatus decodes the legacy status string.
// Prefix matching is case-insensitive. Any value containing "unassigned" is
// treated as unassigned even when it carries other text around it.
func ParseStatus(s string) (Status, error) {
	raw := strings.TrimSpace(s)
	lower := strings.ToLower(raw)

	var (
		kind   StatusKind
		suffix string
	)
	switch {
	case strings.HasPrefix(lower, strings.ToLower(unassignedPrefix)):
		kind = StatusUnassigned
		suffix = raw[len(unassignedPrefix):]
	case strings.HasPrefix(lower, strings.ToLower(assignedPrefix)):
		kind = StatusAssigned
		suffix = raw[len(assignedPrefix):]
	case strings.Contains(lower, "unassigned"):
		return Status{Kind: StatusUnassigned, raw: raw}, nil
	default:
		return Status{}, fmt.Errorf("parse status: unrecognized status %q", s)
	}

	st := Status{Kind: kind, raw: raw}
	if n, ok := parseAttempt(suffix); ok {
		st.Attempt = n
		st.Numeric = true
	}
	return st, nil
}

// parseAttempt accepts only a non-empty run of ASCII digits.
func parseAttempt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s Status) IsUnassigned() bool { return s.Kind == StatusUnassigned }

// Advance returns the status a case takes on when it is assigned:
// Assigned<N+1> for unAssigned<N>, Assigned1 when N is not an integer.
func (s Status) Advance() Status {
	if s.Kind == StatusUnassigned && s.Numeric {
		return Assigned(s.Attempt + 1)
	}
	return Assigned(1)
}

// String renders the legacy form.
func (s Status) String() string {
	if s.raw != "" {
		return s.raw
	}
	prefix := assignedPrefix
	if s.Kind == StatusUnassigned {
		prefix = unassignedPrefix
	}
	if !s.Numeric {
		return prefix
	}
	return prefix + strconv.Itoa(s.Attempt)
}
