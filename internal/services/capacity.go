package services

import (
	"errors"
	"fmt"
	"fos-allocation-service/internal/domain"
	"maps"
)

var (
	ErrCapacityExceeded = errors.New("agent is at full capacity")
	ErrUnknownAgent     = errors.New("agent is not tracked")
)

// CapacityTracker holds the assigned count of every agent in one run.
// The ceiling is shared by all agents. Counts only ever go up.
//
// A tracker belongs to a single run and is not safe for concurrent use.
type CapacityTracker struct {
	ceiling int
	counts  map[string]int
}

func NewCapacityTracker(agents []domain.Agent, ceiling int) *CapacityTracker {
	counts := make(map[string]int, len(agents))
	for _, a := range agents {
		counts[a.Key()] = 0
	}
	return &CapacityTracker{ceiling: ceiling, counts: counts}
}

func (t *CapacityTracker) Ceiling() int { return t.ceiling }

// Count returns the number of cases assigned to the agent so far.
func (t *CapacityTracker) Count(key string) int { return t.counts[key] }

// HasCapacity reports whether the agent can take one more case.
func (t *CapacityTracker) HasCapacity(key string) bool {
	n, ok := t.counts[key]
	return ok && n < t.ceiling
}

// Increment records one more case for the agent.
// Callers check HasCapacity first; exceeding the ceiling is an error.
func (t *CapacityTracker) Increment(key string) error {
	n, ok := t.counts[key]
	if !ok {
		return fmt.Errorf("increment %q: %w", key, ErrUnknownAgent)
	}
	if n >= t.ceiling {
		return fmt.Errorf("increment %q (capacity=%d): %w", key, t.ceiling, ErrCapacityExceeded)
	}
	t.counts[key] = n + 1
	return nil
}

// Snapshot returns a copy of the current counts.
func (t *CapacityTracker) Snapshot() map[string]int {
	return maps.Clone(t.counts)
}
