// Package lifecycle implements the review-status state machine for
// reported obstacles and the audit contract for status transitions.
package lifecycle

import (
	"context"
	"fmt"
	"time"
)

// Status is the review state of an obstacle.
type Status string

const (
	// StatusPending is the initial, unreviewed state.
	StatusPending Status = "pending"

	// StatusVerified means an admin confirmed the report is real and actionable.
	StatusVerified Status = "verified"

	// StatusResolved is the hard-terminal fixed state.
	StatusResolved Status = "resolved"

	// StatusFalseReport marks a report rejected as invalid. It can be
	// reverted to pending; obstacles are never hard-deleted.
	StatusFalseReport Status = "false_report"

	// StatusUnknown is the fallback for unrecognized status strings from
	// upstream data. It is treated as not-yet-triaged for scoring and has
	// no outgoing transitions.
	StatusUnknown Status = "unknown"
)

// AllStatuses returns the closed set of reviewable statuses.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusVerified, StatusResolved, StatusFalseReport}
}

// ParseStatus maps a raw status string to a Status.
// Unrecognized values map to StatusUnknown rather than failing, so that
// triage is never blocked by malformed upstream data.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusVerified, StatusResolved, StatusFalseReport:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// transitions is the adjacency set of allowed status edges.
// pending is the single re-open hub: every revert leads back to it.
// resolved has no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:     {StatusVerified, StatusFalseReport},
	StatusVerified:    {StatusResolved, StatusPending},
	StatusFalseReport: {StatusPending},
}

// CanTransition reports whether the from→to status edge is allowed.
// It is a pure lookup over the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedFrom returns the statuses reachable from the given status.
// The returned slice is a copy; callers may mutate it.
func AllowedFrom(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// StatusChange is an immutable audit fact describing one accepted
// transition. It is created once and never mutated or deleted.
type StatusChange struct {
	ObstacleID string
	From       Status
	To         Status
	ActorID    string
	Notes      string
	RecordedAt time.Time
}

// Recorder persists status changes. Implementations live in the audit
// package; the in-process store assigns its own identifiers.
type Recorder interface {
	Record(ctx context.Context, change StatusChange) error
}

// TransitionError is returned for a disallowed status transition.
// It is a checked, expected outcome: callers surface it to the admin as a
// rejected action, with no store write and no audit record.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("status transition %s → %s is not allowed", e.From, e.To)
}

// Manager validates transitions and forwards accepted ones to a Recorder.
// It holds no obstacle state; mutating the store after validation passes
// is the caller's responsibility.
type Manager struct {
	recorder Recorder
	now      func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the clock used to timestamp status changes.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager that records accepted transitions via the
// given Recorder.
func NewManager(recorder Recorder, opts ...ManagerOption) *Manager {
	m := &Manager{
		recorder: recorder,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordTransition validates the from→to edge and, if allowed, constructs
// a StatusChange and hands it to the Recorder. On a disallowed edge it
// returns a *TransitionError and records nothing.
//
// The Recorder's error is returned as-is; whether that error blocks the
// admin action is the caller's policy (the obstacle service treats audit
// writes as best-effort).
func (m *Manager) RecordTransition(ctx context.Context, obstacleID string, from, to Status, actorID, notes string) (*StatusChange, error) {
	if !CanTransition(from, to) {
		return nil, &TransitionError{From: from, To: to}
	}

	change := StatusChange{
		ObstacleID: obstacleID,
		From:       from,
		To:         to,
		ActorID:    actorID,
		Notes:      notes,
		RecordedAt: m.now(),
	}

	if err := m.recorder.Record(ctx, change); err != nil {
		return &change, fmt.Errorf("recording status change: %w", err)
	}

	return &change, nil
}
