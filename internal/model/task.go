package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskPhase is the server reported phase of a remote task.
type TaskPhase string

const (
	TaskPhasePending   TaskPhase = "pending"
	TaskPhaseRunning   TaskPhase = "running"
	TaskPhaseCompleted TaskPhase = "completed"
	TaskPhaseFailed    TaskPhase = "failed"
)

// IsTerminal returns true when the server will not move the task anymore.
func (p TaskPhase) IsTerminal() bool {
	return p == TaskPhaseCompleted || p == TaskPhaseFailed
}

// Valid returns true if the phase is one of the known phases.
func (p TaskPhase) Valid() bool {
	switch p {
	case TaskPhasePending, TaskPhaseRunning, TaskPhaseCompleted, TaskPhaseFailed:
		return true
	}
	return false
}

// TaskHandle identifies one launched remote task.
type TaskHandle struct {
	// TaskID is the opaque ID assigned by the server.
	TaskID string
	// Kind is the analysis that was requested.
	Kind AnalysisKind
	// LaunchID is a client side ID used to correlate everything that happened for one launch.
	LaunchID string
	// Generation is the tracker generation this handle belongs to.
	Generation uint64
	// LaunchedAt is when the server accepted the task.
	LaunchedAt time.Time
}

// TaskSnapshot is one polled sample of a remote task status.
type TaskSnapshot struct {
	TaskID      string
	Kind        AnalysisKind
	Phase       TaskPhase
	Progress    float64 // Not monotonic, servers can go back.
	CurrentStep string
	CurrentItem string
	// Result is only set when the phase is completed.
	Result json.RawMessage
	// Error is only set when the phase is failed, can be empty if the server didn't report a message.
	Error       *string
	CreatedAt   *time.Time
	CompletedAt *time.Time
}

// Validate checks the result/error exclusivity of the snapshot.
func (s TaskSnapshot) Validate() error {
	if !s.Phase.Valid() {
		return fmt.Errorf("unknown phase %q: %w", s.Phase, ErrNotValid)
	}

	hasResult := len(s.Result) > 0
	hasError := s.Error != nil

	switch s.Phase {
	case TaskPhaseCompleted:
		if !hasResult || hasError {
			return fmt.Errorf("completed snapshot must only have a result: %w", ErrNotValid)
		}
	case TaskPhaseFailed:
		if !hasError || hasResult {
			return fmt.Errorf("failed snapshot must only have an error: %w", ErrNotValid)
		}
	default:
		if hasResult || hasError {
			return fmt.Errorf("%s snapshot can't have result or error: %w", s.Phase, ErrNotValid)
		}
	}

	return nil
}

// Normalize returns a copy of the snapshot that satisfies Validate for any known phase.
// Terminal snapshots missing their payload get an empty one, non terminal ones lose
// any payload the server sent too early.
func (s TaskSnapshot) Normalize() TaskSnapshot {
	switch s.Phase {
	case TaskPhaseCompleted:
		s.Error = nil
		if len(s.Result) == 0 || string(s.Result) == "null" {
			s.Result = json.RawMessage("{}")
		}
	case TaskPhaseFailed:
		s.Result = nil
		if s.Error == nil {
			empty := ""
			s.Error = &empty
		}
	default:
		s.Result = nil
		s.Error = nil
	}

	return s
}
