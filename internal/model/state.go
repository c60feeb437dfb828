package model

import "time"

// TrackerStatus is the discriminator of a TrackerState.
type TrackerStatus string

const (
	TrackerStatusIdle      TrackerStatus = "idle"
	TrackerStatusStarting  TrackerStatus = "starting"
	TrackerStatusRunning   TrackerStatus = "running"
	TrackerStatusCompleted TrackerStatus = "completed"
	TrackerStatusFailed    TrackerStatus = "failed"
	TrackerStatusTimedOut  TrackerStatus = "timed_out"
	TrackerStatusCancelled TrackerStatus = "cancelled"
)

// IsTerminal returns true for the statuses that accept no further transitions.
func (s TrackerStatus) IsTerminal() bool {
	switch s {
	case TrackerStatusCompleted, TrackerStatusFailed, TrackerStatusTimedOut, TrackerStatusCancelled:
		return true
	}
	return false
}

// IsActive returns true while a task is being launched or polled.
func (s TrackerStatus) IsActive() bool {
	return s == TrackerStatusStarting || s == TrackerStatusRunning
}

// FailureReason tells why a tracked task ended in the failed state.
type FailureReason string

const (
	// FailureLaunch means the task could not be started (bad params or transport error).
	FailureLaunch FailureReason = "launch"
	// FailurePollTransport means a status fetch could not reach the server.
	FailurePollTransport FailureReason = "poll_transport"
	// FailureServerReported means the server ran the task and it failed.
	FailureServerReported FailureReason = "server_reported"
)

// Failure is the data carried by the failed state.
type Failure struct {
	Reason  FailureReason
	Message string
}

// TrackerState is the state of the task tracker. Status tells which of the
// optional fields are set:
//
//   - idle: none.
//   - starting: Kind.
//   - running: Kind, Handle and Snapshot (latest one only).
//   - completed: Kind, Handle, Snapshot and Display.
//   - failed: Kind, Failure, Handle unless the launch failed, Snapshot and Display when the server reported it.
//   - timed_out: Kind and Handle.
//   - cancelled: Kind, Handle unless cancelled while starting.
//
// Published states are never mutated, readers can keep them.
type TrackerState struct {
	Status     TrackerStatus
	Generation uint64
	Kind       AnalysisKind
	Handle     *TaskHandle
	Snapshot   *TaskSnapshot
	Display    *DisplayModel
	Failure    *Failure
	UpdatedAt  time.Time
}

// TaskID returns the tracked task ID, empty if the server didn't assign one yet.
func (s TrackerState) TaskID() string {
	if s.Handle == nil {
		return ""
	}
	return s.Handle.TaskID
}
