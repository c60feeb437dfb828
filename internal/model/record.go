package model

import (
	"encoding/json"
	"time"
)

// TaskRecord is a finished tracked task saved in the local history.
type TaskRecord struct {
	LaunchID       string
	TaskID         string
	Kind           AnalysisKind
	Status         TrackerStatus
	FailureReason  FailureReason
	FailureMessage string
	// Params are the params the task was launched with, nil for tracked tasks.
	Params AnalysisParams
	// Result is only set on completed tasks.
	Result     json.RawMessage
	LaunchedAt time.Time
	FinishedAt time.Time
}

// NewTaskRecord returns the record of a terminal tracker state. It returns
// false when the state is not terminal or the task never got a server ID.
func NewTaskRecord(st TrackerState, params AnalysisParams) (TaskRecord, bool) {
	if !st.Status.IsTerminal() || st.Handle == nil || st.Handle.TaskID == "" {
		return TaskRecord{}, false
	}

	r := TaskRecord{
		LaunchID:   st.Handle.LaunchID,
		TaskID:     st.Handle.TaskID,
		Kind:       st.Kind,
		Status:     st.Status,
		Params:     params,
		LaunchedAt: st.Handle.LaunchedAt,
		FinishedAt: st.UpdatedAt,
	}

	if st.Failure != nil {
		r.FailureReason = st.Failure.Reason
		r.FailureMessage = st.Failure.Message
	}

	if st.Status == TrackerStatusCompleted && st.Snapshot != nil {
		r.Result = st.Snapshot.Result
	}

	return r, true
}

// Snapshot returns the last task snapshot the record represents, nil when the
// server never reported the task finished.
func (r TaskRecord) Snapshot() *TaskSnapshot {
	s := TaskSnapshot{
		TaskID:      r.TaskID,
		Kind:        r.Kind,
		CompletedAt: &r.FinishedAt,
	}

	switch {
	case r.Status == TrackerStatusCompleted:
		s.Phase = TaskPhaseCompleted
		s.Progress = 100
		s.Result = r.Result
	case r.FailureReason == FailureServerReported:
		s.Phase = TaskPhaseFailed
		msg := r.FailureMessage
		s.Error = &msg
	default:
		return nil
	}

	return &s
}

// TaskRecordFilter filters the listed task records. Zero values don't filter.
type TaskRecordFilter struct {
	Kind   AnalysisKind
	Status TrackerStatus
	Limit  int
}
