package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/stockwatch/internal/model"
)

func strPtr(s string) *string { return &s }

func TestTaskSnapshotValidate(t *testing.T) {
	tests := map[string]struct {
		snapshot model.TaskSnapshot
		expErr   bool
	}{
		"A running snapshot without payload should not fail.": {
			snapshot: model.TaskSnapshot{Phase: model.TaskPhaseRunning, Progress: 10},
		},

		"A completed snapshot with result should not fail.": {
			snapshot: model.TaskSnapshot{Phase: model.TaskPhaseCompleted, Result: json.RawMessage(`{}`)},
		},

		"A failed snapshot with error should not fail.": {
			snapshot: model.TaskSnapshot{Phase: model.TaskPhaseFailed, Error: strPtr("boom")},
		},

		"An unknown phase should fail.": {
			snapshot: model.TaskSnapshot{Phase: "exploded"},
			expErr:   true,
		},

		"A completed snapshot without result should fail.": {
			snapshot: model.TaskSnapshot{Phase: model.TaskPhaseCompleted},
			expErr:   true,
		},

		"A completed snapshot with error should fail.": {
			snapshot: model.TaskSnapshot{Phase: model.TaskPhaseCompleted, Result: json.RawMessage(`{}`), Error: strPtr("boom")},
			expErr:   true,
		},

		"A failed snapshot without error should fail.": {
			snapshot: model.TaskSnapshot{Phase: model.TaskPhaseFailed},
			expErr:   true,
		},

		"A pending snapshot with result should fail.": {
			snapshot: model.TaskSnapshot{Phase: model.TaskPhasePending, Result: json.RawMessage(`{}`)},
			expErr:   true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.snapshot.Validate()
			if test.expErr {
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskSnapshotNormalize(t *testing.T) {
	tests := map[string]struct {
		snapshot    model.TaskSnapshot
		expSnapshot model.TaskSnapshot
	}{
		"A completed snapshot without result should get an empty result.": {
			snapshot:    model.TaskSnapshot{Phase: model.TaskPhaseCompleted, Result: json.RawMessage(`null`), Error: strPtr("")},
			expSnapshot: model.TaskSnapshot{Phase: model.TaskPhaseCompleted, Result: json.RawMessage(`{}`)},
		},

		"A failed snapshot without error should get an empty error.": {
			snapshot:    model.TaskSnapshot{Phase: model.TaskPhaseFailed, Result: json.RawMessage(`{"a":1}`)},
			expSnapshot: model.TaskSnapshot{Phase: model.TaskPhaseFailed, Error: strPtr("")},
		},

		"A running snapshot should lose any payload.": {
			snapshot:    model.TaskSnapshot{Phase: model.TaskPhaseRunning, Progress: 50, Result: json.RawMessage(`{}`), Error: strPtr("x")},
			expSnapshot: model.TaskSnapshot{Phase: model.TaskPhaseRunning, Progress: 50},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			got := test.snapshot.Normalize()
			assert.Equal(test.expSnapshot, got)
			assert.NoError(got.Validate())
		})
	}
}

func TestTrackerStatus(t *testing.T) {
	tests := map[model.TrackerStatus]struct {
		expTerminal bool
		expActive   bool
	}{
		model.TrackerStatusIdle:      {},
		model.TrackerStatusStarting:  {expActive: true},
		model.TrackerStatusRunning:   {expActive: true},
		model.TrackerStatusCompleted: {expTerminal: true},
		model.TrackerStatusFailed:    {expTerminal: true},
		model.TrackerStatusTimedOut:  {expTerminal: true},
		model.TrackerStatusCancelled: {expTerminal: true},
	}

	for status, test := range tests {
		t.Run(string(status), func(t *testing.T) {
			assert.Equal(t, test.expTerminal, status.IsTerminal())
			assert.Equal(t, test.expActive, status.IsActive())
		})
	}
}
