package backend

import (
	"context"

	"github.com/slok/stockwatch/internal/model"
)

//go:generate mockery --case underscore --output backendmock --outpkg backendmock --name Client --structname MockClient

// Client is the analysis job server API consumed by the tracker.
//
// Implementations return errors wrapping model.ErrTransport when the server
// can't be reached or answers something unexpected, model.ErrNotFound when
// the task doesn't exist and model.ErrNotValid when the request is rejected.
type Client interface {
	// StartTask starts an analysis task and returns the ID assigned by the server.
	StartTask(ctx context.Context, kind model.AnalysisKind, params model.AnalysisParams) (taskID string, err error)
	// GetTaskStatus returns the current status of a task.
	GetTaskStatus(ctx context.Context, taskID string) (*model.TaskSnapshot, error)
}
