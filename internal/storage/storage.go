package storage

import (
	"context"

	"github.com/slok/stockwatch/internal/model"
)

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name HistoryRepository --structname MockHistoryRepository

// HistoryRepository is the interface for the finished tasks history persistence.
type HistoryRepository interface {
	// SaveTaskRecord saves a record, model.ErrAlreadyExists is returned if the launch is already saved.
	SaveTaskRecord(ctx context.Context, r model.TaskRecord) error
	// GetTaskRecord returns the latest record of a launch ID or server task ID.
	GetTaskRecord(ctx context.Context, id string) (*model.TaskRecord, error)
	// ListTaskRecords returns the records, latest launched first.
	ListTaskRecords(ctx context.Context, filter model.TaskRecordFilter) ([]model.TaskRecord, error)
}
