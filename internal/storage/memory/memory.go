package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.HistoryRepository.
type Repository struct {
	records []model.TaskRecord
	mu      sync.RWMutex
	logger  log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{logger: cfg.Logger}, nil
}

// SaveTaskRecord saves a finished task record.
func (r *Repository) SaveTaskRecord(ctx context.Context, rec model.TaskRecord) error {
	if rec.LaunchID == "" || rec.TaskID == "" {
		return fmt.Errorf("launch and task ID are required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.LaunchID == rec.LaunchID {
			return fmt.Errorf("task record %s: %w", rec.LaunchID, model.ErrAlreadyExists)
		}
	}

	r.records = append(r.records, copyRecord(rec))
	r.logger.Debugf("Saved task record in repository: %s", rec.LaunchID)

	return nil
}

// GetTaskRecord returns the latest record with the launch ID or task ID.
func (r *Repository) GetTaskRecord(ctx context.Context, id string) (*model.TaskRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *model.TaskRecord
	for _, rec := range r.sorted() {
		if rec.LaunchID == id || rec.TaskID == id {
			found = &rec
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("task record %s: %w", id, model.ErrNotFound)
	}

	rec := copyRecord(*found)
	return &rec, nil
}

// ListTaskRecords returns the records matching the filter, latest launched first.
func (r *Repository) ListTaskRecords(ctx context.Context, filter model.TaskRecordFilter) ([]model.TaskRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := []model.TaskRecord{}
	for _, rec := range r.sorted() {
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}

		records = append(records, copyRecord(rec))
		if filter.Limit > 0 && len(records) >= filter.Limit {
			break
		}
	}

	return records, nil
}

// sorted returns the records latest launched first, latest saved first on ties.
func (r *Repository) sorted() []model.TaskRecord {
	records := slices.Clone(r.records)
	slices.Reverse(records)
	slices.SortStableFunc(records, func(a, b model.TaskRecord) int {
		return b.LaunchedAt.Compare(a.LaunchedAt)
	})
	return records
}

func copyRecord(rec model.TaskRecord) model.TaskRecord {
	if rec.Params != nil {
		p := make(model.AnalysisParams, len(rec.Params))
		for k, v := range rec.Params {
			p[k] = v
		}
		rec.Params = p
	}
	rec.Result = slices.Clone(rec.Result)
	return rec
}
