package historyshow

import (
	"context"
	"fmt"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/reconcile"
	"github.com/slok/stockwatch/internal/storage"
)

// ServiceConfig is the configuration for the history show service.
type ServiceConfig struct {
	Repository storage.HistoryRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.HistoryShow"})

	return nil
}

// Service shows a finished task with its rendered result.
type Service struct {
	repo   storage.HistoryRepository
	logger log.Logger
}

// NewService creates a new history show service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the history show request parameters.
type Request struct {
	// ID is the launch ID or the server task ID, on the latter the latest launch is used.
	ID string
}

// Result is a stored task with its display.
type Result struct {
	Record model.TaskRecord
	// Display is nil when the server never reported the task as finished.
	Display *model.DisplayModel
}

// Run returns the stored task.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("task ID is required: %w", model.ErrNotValid)
	}

	rec, err := s.repo.GetTaskRecord(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("could not get task record: %w", err)
	}

	res := &Result{Record: *rec}
	if snap := rec.Snapshot(); snap != nil {
		d := reconcile.Reconcile(*snap)
		res.Display = &d
	}

	return res, nil
}
