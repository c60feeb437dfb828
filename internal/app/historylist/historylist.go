package historylist

import (
	"context"
	"fmt"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/storage"
)

// ServiceConfig is the configuration for the history list service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.HistoryList"})

	return nil
}

// Service lists the finished tasks.
type Service struct {
	repo   storage.HistoryRepository
	logger log.Logger
}

// NewService creates a new history list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the history list request parameters.
type Request struct {
	Kind   model.AnalysisKind
	Status model.TrackerStatus
	Limit  int
}

func (r Request) validate() error {
	if r.Kind != "" {
		if err := r.Kind.Validate(); err != nil {
			return err
		}
	}

	if r.Status != "" && !r.Status.IsTerminal() {
		return fmt.Errorf("history has only finished tasks, %q is not a final status: %w", r.Status, model.ErrNotValid)
	}

	if r.Limit < 0 {
		return fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}

	return nil
}

// Run returns the finished tasks, latest launched first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.TaskRecord, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	records, err := s.repo.ListTaskRecords(ctx, model.TaskRecordFilter{
		Kind:   req.Kind,
		Status: req.Status,
		Limit:  req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("could not list task records: %w", err)
	}

	s.logger.Debugf("Listed %d task records", len(records))

	return records, nil
}
