package status

import (
	"context"
	"fmt"

	"github.com/slok/stockwatch/internal/backend"
	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/reconcile"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Client backend.Client
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("backend client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})

	return nil
}

// Service retrieves the status of a task once, without tracking it.
type Service struct {
	client backend.Client
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	TaskID string
	// Kind is used when the server doesn't report the task kind.
	Kind model.AnalysisKind
}

// Result is the status of a task.
type Result struct {
	Snapshot model.TaskSnapshot
	// Display is only set when the task is finished.
	Display *model.DisplayModel
}

// Run gets the current status of a task.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.TaskID == "" {
		return nil, fmt.Errorf("task ID is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("getting status for task: %s", req.TaskID)

	snapshot, err := s.client.GetTaskStatus(ctx, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task %s status: %w", req.TaskID, err)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("empty status for task %s: %w", req.TaskID, model.ErrTransport)
	}

	sn := snapshot.Normalize()
	if sn.TaskID == "" {
		sn.TaskID = req.TaskID
	}
	if sn.Kind == "" {
		sn.Kind = req.Kind
	}

	res := &Result{Snapshot: sn}
	if sn.Phase.IsTerminal() {
		d := reconcile.Reconcile(sn)
		res.Display = &d
	}

	return res, nil
}
