package analyze

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/storage"
	"github.com/slok/stockwatch/internal/utils/params"
)

// Tracker is the task tracker used by the service.
type Tracker interface {
	Subscribe() (<-chan model.TrackerState, func())
	Launch(ctx context.Context, kind model.AnalysisKind, params model.AnalysisParams) (model.TaskHandle, error)
	Track(ctx context.Context, kind model.AnalysisKind, taskID string) (model.TaskHandle, error)
	Wait(ctx context.Context) (model.TrackerState, error)
}

// ServiceConfig is the configuration for the analyze service.
type ServiceConfig struct {
	Tracker Tracker
	// DefaultParams are the user configured params of each analysis, they
	// override the built in defaults and are overridden by the request params.
	DefaultParams map[model.AnalysisKind]model.AnalysisParams
	// History is optional, when set the finished tasks are saved on it.
	History storage.HistoryRepository
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Tracker == nil {
		return fmt.Errorf("tracker is required")
	}

	if c.DefaultParams == nil {
		c.DefaultParams = map[model.AnalysisKind]model.AnalysisParams{}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Analyze"})

	return nil
}

// Service runs analysis tasks until they finish.
type Service struct {
	tracker       Tracker
	defaultParams map[model.AnalysisKind]model.AnalysisParams
	history       storage.HistoryRepository
	logger        log.Logger
}

// NewService creates a new analyze service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		tracker:       cfg.Tracker,
		defaultParams: cfg.DefaultParams,
		history:       cfg.History,
		logger:        cfg.Logger,
	}, nil
}

// Request represents the analyze request parameters.
type Request struct {
	Kind   model.AnalysisKind
	Params model.AnalysisParams
	// TaskID tracks an already started task instead of launching a new one.
	TaskID string
	// OnState receives the states of the task while it's tracked. Intermediate
	// states can be skipped, the terminal one is always received.
	OnState func(model.TrackerState)
}

// Run launches (or attaches to) an analysis task and blocks until the tracker
// reaches a terminal state, that is returned. Cancelling ctx cancels the tracking
// and returns the cancelled state.
func (s *Service) Run(ctx context.Context, req Request) (model.TrackerState, error) {
	onState := req.OnState
	if onState == nil {
		onState = func(model.TrackerState) {}
	}

	// Subscribe before starting so the starting state is not lost.
	states, unsubscribe := s.tracker.Subscribe()
	defer unsubscribe()

	handle, launchParams, err := s.start(ctx, req)
	if err != nil {
		return model.TrackerState{}, err
	}

	logger := s.logger.WithValues(log.Kv{"task-id": handle.TaskID, "kind": handle.Kind, "launch-id": handle.LaunchID})
	logger.Infof("Tracking task")

	var (
		final     model.TrackerState
		delivered bool
		g         errgroup.Group
	)
	waited := make(chan struct{})

	g.Go(func() error {
		for {
			select {
			// The terminal state can be overwritten before being read.
			case <-waited:
				return nil
			case st, ok := <-states:
				if !ok {
					return nil
				}
				// States of other tasks or the reset after this one.
				if st.Generation != handle.Generation || st.Status == model.TrackerStatusIdle {
					continue
				}

				onState(st)
				if st.Status.IsTerminal() {
					delivered = true
					return nil
				}
			}
		}
	})

	g.Go(func() error {
		defer close(waited)

		// The tracker always ends the task, cancelling ctx included.
		st, err := s.tracker.Wait(context.WithoutCancel(ctx))
		if err != nil {
			return fmt.Errorf("could not wait for the task: %w", err)
		}
		final = st
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.TrackerState{}, err
	}

	if !delivered {
		onState(final)
	}

	logger.Infof("Task finished: %s", final.Status)
	s.saveRecord(context.WithoutCancel(ctx), logger, final, launchParams)

	return final, nil
}

// saveRecord doesn't fail the run, the task result is already known.
func (s *Service) saveRecord(ctx context.Context, logger log.Logger, st model.TrackerState, launchParams model.AnalysisParams) {
	if s.history == nil {
		return
	}

	rec, ok := model.NewTaskRecord(st, launchParams)
	if !ok {
		logger.Debugf("Task not saved on history, no task ID")
		return
	}

	if err := s.history.SaveTaskRecord(ctx, rec); err != nil {
		logger.Warningf("Could not save task on history: %s", err)
		return
	}
	logger.Debugf("Task saved on history")
}

// start returns the params sent to the server, nil on tracked tasks.
func (s *Service) start(ctx context.Context, req Request) (model.TaskHandle, model.AnalysisParams, error) {
	if req.TaskID != "" {
		handle, err := s.tracker.Track(ctx, req.Kind, req.TaskID)
		if err != nil {
			return model.TaskHandle{}, nil, fmt.Errorf("could not track task %s: %w", req.TaskID, err)
		}
		return handle, nil, nil
	}

	p := model.AnalysisParams(params.MergeMaps(s.defaultParams[req.Kind], req.Params))
	handle, err := s.tracker.Launch(ctx, req.Kind, p)
	if err != nil {
		return model.TaskHandle{}, nil, fmt.Errorf("could not launch task: %w", err)
	}

	return handle, model.MergeParams(req.Kind, p), nil
}
