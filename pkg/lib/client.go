package lib

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slok/stockwatch/internal/app/analyze"
	"github.com/slok/stockwatch/internal/app/kinds"
	"github.com/slok/stockwatch/internal/app/status"
	"github.com/slok/stockwatch/internal/backend"
	"github.com/slok/stockwatch/internal/backend/fake"
	"github.com/slok/stockwatch/internal/backend/rest"
	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/tracker"
)

// Config configures the SDK client.
//
// All fields are optional, an empty Config{} uses the analysis server on
// http://127.0.0.1:5000 polling every second for up to 10 minutes.
type Config struct {
	// ServerURL is the analysis server root URL.
	// Default: http://127.0.0.1:5000.
	ServerURL string

	// HTTPClient is used for the server requests.
	// Default: a client with a 30s timeout.
	HTTPClient *http.Client

	// Backend selects the analysis server implementation.
	// Default: [BackendREST].
	Backend BackendType

	// PollInterval is the time between task status requests.
	// Default: 1s.
	PollInterval time.Duration

	// Timeout is the maximum time a task is tracked.
	// Default: 10m.
	Timeout time.Duration

	// PollRetries is the number of retries of a failed status request before
	// the task is considered failed.
	// Default: 0.
	PollRetries int

	// DefaultParams are used for each analysis kind under the params passed
	// to [Client.Analyze].
	DefaultParams map[AnalysisKind]map[string]any

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	switch c.Backend {
	case "":
		c.Backend = BackendREST
	case BackendREST, BackendFake:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	for k := range c.DefaultParams {
		if err := model.AnalysisKind(k).Validate(); err != nil {
			return fmt.Errorf("invalid default params: %w", err)
		}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point to run analyses.
//
// Create a Client with [New]. A Client is safe for concurrent use but
// tracks one task at a time.
type Client struct {
	backend       backend.Client
	tracker       *tracker.Tracker
	defaultParams map[model.AnalysisKind]model.AnalysisParams
	logger        log.Logger
}

// New creates a new SDK client.
func New(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, mapError(fmt.Errorf("invalid config: %w", err))
	}

	var (
		b   backend.Client
		err error
	)
	switch cfg.Backend {
	case BackendFake:
		b, err = fake.NewBackend(fake.BackendConfig{Logger: cfg.Logger})
	default:
		b, err = rest.NewClient(rest.ClientConfig{
			BaseURL:    cfg.ServerURL,
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		})
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create backend: %w", err))
	}

	t, err := tracker.New(tracker.Config{
		Client:       b,
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.Timeout,
		PollRetries:  cfg.PollRetries,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create tracker: %w", err)
	}

	return &Client{
		backend:       b,
		tracker:       t,
		defaultParams: toInternalDefaultParams(cfg.DefaultParams),
		logger:        cfg.Logger,
	}, nil
}

// Analyze starts an analysis task and blocks until the tracking ends.
// Pass nil opts for defaults.
func (c *Client) Analyze(ctx context.Context, kind AnalysisKind, params map[string]any, opts *AnalyzeOpts) (*Result, error) {
	return c.run(ctx, analyze.Request{
		Kind:   model.AnalysisKind(kind),
		Params: params,
	}, opts)
}

// Watch tracks a task already started on the server until the tracking ends.
// The kind is used to map the result. Pass nil opts for defaults.
func (c *Client) Watch(ctx context.Context, kind AnalysisKind, taskID string, opts *AnalyzeOpts) (*Result, error) {
	return c.run(ctx, analyze.Request{
		Kind:   model.AnalysisKind(kind),
		TaskID: taskID,
	}, opts)
}

func (c *Client) run(ctx context.Context, req analyze.Request, opts *AnalyzeOpts) (*Result, error) {
	svc, err := analyze.NewService(analyze.ServiceConfig{
		Tracker:       c.tracker,
		DefaultParams: c.defaultParams,
		Logger:        c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	if opts != nil && opts.OnProgress != nil {
		onProgress := opts.OnProgress
		req.OnState = func(st model.TrackerState) { onProgress(fromInternalProgress(st)) }
	}

	st, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	res := fromInternalState(st)
	return &res, nil
}

// Cancel stops tracking the current task, the blocked [Client.Analyze] or
// [Client.Watch] call returns a [StatusCancelled] result. It's a no-op when
// no task is tracked.
func (c *Client) Cancel() {
	c.tracker.Cancel()
}

// Progress returns the progress of the tracked task, or of the last one.
func (c *Client) Progress() Progress {
	return fromInternalProgress(c.tracker.State())
}

// GetTaskStatus gets the current status of a task without tracking it.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	svc, err := status.NewService(status.ServiceConfig{
		Client: c.backend,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, status.Request{TaskID: taskID})
	if err != nil {
		return nil, mapError(err)
	}

	ts := fromInternalTaskStatus(*res)
	return &ts, nil
}

// ListAnalyses returns the supported analyses with the params a launch
// without params would use.
func (c *Client) ListAnalyses(ctx context.Context) ([]Analysis, error) {
	svc, err := kinds.NewService(kinds.ServiceConfig{
		DefaultParams: c.defaultParams,
		Logger:        c.logger,
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create service: %w", err))
	}

	infos, err := svc.Run(ctx, kinds.Request{})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalAnalyses(infos), nil
}
