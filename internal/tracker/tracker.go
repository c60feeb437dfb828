package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"k8s.io/utils/clock"

	"github.com/slok/stockwatch/internal/backend"
	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
)

const (
	DefaultPollInterval         = 1 * time.Second
	DefaultTimeout              = 10 * time.Minute
	DefaultRetryInitialInterval = 500 * time.Millisecond
)

// Config is the configuration of the tracker.
type Config struct {
	// Client is the analysis server client.
	Client backend.Client
	// Clock is the time source of the poll ticks, the deadline and the retries.
	Clock clock.WithTicker
	// PollInterval is the time between status fetches.
	PollInterval time.Duration
	// Timeout is the absolute deadline of a tracked task, armed when polling starts.
	Timeout time.Duration
	// PollRetries is the number of times a status fetch transport error is retried
	// before the task is considered failed. 0 fails on the first error.
	PollRetries int
	// RetryInitialInterval is the first backoff interval between retries.
	RetryInitialInterval time.Duration
	Logger               log.Logger
}

func (c *Config) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}

	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval can't be negative")
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout can't be negative")
	}

	if c.PollRetries < 0 {
		return fmt.Errorf("poll retries can't be negative")
	}

	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = DefaultRetryInitialInterval
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "tracker.Tracker"})

	return nil
}

// session is one launched (or attached) task, from starting until its terminal state.
type session struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	final  model.TrackerState
}

// Tracker launches analysis tasks and tracks them until they finish. Only one
// task is tracked at a time.
//
// The tracker is the only writer of its state, all the transitions are
// serialized and readers get copies using State or Subscribe.
type Tracker struct {
	client               backend.Client
	clock                clock.WithTicker
	interval             time.Duration
	timeout              time.Duration
	retries              int
	retryInitialInterval time.Duration
	logger               log.Logger

	mu      sync.Mutex
	state   model.TrackerState
	gen     uint64
	session *session
	subs    map[int]chan model.TrackerState
	nextSub int
	// pollers are the running poll loops.
	pollers sync.WaitGroup
}

// New returns a new idle tracker.
func New(cfg Config) (*Tracker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Tracker{
		client:               cfg.Client,
		clock:                cfg.Clock,
		interval:             cfg.PollInterval,
		timeout:              cfg.Timeout,
		retries:              cfg.PollRetries,
		retryInitialInterval: cfg.RetryInitialInterval,
		logger:               cfg.Logger,
		state: model.TrackerState{
			Status:    model.TrackerStatusIdle,
			UpdatedAt: cfg.Clock.Now(),
		},
		subs: map[int]chan model.TrackerState{},
	}, nil
}

// State returns the current tracker state.
func (t *Tracker) State() model.TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Subscribe returns a channel that receives the latest tracker state, starting
// with the current one. Slow readers only miss intermediate states, the tracker
// never blocks on them. The returned function unsubscribes and closes the channel.
func (t *Tracker) Subscribe() (<-chan model.TrackerState, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	ch := make(chan model.TrackerState, 1)
	ch <- t.state
	t.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
			close(ch)
		})
	}

	return ch, unsubscribe
}

// Launch starts an analysis task on the server and starts polling it. It
// returns model.ErrTaskActive if a task is already starting or running.
//
// When the server can't start the task the tracker ends in the failed state and
// the error is returned wrapping model.ErrLaunch. Cancelling ctx has the same
// effect as calling Cancel.
func (t *Tracker) Launch(ctx context.Context, kind model.AnalysisKind, params model.AnalysisParams) (model.TaskHandle, error) {
	s, err := t.newSession(ctx, kind)
	if err != nil {
		return model.TaskHandle{}, err
	}

	launchID := ulid.Make().String()
	logger := t.logger.WithValues(log.Kv{"kind": kind, "launch-id": launchID, "generation": s.gen})
	logger.Debugf("Launching task")

	var taskID string
	err = kind.Validate()
	if err == nil {
		taskID, err = t.client.StartTask(s.ctx, kind, model.MergeParams(kind, params))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isCurrentLocked(s.gen, model.TrackerStatusStarting) {
		logger.Infof("Discarding launch response, the task was cancelled while starting")
		return model.TaskHandle{}, fmt.Errorf("%s task launch was cancelled: %w", kind, context.Canceled)
	}

	if s.ctx.Err() != nil {
		t.setLocked(model.TrackerState{Status: model.TrackerStatusCancelled, Kind: kind})
		logger.Infof("Task launch cancelled")
		return model.TaskHandle{}, fmt.Errorf("%s task launch was cancelled: %w", kind, s.ctx.Err())
	}

	if err != nil {
		t.setLocked(model.TrackerState{
			Status:  model.TrackerStatusFailed,
			Kind:    kind,
			Failure: &model.Failure{Reason: model.FailureLaunch, Message: err.Error()},
		})
		logger.Errorf("Could not launch task: %s", err)
		return model.TaskHandle{}, fmt.Errorf("could not start %s task: %w: %w", kind, model.ErrLaunch, err)
	}

	handle := model.TaskHandle{
		TaskID:     taskID,
		Kind:       kind,
		LaunchID:   launchID,
		Generation: s.gen,
		LaunchedAt: t.clock.Now(),
	}
	t.startPollingLocked(s, handle, logger)

	return handle, nil
}

// Track attaches the tracker to a task that has already been started on the
// server and polls it like a launched one.
func (t *Tracker) Track(ctx context.Context, kind model.AnalysisKind, taskID string) (model.TaskHandle, error) {
	if taskID == "" {
		return model.TaskHandle{}, fmt.Errorf("task ID is required: %w", model.ErrNotValid)
	}

	s, err := t.newSession(ctx, kind)
	if err != nil {
		return model.TaskHandle{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isCurrentLocked(s.gen, model.TrackerStatusStarting) {
		return model.TaskHandle{}, fmt.Errorf("task tracking was cancelled: %w", context.Canceled)
	}

	handle := model.TaskHandle{
		TaskID:     taskID,
		Kind:       kind,
		LaunchID:   ulid.Make().String(),
		Generation: s.gen,
		LaunchedAt: t.clock.Now(),
	}
	logger := t.logger.WithValues(log.Kv{"kind": kind, "launch-id": handle.LaunchID, "generation": s.gen})
	t.startPollingLocked(s, handle, logger)

	return handle, nil
}

// Cancel stops tracking the active task. It's a no-op when there is no active task.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.Status.IsActive() {
		return
	}

	t.setLocked(model.TrackerState{
		Status: model.TrackerStatusCancelled,
		Kind:   t.state.Kind,
		Handle: t.state.Handle,
	})
	t.logger.WithValues(log.Kv{"generation": t.gen}).Infof("Task tracking cancelled")
}

// Reset moves a finished tracker back to idle. It fails with model.ErrTaskActive
// if a task is still active.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Status.IsActive() {
		return fmt.Errorf("can't reset tracker: %w", model.ErrTaskActive)
	}

	if t.state.Status == model.TrackerStatusIdle {
		return nil
	}

	t.state = model.TrackerState{
		Status:     model.TrackerStatusIdle,
		Generation: t.gen,
		UpdatedAt:  t.clock.Now(),
	}
	t.session = nil
	t.publishLocked()

	return nil
}

// Wait blocks until the tracked task reaches a terminal state and returns it.
func (t *Tracker) Wait(ctx context.Context) (model.TrackerState, error) {
	t.mu.Lock()
	s := t.session
	t.mu.Unlock()

	if s == nil {
		return model.TrackerState{}, fmt.Errorf("no task is being tracked: %w", model.ErrNotFound)
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		return t.State(), ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return s.final, nil
}

type sessionHandle struct {
	*session
	ctx context.Context
}

// newSession moves the tracker to starting with a new generation.
func (t *Tracker) newSession(ctx context.Context, kind model.AnalysisKind) (sessionHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Status.IsActive() {
		return sessionHandle{}, fmt.Errorf("%s task %s is %s: %w", t.state.Kind, t.state.TaskID(), t.state.Status, model.ErrTaskActive)
	}

	ctx, cancel := context.WithCancel(ctx)
	t.gen++
	s := &session{
		gen:    t.gen,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	t.session = s
	t.setLocked(model.TrackerState{Status: model.TrackerStatusStarting, Kind: kind})

	return sessionHandle{session: s, ctx: ctx}, nil
}

// startPollingLocked arms the poll ticker and the deadline and moves the tracker to running.
func (t *Tracker) startPollingLocked(s sessionHandle, handle model.TaskHandle, logger log.Logger) {
	logger = logger.WithValues(log.Kv{"task-id": handle.TaskID})

	t.setLocked(model.TrackerState{
		Status: model.TrackerStatusRunning,
		Kind:   handle.Kind,
		Handle: &handle,
		Snapshot: &model.TaskSnapshot{
			TaskID: handle.TaskID,
			Kind:   handle.Kind,
			Phase:  model.TaskPhasePending,
		},
	})

	p := &poller{
		tracker:  t,
		gen:      s.gen,
		handle:   handle,
		ticker:   t.clock.NewTicker(t.interval),
		deadline: t.clock.NewTimer(t.timeout),
		results:  make(chan fetchResult, 1),
		logger:   logger,
	}
	logger.Infof("Polling task every %s (timeout %s)", t.interval, t.timeout)

	t.pollers.Add(1)
	go func() {
		defer t.pollers.Done()
		p.run(s.ctx)
	}()
}

func (t *Tracker) isCurrentLocked(gen uint64, status model.TrackerStatus) bool {
	return t.gen == gen && t.state.Status == status
}

// transition applies st if gen is the current generation and the tracker is
// still active. It returns false when the transition has been dropped.
func (t *Tracker) transition(gen uint64, st model.TrackerState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gen != gen || !t.state.Status.IsActive() {
		return false
	}

	t.setLocked(st)
	return true
}

func (t *Tracker) setLocked(st model.TrackerState) {
	st.Generation = t.gen
	st.UpdatedAt = t.clock.Now()
	t.state = st

	if st.Status.IsTerminal() && t.session != nil && t.session.gen == t.gen {
		t.session.final = st
		t.session.cancel()
		close(t.session.done)
	}

	t.publishLocked()
}

func (t *Tracker) publishLocked() {
	for _, ch := range t.subs {
		// Drop the stale state if the reader didn't get it yet.
		select {
		case <-ch:
		default:
		}
		ch <- t.state
	}
}
