package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"k8s.io/utils/clock"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/reconcile"
)

type fetchResult struct {
	snapshot *model.TaskSnapshot
	err      error
}

// poller polls one task until the tracker leaves the running state.
type poller struct {
	tracker  *Tracker
	gen      uint64
	handle   model.TaskHandle
	ticker   clock.Ticker
	deadline clock.Timer
	// results has room for the only fetch in flight so a fetch that finishes
	// after the poller has stopped doesn't block.
	results chan fetchResult
	logger  log.Logger
}

func (p *poller) run(ctx context.Context) {
	defer p.ticker.Stop()
	defer p.deadline.Stop()

	inFlight := false
	for {
		select {
		case <-ctx.Done():
			// Cancelled from outside, or already terminal and then this is a no-op.
			if p.tracker.transition(p.gen, p.cancelled()) {
				p.logger.Infof("Task tracking cancelled")
			}
			return

		case <-p.deadline.C():
			p.timeOut()
			return

		case <-p.ticker.C():
			if inFlight {
				p.logger.Debugf("Skipping tick, a status fetch is still in flight")
				continue
			}
			inFlight = true
			go func() {
				s, err := p.fetch(ctx)
				p.results <- fetchResult{snapshot: s, err: err}
			}()

		case r := <-p.results:
			inFlight = false
			// Let the cancellation win over a fetch aborted by it.
			if ctx.Err() != nil {
				continue
			}
			// The deadline wins over a result that arrived at the same time.
			select {
			case <-p.deadline.C():
				p.timeOut()
				return
			default:
			}
			if p.apply(r) {
				return
			}
		}
	}
}

// apply translates a fetch result into a tracker transition and returns true
// when polling must stop.
func (p *poller) apply(r fetchResult) bool {
	if r.err != nil {
		ok := p.tracker.transition(p.gen, model.TrackerState{
			Status:  model.TrackerStatusFailed,
			Kind:    p.handle.Kind,
			Handle:  &p.handle,
			Failure: &model.Failure{Reason: model.FailurePollTransport, Message: r.err.Error()},
		})
		if ok {
			p.logger.Errorf("Could not get task status: %s", r.err)
		}
		return true
	}

	s := r.snapshot.Normalize()
	if s.TaskID == "" {
		s.TaskID = p.handle.TaskID
	}
	if s.Kind == "" {
		s.Kind = p.handle.Kind
	}

	st := model.TrackerState{
		Kind:     p.handle.Kind,
		Handle:   &p.handle,
		Snapshot: &s,
	}

	switch s.Phase {
	case model.TaskPhaseCompleted:
		d := reconcile.Reconcile(s)
		st.Status = model.TrackerStatusCompleted
		st.Display = &d
	case model.TaskPhaseFailed:
		d := reconcile.Reconcile(s)
		st.Status = model.TrackerStatusFailed
		st.Display = &d
		st.Failure = &model.Failure{Reason: model.FailureServerReported, Message: reconcile.FailureMessage(s.Error)}
	default:
		st.Status = model.TrackerStatusRunning
	}

	if !p.tracker.transition(p.gen, st) {
		return true
	}

	if st.Status.IsTerminal() {
		p.logger.Infof("Task finished: %s", st.Status)
		return true
	}

	p.logger.Debugf("Task %s at %.1f%%: %s", s.Phase, s.Progress, s.CurrentStep)
	return false
}

func (p *poller) timeOut() {
	if p.tracker.transition(p.gen, model.TrackerState{
		Status: model.TrackerStatusTimedOut,
		Kind:   p.handle.Kind,
		Handle: &p.handle,
	}) {
		p.logger.Warningf("Task timed out")
	}
}

func (p *poller) cancelled() model.TrackerState {
	return model.TrackerState{
		Status: model.TrackerStatusCancelled,
		Kind:   p.handle.Kind,
		Handle: &p.handle,
	}
}

// fetch gets the task status retrying transport errors with exponential backoff.
func (p *poller) fetch(ctx context.Context) (*model.TaskSnapshot, error) {
	t := p.tracker

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.retryInitialInterval
	b.MaxElapsedTime = 0
	b.Clock = t.clock
	b.Reset()

	var snapshot *model.TaskSnapshot
	op := func() error {
		s, err := t.client.GetTaskStatus(ctx, p.handle.TaskID)
		if err != nil {
			if ctx.Err() != nil || !errors.Is(err, model.ErrTransport) {
				return backoff.Permanent(err)
			}
			return err
		}
		if s == nil {
			return backoff.Permanent(fmt.Errorf("empty status response: %w", model.ErrTransport))
		}
		snapshot = s
		return nil
	}

	notify := func(err error, d time.Duration) {
		p.logger.Warningf("Status fetch failed, retrying in %s: %s", d, err)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(t.retries)), ctx)
	err := backoff.RetryNotifyWithTimer(op, bo, notify, &backoffTimer{clock: t.clock})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// backoffTimer runs the backoff waits on the tracker clock.
type backoffTimer struct {
	clock clock.Clock
	timer clock.Timer
}

func (b *backoffTimer) Start(d time.Duration) {
	if b.timer == nil {
		b.timer = b.clock.NewTimer(d)
		return
	}
	b.timer.Reset(d)
}

func (b *backoffTimer) Stop() {
	if b.timer != nil {
		b.timer.Stop()
	}
}

func (b *backoffTimer) C() <-chan time.Time {
	return b.timer.C()
}
