package printer

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/gosuri/uiprogress/util/strutil"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
)

const (
	progressBarWidth  = 40
	progressInfoWidth = 45
)

// ProgressBar renders the progress of a tracked task on a terminal.
type ProgressBar struct {
	mu       sync.Mutex
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
	title    string
	status   string
	logger   log.Logger
	started  bool
	stopped  bool
}

// NewProgressBar returns a progress bar that writes on w.
func NewProgressBar(w io.Writer, title string, logger log.Logger) *ProgressBar {
	if logger == nil {
		logger = log.Noop
	}

	p := uiprogress.New()
	p.SetOut(w)
	p.SetRefreshInterval(100 * time.Millisecond)

	pb := &ProgressBar{
		progress: p,
		title:    title,
		status:   "starting",
		logger:   logger.WithValues(log.Kv{"svc": "printer.ProgressBar"}),
	}

	pb.bar = p.AddBar(100).AppendCompleted()
	pb.bar.Width = progressBarWidth
	pb.bar.PrependFunc(func(b *uiprogress.Bar) string {
		pb.mu.Lock()
		defer pb.mu.Unlock()
		return strutil.Resize(fmt.Sprintf("%s: %s", pb.title, pb.status), progressInfoWidth)
	})

	return pb
}

// Start starts rendering.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true
	p.progress.Start()
}

// Update renders a tracker state.
func (p *ProgressBar) Update(st model.TrackerState) {
	status := string(st.Status)
	progress := -1

	switch {
	case st.Status == model.TrackerStatusCompleted:
		progress = 100
	case st.Snapshot != nil && st.Status == model.TrackerStatusRunning:
		progress = int(st.Snapshot.Progress)
		status = stepStatus(*st.Snapshot)
	}

	p.mu.Lock()
	p.status = status
	p.mu.Unlock()

	if progress >= 0 {
		// Servers can go back, show it as it is.
		if err := p.bar.Set(max(min(progress, 100), 0)); err != nil {
			p.logger.Debugf("Could not set progress: %s", err)
		}
	}
}

// Stop renders the last state and stops rendering.
func (p *ProgressBar) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.progress.Stop()
}

func stepStatus(s model.TaskSnapshot) string {
	switch {
	case s.CurrentStep != "" && s.CurrentItem != "":
		return fmt.Sprintf("%s (%s)", s.CurrentStep, s.CurrentItem)
	case s.CurrentStep != "":
		return s.CurrentStep
	}
	return string(s.Phase)
}
