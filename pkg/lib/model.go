package lib

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/slok/stockwatch/internal/app/status"
	"github.com/slok/stockwatch/internal/model"
)

// BackendType identifies the analysis server implementation.
type BackendType string

const (
	// BackendREST uses the analysis server HTTP API.
	BackendREST BackendType = "rest"

	// BackendFake uses an in-memory analysis server.
	// Use this for testing without a running server. Only the dragon analysis
	// succeeds, like on the real server.
	BackendFake BackendType = "fake"
)

// AnalysisKind identifies the analysis a task runs.
type AnalysisKind string

const (
	// AnalysisDragon ranks the leaders of a sector (param: sector).
	AnalysisDragon AnalysisKind = "dragon"
	// AnalysisInstitutional selects stocks with heavy institutional holdings.
	AnalysisInstitutional AnalysisKind = "institutional"
	// AnalysisSmallCapLeader selects small cap sector leaders (param: max_market_cap).
	AnalysisSmallCapLeader AnalysisKind = "small_cap_leader"
	// AnalysisSmallCapHot selects small cap stocks with momentum (param: max_market_cap).
	AnalysisSmallCapHot AnalysisKind = "small_cap_hot"
	// AnalysisUndervalued selects undervalued stocks.
	AnalysisUndervalued AnalysisKind = "undervalued"
)

// Analysis describes a supported analysis kind.
type Analysis struct {
	Kind        AnalysisKind
	Description string
	// DefaultParams are the params sent when none are passed.
	DefaultParams map[string]any
}

// Status is the tracking status of a task.
//
// The lifecycle is:
//
//	idle -> starting -> running -> completed | failed | timed_out | cancelled
//
// A task can also fail while starting.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
	StatusCancelled Status = "cancelled"
)

// FailureReason tells why a task failed.
type FailureReason string

const (
	// FailureLaunch means the task could not be started.
	FailureLaunch FailureReason = "launch"
	// FailurePollTransport means the server could not be reached while polling.
	FailurePollTransport FailureReason = "poll_transport"
	// FailureServerReported means the server ran the task and it failed.
	FailureServerReported FailureReason = "server_reported"
)

// Failure describes a failed task.
type Failure struct {
	Reason  FailureReason
	Message string
}

// Progress is the progress of a tracked task.
type Progress struct {
	Status Status
	TaskID string
	// Progress is the server reported progress in the 0-100 range.
	Progress float64
	Step     string
	Item     string
}

// Stock is a stock of an analysis result.
type Stock struct {
	Symbol   string
	Name     string
	Industry string
	// Optional metrics, nil when the server doesn't have them.
	MarketCap *float64
	PERatio   *float64
	PBRatio   *float64
}

// RankedStock is a stock of an analysis ranking.
type RankedStock struct {
	Rank           int
	Stock          Stock
	Score          float64
	PriceChangePct float64
	AvgVolume      int64
}

// Field is a result value without a typed place.
type Field struct {
	Key   string
	Value string
}

// Result is the final state of a tracked task.
type Result struct {
	Status  Status
	TaskID  string
	Kind    AnalysisKind
	Failure *Failure
	// Elapsed is the time the task was tracked.
	Elapsed time.Duration

	// The analysis data, only set on completed tasks.
	Title         string
	Message       string
	Sector        string
	GeneratedAt   *time.Time
	TotalAnalyzed int
	Leaders       []Stock
	Ranking       []RankedStock
	TopStocks     []Stock
	Fields        []Field
	// Raw is the result as the server sent it.
	Raw json.RawMessage
}

// TaskStatus is the status of a task on the server.
type TaskStatus struct {
	TaskID      string
	Kind        AnalysisKind
	Phase       string
	Progress    float64
	Step        string
	Item        string
	Error       string
	CreatedAt   *time.Time
	CompletedAt *time.Time
	// Result is only set when the task finished.
	Result *Result
}

// AnalyzeOpts are the options of an analysis run.
type AnalyzeOpts struct {
	// OnProgress is called while the task is tracked. Intermediate progress
	// can be skipped, the final one is always received.
	OnProgress func(Progress)
}

// --- Error sentinels ---

var (
	// ErrNotFound is returned when the task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when the input is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrTaskActive is returned when the client is already tracking a task.
	ErrTaskActive = errors.New("task already active")
	// ErrLaunch is returned when the server could not start the task.
	ErrLaunch = errors.New("launch failed")
)

// --- Conversion helpers ---

func toInternalDefaultParams(params map[AnalysisKind]map[string]any) map[model.AnalysisKind]model.AnalysisParams {
	if len(params) == 0 {
		return nil
	}

	out := make(map[model.AnalysisKind]model.AnalysisParams, len(params))
	for k, p := range params {
		out[model.AnalysisKind(k)] = p
	}
	return out
}

func fromInternalProgress(st model.TrackerState) Progress {
	p := Progress{
		Status: Status(st.Status),
		TaskID: st.TaskID(),
	}
	if st.Snapshot != nil {
		p.Progress = st.Snapshot.Progress
		p.Step = st.Snapshot.CurrentStep
		p.Item = st.Snapshot.CurrentItem
	}
	return p
}

func fromInternalState(st model.TrackerState) Result {
	r := Result{
		Status: Status(st.Status),
		TaskID: st.TaskID(),
		Kind:   AnalysisKind(st.Kind),
	}

	if st.Handle != nil {
		r.Elapsed = st.UpdatedAt.Sub(st.Handle.LaunchedAt)
	}

	if st.Failure != nil {
		r.Failure = &Failure{
			Reason:  FailureReason(st.Failure.Reason),
			Message: st.Failure.Message,
		}
	}

	if st.Status == model.TrackerStatusCompleted && st.Display != nil {
		setDisplay(&r, *st.Display)
		if st.Snapshot != nil {
			r.Raw = st.Snapshot.Result
		}
	}

	return r
}

func setDisplay(r *Result, d model.DisplayModel) {
	r.Title = d.Title
	r.Message = d.Message
	r.Sector = d.Sector
	r.GeneratedAt = d.GeneratedAt
	r.TotalAnalyzed = d.TotalAnalyzed
	r.Leaders = fromInternalStocks(d.Leaders)
	r.TopStocks = fromInternalStocks(d.TopStocks)

	for _, rr := range d.Ranking {
		r.Ranking = append(r.Ranking, RankedStock{
			Rank:           rr.Rank,
			Stock:          fromInternalStock(rr.Stock),
			Score:          rr.Score,
			PriceChangePct: rr.PriceChangePct,
			AvgVolume:      rr.AvgVolume,
		})
	}

	for _, f := range d.Fields {
		r.Fields = append(r.Fields, Field{Key: f.Key, Value: f.Value})
	}
}

func fromInternalStocks(ss []model.StockRow) []Stock {
	if len(ss) == 0 {
		return nil
	}

	out := make([]Stock, 0, len(ss))
	for _, s := range ss {
		out = append(out, fromInternalStock(s))
	}
	return out
}

func fromInternalStock(s model.StockRow) Stock {
	return Stock{
		Symbol:    s.Symbol,
		Name:      s.Name,
		Industry:  s.Industry,
		MarketCap: s.MarketCap,
		PERatio:   s.PERatio,
		PBRatio:   s.PBRatio,
	}
}

func fromInternalTaskStatus(res status.Result) TaskStatus {
	s := res.Snapshot
	ts := TaskStatus{
		TaskID:      s.TaskID,
		Kind:        AnalysisKind(s.Kind),
		Phase:       string(s.Phase),
		Progress:    s.Progress,
		Step:        s.CurrentStep,
		Item:        s.CurrentItem,
		CreatedAt:   s.CreatedAt,
		CompletedAt: s.CompletedAt,
	}
	if s.Error != nil {
		ts.Error = *s.Error
	}

	if res.Display != nil {
		r := Result{
			TaskID: s.TaskID,
			Kind:   AnalysisKind(s.Kind),
		}
		switch s.Phase {
		case model.TaskPhaseCompleted:
			r.Status = StatusCompleted
			r.Raw = s.Result
			setDisplay(&r, *res.Display)
		default:
			r.Status = StatusFailed
			r.Failure = &Failure{Reason: FailureServerReported, Message: res.Display.Message}
		}
		ts.Result = &r
	}

	return ts
}

func fromInternalAnalyses(infos []model.AnalysisInfo) []Analysis {
	out := make([]Analysis, 0, len(infos))
	for _, a := range infos {
		out = append(out, Analysis{
			Kind:          AnalysisKind(a.Kind),
			Description:   a.Description,
			DefaultParams: a.DefaultParams,
		})
	}
	return out
}

// --- Error mapping ---

func mapError(err error) error {
	if err == nil {
		return nil
	}

	// Most specific first, a launch error can wrap a not valid one.
	switch {
	case errors.Is(err, model.ErrTaskActive):
		return joinErrors(err, ErrTaskActive)
	case errors.Is(err, model.ErrLaunch):
		return joinErrors(err, ErrLaunch)
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
