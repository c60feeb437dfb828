package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/stockwatch/internal/model"
)

// JSONPrinter prints analysis task information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// stateOutput represents the tracker state output.
type stateOutput struct {
	Status     string          `json:"status"`
	Generation uint64          `json:"generation"`
	Kind       string          `json:"kind,omitempty"`
	TaskID     string          `json:"task_id,omitempty"`
	LaunchID   string          `json:"launch_id,omitempty"`
	LaunchedAt *time.Time      `json:"launched_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Snapshot   *snapshotOutput `json:"snapshot,omitempty"`
	Failure    *failureOutput  `json:"failure,omitempty"`
	Display    *displayOutput  `json:"display,omitempty"`
}

// snapshotOutput represents a task status sample output.
type snapshotOutput struct {
	TaskID      string          `json:"task_id"`
	Kind        string          `json:"kind,omitempty"`
	Phase       string          `json:"phase"`
	Progress    float64         `json:"progress"`
	CurrentStep string          `json:"current_step,omitempty"`
	CurrentItem string          `json:"current_item,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *string         `json:"error,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type taskStatusOutput struct {
	snapshotOutput
	Display *displayOutput `json:"display,omitempty"`
}

type failureOutput struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type displayOutput struct {
	Title         string        `json:"title"`
	Success       bool          `json:"success"`
	Message       string        `json:"message,omitempty"`
	Sector        string        `json:"sector,omitempty"`
	GeneratedAt   *time.Time    `json:"generated_at,omitempty"`
	TotalAnalyzed int           `json:"total_analyzed,omitempty"`
	Leaders       []stockOutput `json:"leaders,omitempty"`
	Ranking       []rankOutput  `json:"ranking,omitempty"`
	TopStocks     []stockOutput `json:"top_stocks,omitempty"`
	Fields        []fieldOutput `json:"fields,omitempty"`
}

type stockOutput struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Industry  string   `json:"industry,omitempty"`
	MarketCap *float64 `json:"market_cap"`
	PERatio   *float64 `json:"pe_ratio"`
	PBRatio   *float64 `json:"pb_ratio"`
}

type rankOutput struct {
	Rank           int         `json:"rank"`
	Stock          stockOutput `json:"stock"`
	Score          float64     `json:"score"`
	PriceChangePct float64     `json:"price_change_pct"`
	AvgVolume      int64       `json:"avg_volume"`
}

type fieldOutput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type kindOutput struct {
	Kind          string         `json:"kind"`
	Description   string         `json:"description"`
	DefaultParams map[string]any `json:"default_params"`
}

type recordOutput struct {
	LaunchID   string          `json:"launch_id"`
	TaskID     string          `json:"task_id"`
	Kind       string          `json:"kind"`
	Status     string          `json:"status"`
	Failure    *failureOutput  `json:"failure,omitempty"`
	Params     map[string]any  `json:"params,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	LaunchedAt time.Time       `json:"launched_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Display    *displayOutput  `json:"display,omitempty"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintState prints the tracker state in JSON format.
func (j *JSONPrinter) PrintState(st model.TrackerState) error {
	output := stateOutput{
		Status:     string(st.Status),
		Generation: st.Generation,
		Kind:       string(st.Kind),
		TaskID:     st.TaskID(),
		UpdatedAt:  st.UpdatedAt.UTC(),
	}

	if st.Handle != nil {
		output.LaunchID = st.Handle.LaunchID
		launchedAt := st.Handle.LaunchedAt.UTC()
		output.LaunchedAt = &launchedAt
	}

	if st.Snapshot != nil {
		s := toSnapshotOutput(*st.Snapshot)
		output.Snapshot = &s
	}

	if st.Failure != nil {
		output.Failure = &failureOutput{
			Reason:  string(st.Failure.Reason),
			Message: st.Failure.Message,
		}
	}

	if st.Display != nil {
		d := toDisplayOutput(*st.Display)
		output.Display = &d
	}

	return j.encode(output)
}

// PrintSnapshot prints a task status sample in JSON format.
func (j *JSONPrinter) PrintSnapshot(s model.TaskSnapshot, d *model.DisplayModel) error {
	output := taskStatusOutput{snapshotOutput: toSnapshotOutput(s)}
	if d != nil {
		display := toDisplayOutput(*d)
		output.Display = &display
	}

	return j.encode(output)
}

// PrintKinds prints the supported analyses in JSON format.
func (j *JSONPrinter) PrintKinds(analyses []model.AnalysisInfo) error {
	items := make([]kindOutput, len(analyses))
	for i, a := range analyses {
		items[i] = kindOutput{
			Kind:          string(a.Kind),
			Description:   a.Description,
			DefaultParams: a.DefaultParams,
		}
	}

	return j.encode(items)
}

// PrintHistory prints the finished tasks in JSON format.
func (j *JSONPrinter) PrintHistory(records []model.TaskRecord) error {
	items := make([]recordOutput, 0, len(records))
	for _, r := range records {
		items = append(items, toRecordOutput(r))
	}

	return j.encode(items)
}

// PrintTaskRecord prints a finished task in JSON format.
func (j *JSONPrinter) PrintTaskRecord(r model.TaskRecord, d *model.DisplayModel) error {
	output := toRecordOutput(r)
	if d != nil {
		display := toDisplayOutput(*d)
		output.Display = &display
	}

	return j.encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func toSnapshotOutput(s model.TaskSnapshot) snapshotOutput {
	return snapshotOutput{
		TaskID:      s.TaskID,
		Kind:        string(s.Kind),
		Phase:       string(s.Phase),
		Progress:    s.Progress,
		CurrentStep: s.CurrentStep,
		CurrentItem: s.CurrentItem,
		Result:      s.Result,
		Error:       s.Error,
		CreatedAt:   utcPtr(s.CreatedAt),
		CompletedAt: utcPtr(s.CompletedAt),
	}
}

func toRecordOutput(r model.TaskRecord) recordOutput {
	output := recordOutput{
		LaunchID:   r.LaunchID,
		TaskID:     r.TaskID,
		Kind:       string(r.Kind),
		Status:     string(r.Status),
		Params:     r.Params,
		Result:     r.Result,
		LaunchedAt: r.LaunchedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
	}

	if r.FailureReason != "" {
		output.Failure = &failureOutput{
			Reason:  string(r.FailureReason),
			Message: r.FailureMessage,
		}
	}

	return output
}

func toDisplayOutput(d model.DisplayModel) displayOutput {
	output := displayOutput{
		Title:         d.Title,
		Success:       d.Success,
		Message:       d.Message,
		Sector:        d.Sector,
		GeneratedAt:   utcPtr(d.GeneratedAt),
		TotalAnalyzed: d.TotalAnalyzed,
		Leaders:       toStocksOutput(d.Leaders),
		TopStocks:     toStocksOutput(d.TopStocks),
	}

	for _, r := range d.Ranking {
		output.Ranking = append(output.Ranking, rankOutput{
			Rank:           r.Rank,
			Stock:          toStockOutput(r.Stock),
			Score:          r.Score,
			PriceChangePct: r.PriceChangePct,
			AvgVolume:      r.AvgVolume,
		})
	}

	for _, f := range d.Fields {
		output.Fields = append(output.Fields, fieldOutput{Key: f.Key, Value: f.Value})
	}

	return output
}

func toStocksOutput(stocks []model.StockRow) []stockOutput {
	if len(stocks) == 0 {
		return nil
	}

	out := make([]stockOutput, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, toStockOutput(s))
	}
	return out
}

func toStockOutput(s model.StockRow) stockOutput {
	return stockOutput{
		Symbol:    s.Symbol,
		Name:      s.Name,
		Industry:  s.Industry,
		MarketCap: s.MarketCap,
		PERatio:   s.PERatio,
		PBRatio:   s.PBRatio,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
