package printer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/printer"
)

func f64(f float64) *float64 { return &f }

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func completedStateFixture() model.TrackerState {
	launchedAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	generatedAt := time.Date(2026, 1, 30, 10, 0, 40, 0, time.UTC)
	handle := model.TaskHandle{
		TaskID:     "abc-123",
		Kind:       model.AnalysisKindDragon,
		LaunchID:   "01H2QWERTYASDFGZXCVBNMLKJH",
		Generation: 1,
		LaunchedAt: launchedAt,
	}

	return model.TrackerState{
		Status:     model.TrackerStatusCompleted,
		Generation: 1,
		Kind:       model.AnalysisKindDragon,
		Handle:     &handle,
		Snapshot: &model.TaskSnapshot{
			TaskID:   "abc-123",
			Kind:     model.AnalysisKindDragon,
			Phase:    model.TaskPhaseCompleted,
			Progress: 100,
			Result:   json.RawMessage(`{"sector":"banks"}`),
		},
		Display: &model.DisplayModel{
			TaskID:        "abc-123",
			Kind:          model.AnalysisKindDragon,
			Success:       true,
			Title:         "Sector leaders",
			Sector:        "banks",
			GeneratedAt:   &generatedAt,
			TotalAnalyzed: 42,
			Leaders: []model.StockRow{
				{Symbol: "600036", Name: "CMB", Industry: "banks", MarketCap: f64(9.1e11), PERatio: f64(6.4)},
			},
			Ranking: []model.RankingRow{
				{Rank: 1, Stock: model.StockRow{Symbol: "600036", Name: "CMB"}, Score: 55.1, PriceChangePct: -2.5, AvgVolume: 80000000},
			},
			Fields: []model.DisplayField{{Key: "ratio", Value: "0.25"}},
		},
		UpdatedAt: generatedAt.Add(5 * time.Second),
	}
}

func TestTablePrinterPrintState(t *testing.T) {
	tests := map[string]struct {
		state    model.TrackerState
		expOut   []string
		expNoOut []string
	}{
		"A completed state should print the result tables.": {
			state: completedStateFixture(),
			expOut: []string{
				"Task:       abc-123",
				"Status:     completed",
				"Elapsed:    45s",
				"Sector leaders",
				"Sector:     banks",
				"Generated:  2026-01-30 10:00:40 UTC",
				"Analyzed:   42 stocks",
				"910.0B",
				"6.40",
				"-2.50%",
				"80.0M",
				"ratio",
			},
			expNoOut: []string{"Progress:"},
		},

		"A running state should print the progress.": {
			state: model.TrackerState{
				Status: model.TrackerStatusRunning,
				Kind:   model.AnalysisKindDragon,
				Handle: &model.TaskHandle{TaskID: "abc-123"},
				Snapshot: &model.TaskSnapshot{
					TaskID:      "abc-123",
					Phase:       model.TaskPhaseRunning,
					Progress:    42.5,
					CurrentStep: "analyzing 4/10",
					CurrentItem: "CMB(600036)",
				},
			},
			expOut: []string{
				"Status:     running",
				"Progress:   42.5%",
				"Step:       analyzing 4/10",
				"Item:       CMB(600036)",
			},
		},

		"A failed launch should print the failure.": {
			state: model.TrackerState{
				Status:  model.TrackerStatusFailed,
				Kind:    model.AnalysisKindDragon,
				Failure: &model.Failure{Reason: model.FailureLaunch, Message: "connection refused"},
			},
			expOut: []string{
				"Status:     failed",
				"Failure:    launch",
				"Error:      connection refused",
			},
			expNoOut: []string{"Task:", "Elapsed:"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			err := p.PrintState(test.state)
			require.NoError(t, err)

			out := buf.String()
			for _, exp := range test.expOut {
				assert.Contains(t, out, exp)
			}
			for _, exp := range test.expNoOut {
				assert.NotContains(t, out, exp)
			}
		})
	}
}

func TestJSONPrinterPrintState(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintState(completedStateFixture())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "completed", got["status"])
	assert.Equal(t, "abc-123", got["task_id"])
	assert.Equal(t, "01H2QWERTYASDFGZXCVBNMLKJH", got["launch_id"])

	snapshot := got["snapshot"].(map[string]any)
	assert.Equal(t, map[string]any{"sector": "banks"}, snapshot["result"])

	display := got["display"].(map[string]any)
	assert.Equal(t, "Sector leaders", display["title"])
	assert.Equal(t, true, display["success"])
	assert.Len(t, display["leaders"], 1)
	assert.Len(t, display["ranking"], 1)
}

func TestPrintSnapshot(t *testing.T) {
	createdAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	errMsg := "unsupported task type: magic"
	s := model.TaskSnapshot{
		TaskID:    "abc-123",
		Kind:      "magic",
		Phase:     model.TaskPhaseFailed,
		Error:     &errMsg,
		CreatedAt: &createdAt,
	}

	var tableBuf bytes.Buffer
	require.NoError(t, printer.NewTablePrinter(&tableBuf).PrintSnapshot(s, nil))
	assert.Contains(t, tableBuf.String(), "Phase:      failed")
	assert.Contains(t, tableBuf.String(), "Created:    2026-01-30 10:00:00 UTC")
	assert.Contains(t, tableBuf.String(), "Error:      unsupported task type: magic")

	var jsonBuf bytes.Buffer
	require.NoError(t, printer.NewJSONPrinter(&jsonBuf).PrintSnapshot(s, nil))
	assert.Contains(t, jsonBuf.String(), `"phase": "failed"`)
	assert.Contains(t, jsonBuf.String(), `"error": "unsupported task type: magic"`)
	assert.NotContains(t, jsonBuf.String(), `"result"`)
	assert.NotContains(t, jsonBuf.String(), `"display"`)
}

func TestPrintSnapshotWithDisplay(t *testing.T) {
	st := completedStateFixture()

	var tableBuf bytes.Buffer
	require.NoError(t, printer.NewTablePrinter(&tableBuf).PrintSnapshot(*st.Snapshot, st.Display))
	assert.Contains(t, tableBuf.String(), "Phase:      completed")
	assert.Contains(t, tableBuf.String(), "Sector leaders")
	assert.Contains(t, tableBuf.String(), "Leaders:")

	var jsonBuf bytes.Buffer
	require.NoError(t, printer.NewJSONPrinter(&jsonBuf).PrintSnapshot(*st.Snapshot, st.Display))
	var got map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &got))
	assert.Equal(t, "completed", got["phase"])
	assert.Equal(t, map[string]any{"sector": "banks"}, got["result"])
	display := got["display"].(map[string]any)
	assert.Equal(t, "banks", display["sector"])
}

func TestPrintKinds(t *testing.T) {
	var tableBuf bytes.Buffer
	require.NoError(t, printer.NewTablePrinter(&tableBuf).PrintKinds(model.Analyses()))
	lines := strings.Split(strings.TrimSpace(tableBuf.String()), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "KIND"))
	assert.True(t, strings.HasPrefix(lines[1], "dragon"))

	var jsonBuf bytes.Buffer
	require.NoError(t, printer.NewJSONPrinter(&jsonBuf).PrintKinds(model.Analyses()))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &got))
	require.Len(t, got, 5)
	assert.Equal(t, "dragon", got[0]["kind"])
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}

func TestProgressBar(t *testing.T) {
	var buf safeBuffer
	pb := printer.NewProgressBar(&buf, "dragon", log.Noop)

	// Stopping a bar that never started is a no-op.
	pb.Stop()

	pb.Start()
	pb.Update(model.TrackerState{
		Status:   model.TrackerStatusRunning,
		Snapshot: &model.TaskSnapshot{Phase: model.TaskPhaseRunning, Progress: 40, CurrentStep: "analyzing"},
	})
	pb.Update(completedStateFixture())
	pb.Stop()
	pb.Stop()

	out := buf.String()
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "dragon: completed")
}

func TestProgressBarOutOfRangeProgress(t *testing.T) {
	var buf safeBuffer
	pb := printer.NewProgressBar(&buf, "dragon", nil)

	pb.Start()
	pb.Update(model.TrackerState{
		Status:   model.TrackerStatusRunning,
		Snapshot: &model.TaskSnapshot{Phase: model.TaskPhaseRunning, Progress: 140, CurrentStep: "analyzing"},
	})
	pb.Stop()

	assert.Contains(t, buf.String(), "100%")
}

func historyFixture() []model.TaskRecord {
	t0 := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	return []model.TaskRecord{
		{
			LaunchID:   "01H2QWERTYASDFGZXCVBNMLKJH",
			TaskID:     "abc-123",
			Kind:       model.AnalysisKindDragon,
			Status:     model.TrackerStatusCompleted,
			Params:     model.AnalysisParams{"sector": "banks", "limit": 10},
			Result:     json.RawMessage(`{"sector":"banks"}`),
			LaunchedAt: t0,
			FinishedAt: t0.Add(45 * time.Second),
		},
		{
			LaunchID:       "01H2QWERTYASDFGZXCVBNMLKJA",
			TaskID:         "def-456",
			Kind:           model.AnalysisKindUndervalued,
			Status:         model.TrackerStatusFailed,
			FailureReason:  model.FailureServerReported,
			FailureMessage: "unsupported task type: undervalued",
			LaunchedAt:     t0.Add(-2 * time.Hour),
			FinishedAt:     t0.Add(-2*time.Hour + 3*time.Second),
		},
	}
}

func TestPrintHistory(t *testing.T) {
	now := time.Date(2026, 1, 30, 10, 5, 0, 0, time.UTC)

	var tableBuf bytes.Buffer
	require.NoError(t, printer.NewTablePrinterAt(&tableBuf, now).PrintHistory(historyFixture()))
	lines := strings.Split(strings.TrimSpace(tableBuf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "LAUNCH"))
	assert.Contains(t, lines[1], "abc-123")
	assert.Contains(t, lines[1], "5 minutes ago")
	assert.Contains(t, lines[1], "45s")
	assert.Contains(t, lines[2], "failed")
	assert.Contains(t, lines[2], "2 hours ago")

	var emptyBuf bytes.Buffer
	require.NoError(t, printer.NewTablePrinter(&emptyBuf).PrintHistory(nil))
	assert.Equal(t, "No tasks found", strings.TrimSpace(emptyBuf.String()))

	var jsonBuf bytes.Buffer
	require.NoError(t, printer.NewJSONPrinter(&jsonBuf).PrintHistory(historyFixture()))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "abc-123", got[0]["task_id"])
	assert.Equal(t, map[string]any{"sector": "banks"}, got[0]["result"])
	assert.Nil(t, got[0]["failure"])
	assert.Equal(t, "server_reported", got[1]["failure"].(map[string]any)["reason"])

	var emptyJSON bytes.Buffer
	require.NoError(t, printer.NewJSONPrinter(&emptyJSON).PrintHistory(nil))
	assert.Equal(t, "[]", strings.TrimSpace(emptyJSON.String()))
}

func TestPrintTaskRecord(t *testing.T) {
	records := historyFixture()
	display := completedStateFixture().Display

	var tableBuf bytes.Buffer
	require.NoError(t, printer.NewTablePrinter(&tableBuf).PrintTaskRecord(records[0], display))
	out := tableBuf.String()
	assert.Contains(t, out, "Launch:     01H2QWERTYASDFGZXCVBNMLKJH")
	assert.Contains(t, out, "Launched:   2026-01-30 10:00:00 UTC")
	assert.Contains(t, out, "Elapsed:    45s")
	assert.Contains(t, out, "limit   10")
	assert.Contains(t, out, "sector  banks")
	assert.Contains(t, out, "Sector leaders")
	assert.NotContains(t, out, "Failure:")

	var failedBuf bytes.Buffer
	require.NoError(t, printer.NewTablePrinter(&failedBuf).PrintTaskRecord(records[1], nil))
	assert.Contains(t, failedBuf.String(), "Failure:    server_reported")
	assert.Contains(t, failedBuf.String(), "Error:      unsupported task type: undervalued")
	assert.NotContains(t, failedBuf.String(), "Params:")

	var jsonBuf bytes.Buffer
	require.NoError(t, printer.NewJSONPrinter(&jsonBuf).PrintTaskRecord(records[0], display))
	var got map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &got))
	assert.Equal(t, "completed", got["status"])
	assert.Equal(t, "2026-01-30T10:00:45Z", got["finished_at"])
	assert.Equal(t, "banks", got["params"].(map[string]any)["sector"])
	assert.Equal(t, "Sector leaders", got["display"].(map[string]any)["title"])
}
