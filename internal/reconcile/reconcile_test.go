package reconcile_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/reconcile"
)

func f64(f float64) *float64 { return &f }
func str(s string) *string { return &s }

const dragonResult = `{
	"sector": "banks",
	"timestamp": "2026-01-30T10:15:30.000001",
	"dragons": [
		{"id": 1, "symbol": "600036", "name": "CMB", "industry": "banks", "market_cap": 900000000000, "pe_ratio": 6.5, "pb_ratio": null},
		{"id": 2, "symbol": "601398", "name": "ICBC", "industry": "banks", "market_cap": 1800000000000, "pe_ratio": 5.1, "pb_ratio": 0.6}
	],
	"top_stocks": [
		{"id": 1, "symbol": "600036", "name": "CMB", "industry": "banks", "market_cap": 900000000000, "pe_ratio": 6.5, "pb_ratio": null}
	],
	"all_ranked": [
		{"stock": {"symbol": "601398", "name": "ICBC", "industry": "banks"}, "score": 40.5, "price_change_pct": 1.25, "avg_volume": 120000000},
		{"stock": {"symbol": "600036", "name": "CMB", "industry": "banks"}, "score": 55.1, "price_change_pct": -2.5, "avg_volume": 80000000}
	],
	"total_analyzed": 42
}`

func TestReconcile(t *testing.T) {
	generatedAt := time.Date(2026, 1, 30, 10, 15, 30, 1000, time.UTC)

	tests := map[string]struct {
		snapshot   model.TaskSnapshot
		expDisplay model.DisplayModel
	}{
		"A completed sector leaders task should be mapped into ranking tables.": {
			snapshot: model.TaskSnapshot{
				TaskID: "t1",
				Kind:   model.AnalysisKindDragon,
				Phase:  model.TaskPhaseCompleted,
				Result: json.RawMessage(dragonResult),
			},
			expDisplay: model.DisplayModel{
				TaskID:        "t1",
				Kind:          model.AnalysisKindDragon,
				Success:       true,
				Title:         "Sector leaders",
				Sector:        "banks",
				GeneratedAt:   &generatedAt,
				TotalAnalyzed: 42,
				Leaders: []model.StockRow{
					{Symbol: "600036", Name: "CMB", Industry: "banks", MarketCap: f64(900000000000), PERatio: f64(6.5)},
					{Symbol: "601398", Name: "ICBC", Industry: "banks", MarketCap: f64(1800000000000), PERatio: f64(5.1), PBRatio: f64(0.6)},
				},
				TopStocks: []model.StockRow{
					{Symbol: "600036", Name: "CMB", Industry: "banks", MarketCap: f64(900000000000), PERatio: f64(6.5)},
				},
				Ranking: []model.RankingRow{
					{Rank: 1, Stock: model.StockRow{Symbol: "600036", Name: "CMB", Industry: "banks"}, Score: 55.1, PriceChangePct: -2.5, AvgVolume: 80000000},
					{Rank: 2, Stock: model.StockRow{Symbol: "601398", Name: "ICBC", Industry: "banks"}, Score: 40.5, PriceChangePct: 1.25, AvgVolume: 120000000},
				},
			},
		},

		"A completed task with an empty sector should keep the server message.": {
			snapshot: model.TaskSnapshot{
				TaskID: "t2",
				Kind:   model.AnalysisKindDragon,
				Phase:  model.TaskPhaseCompleted,
				Result: json.RawMessage(`{"sector": "none", "dragons": [], "top_stocks": [], "message": "no stocks found"}`),
			},
			expDisplay: model.DisplayModel{
				TaskID:    "t2",
				Kind:      model.AnalysisKindDragon,
				Success:   true,
				Title:     "Sector leaders",
				Message:   "no stocks found",
				Sector:    "none",
				Leaders:   []model.StockRow{},
				TopStocks: []model.StockRow{},
			},
		},

		"A completed task of another kind should use the generic layout.": {
			snapshot: model.TaskSnapshot{
				TaskID: "t3",
				Kind:   model.AnalysisKindInstitutional,
				Phase:  model.TaskPhaseCompleted,
				Result: json.RawMessage(`{
					"filters": {"min_holders": 3},
					"institutional_heavy_holding": [{"symbol": "000001", "name": "PAB"}],
					"top_candidates": [{"stock": {"symbol": "000001", "name": "PAB"}, "score": 12.5, "avg_volume": 100, "price_volatility": null}],
					"ratio": 0.25,
					"enabled": true,
					"notes": null
				}`),
			},
			expDisplay: model.DisplayModel{
				TaskID:  "t3",
				Kind:    model.AnalysisKindInstitutional,
				Success: true,
				Title:   "Institutional holdings",
				Leaders: []model.StockRow{{Symbol: "000001", Name: "PAB"}},
				Ranking: []model.RankingRow{
					{Rank: 1, Stock: model.StockRow{Symbol: "000001", Name: "PAB"}, Score: 12.5, AvgVolume: 100},
				},
				Fields: []model.DisplayField{
					{Key: "enabled", Value: "true"},
					{Key: "filters", Value: "1 field"},
					{Key: "notes", Value: "-"},
					{Key: "ratio", Value: "0.25"},
				},
			},
		},

		"A completed task with a non object result should be summarized.": {
			snapshot: model.TaskSnapshot{
				TaskID: "t4",
				Kind:   "custom",
				Phase:  model.TaskPhaseCompleted,
				Result: json.RawMessage(`[1, 2, 3]`),
			},
			expDisplay: model.DisplayModel{
				TaskID:  "t4",
				Kind:    "custom",
				Success: true,
				Title:   "Analysis custom",
				Fields:  []model.DisplayField{{Key: "result", Value: "3 items"}},
			},
		},

		"A failed task should use the server message.": {
			snapshot: model.TaskSnapshot{
				TaskID: "t5",
				Kind:   model.AnalysisKindDragon,
				Phase:  model.TaskPhaseFailed,
				Error:  str("  database is down "),
			},
			expDisplay: model.DisplayModel{
				TaskID:  "t5",
				Kind:    model.AnalysisKindDragon,
				Title:   "Sector leaders",
				Message: "database is down",
			},
		},

		"A failed task without message should use the generic message.": {
			snapshot: model.TaskSnapshot{
				TaskID: "t6",
				Kind:   model.AnalysisKindDragon,
				Phase:  model.TaskPhaseFailed,
				Error:  str(""),
			},
			expDisplay: model.DisplayModel{
				TaskID:  "t6",
				Kind:    model.AnalysisKindDragon,
				Title:   "Sector leaders",
				Message: reconcile.GenericFailureMessage,
			},
		},

		"A failed task with nil error should use the generic message.": {
			snapshot: model.TaskSnapshot{
				TaskID: "t7",
				Phase:  model.TaskPhaseFailed,
			},
			expDisplay: model.DisplayModel{
				TaskID:  "t7",
				Title:   "Analysis",
				Message: reconcile.GenericFailureMessage,
			},
		},

		"A running task should not be reconciled as a result.": {
			snapshot: model.TaskSnapshot{
				TaskID: "t8",
				Kind:   model.AnalysisKindDragon,
				Phase:  model.TaskPhaseRunning,
			},
			expDisplay: model.DisplayModel{
				TaskID:  "t8",
				Kind:    model.AnalysisKindDragon,
				Title:   "Sector leaders",
				Message: "task has not finished (running)",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			got := reconcile.Reconcile(test.snapshot)
			assert.Equal(test.expDisplay, got)

			// Same input, same output.
			assert.Equal(got, reconcile.Reconcile(test.snapshot))
		})
	}
}
