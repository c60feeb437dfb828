package model

import "time"

// DisplayModel is what rendering needs to show a finished task.
type DisplayModel struct {
	TaskID  string
	Kind    AnalysisKind
	Success bool
	Title   string
	// Message is the user facing failure message, or an informative note on success.
	Message string

	Sector        string
	GeneratedAt   *time.Time
	TotalAnalyzed int
	// Leaders are the top ranked stocks (top two for sector leaders).
	Leaders   []StockRow
	TopStocks []StockRow
	Ranking   []RankingRow
	// Fields is a flat summary for results without a specific layout.
	Fields []DisplayField
}

// StockRow is a stock as shown in result tables.
type StockRow struct {
	Symbol    string
	Name      string
	Industry  string
	MarketCap *float64
	PERatio   *float64
	PBRatio   *float64
}

// RankingRow is a ranked stock with its score breakdown.
type RankingRow struct {
	Rank           int
	Stock          StockRow
	Score          float64
	PriceChangePct float64
	AvgVolume      int64
}

// DisplayField is a key/value pair of a generic result summary.
type DisplayField struct {
	Key   string
	Value string
}
