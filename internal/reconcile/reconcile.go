package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/utils/isotime"
)

// GenericFailureMessage is used when the server reports a failure without message.
const GenericFailureMessage = "analysis failed: unknown error"

var titles = map[model.AnalysisKind]string{
	model.AnalysisKindDragon:         "Sector leaders",
	model.AnalysisKindInstitutional:  "Institutional holdings",
	model.AnalysisKindSmallCapLeader: "Small cap leaders",
	model.AnalysisKindSmallCapHot:    "Small cap hot stocks",
	model.AnalysisKindUndervalued:    "Undervalued stocks",
}

// Keys of the result payload that have a specific place in the display model,
// in priority order when more than one could apply.
var (
	rankingKeys = []string{"all_ranked", "top_candidates", "ranked"}
	leaderKeys  = []string{"dragons", "institutional_heavy_holding", "leaders"}
	topKeys     = []string{"top_stocks"}
	knownKeys   = map[string]bool{
		"sector": true, "timestamp": true, "message": true, "total_analyzed": true,
		"all_ranked": true, "top_candidates": true, "ranked": true,
		"dragons": true, "institutional_heavy_holding": true, "leaders": true,
		"top_stocks": true,
	}
)

type stockJSON struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Industry  string   `json:"industry"`
	MarketCap *float64 `json:"market_cap"`
	PERatio   *float64 `json:"pe_ratio"`
	PBRatio   *float64 `json:"pb_ratio"`
}

type rankedJSON struct {
	Stock          stockJSON `json:"stock"`
	Score          float64   `json:"score"`
	PriceChangePct float64   `json:"price_change_pct"`
	AvgVolume      float64   `json:"avg_volume"`
}

// Reconcile maps a terminal task snapshot into the display model.
// It doesn't do I/O and the same snapshot always returns the same model.
func Reconcile(s model.TaskSnapshot) model.DisplayModel {
	d := model.DisplayModel{
		TaskID: s.TaskID,
		Kind:   s.Kind,
		Title:  title(s.Kind),
	}

	switch s.Phase {
	case model.TaskPhaseCompleted:
		d.Success = true
		reconcileResult(&d, s.Result)
	case model.TaskPhaseFailed:
		d.Message = FailureMessage(s.Error)
	default:
		d.Message = fmt.Sprintf("task has not finished (%s)", s.Phase)
	}

	return d
}

// FailureMessage returns the user facing message of a server reported error.
func FailureMessage(serverErr *string) string {
	if serverErr == nil {
		return GenericFailureMessage
	}

	msg := strings.TrimSpace(*serverErr)
	if msg == "" {
		return GenericFailureMessage
	}

	return msg
}

func title(k model.AnalysisKind) string {
	if t, ok := titles[k]; ok {
		return t
	}
	if k == "" {
		return "Analysis"
	}
	return fmt.Sprintf("Analysis %s", k)
}

func reconcileResult(d *model.DisplayModel, raw json.RawMessage) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Not an object, show it as a single value.
		d.Fields = []model.DisplayField{{Key: "result", Value: summarize(raw)}}
		return
	}

	d.Sector = decodeString(fields["sector"])
	d.Message = decodeString(fields["message"])
	d.GeneratedAt = isotime.ParsePtr(decodeString(fields["timestamp"]))
	if v, ok := fields["total_analyzed"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil {
			d.TotalAnalyzed = n
		}
	}

	if v, ok := firstPresent(fields, rankingKeys); ok {
		d.Ranking = decodeRanking(v)
	}
	if v, ok := firstPresent(fields, leaderKeys); ok {
		d.Leaders = decodeStocks(v)
	}
	if v, ok := firstPresent(fields, topKeys); ok {
		d.TopStocks = decodeStocks(v)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !knownKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		d.Fields = append(d.Fields, model.DisplayField{Key: k, Value: summarize(fields[k])})
	}
}

func firstPresent(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeStocks(raw json.RawMessage) []model.StockRow {
	var stocks []stockJSON
	if err := json.Unmarshal(raw, &stocks); err != nil {
		return nil
	}

	rows := make([]model.StockRow, 0, len(stocks))
	for _, s := range stocks {
		rows = append(rows, s.toModel())
	}
	return rows
}

func decodeRanking(raw json.RawMessage) []model.RankingRow {
	var ranked []rankedJSON
	if err := json.Unmarshal(raw, &ranked); err != nil {
		return nil
	}

	// Server already sends them sorted by score, keep its order on ties.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	rows := make([]model.RankingRow, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, model.RankingRow{
			Rank:           i + 1,
			Stock:          r.Stock.toModel(),
			Score:          r.Score,
			PriceChangePct: r.PriceChangePct,
			AvgVolume:      int64(r.AvgVolume),
		})
	}
	return rows
}

func (s stockJSON) toModel() model.StockRow {
	return model.StockRow{
		Symbol:    s.Symbol,
		Name:      s.Name,
		Industry:  s.Industry,
		MarketCap: s.MarketCap,
		PERatio:   s.PERatio,
		PBRatio:   s.PBRatio,
	}
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// summarize returns a short human readable representation of a JSON value.
func summarize(raw json.RawMessage) string {
	if isNull(raw) {
		return "-"
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "-"
	}

	switch tv := v.(type) {
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case []any:
		if len(tv) == 1 {
			return "1 item"
		}
		return fmt.Sprintf("%d items", len(tv))
	case map[string]any:
		if len(tv) == 1 {
			return "1 field"
		}
		return fmt.Sprintf("%d fields", len(tv))
	}

	return "-"
}
