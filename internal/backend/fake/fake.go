package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
)

// BackendConfig is the configuration for the fake backend.
type BackendConfig struct {
	// AnalysisSteps is the number of status requests the analysis stage of a task takes.
	AnalysisSteps int
	Logger        log.Logger
}

func (c *BackendConfig) defaults() error {
	if c.AnalysisSteps <= 0 {
		c.AnalysisSteps = 5
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.Fake"})

	return nil
}

// Backend is a fake implementation of backend.Client that simulates the
// server task manager: every status request moves the task one step forward.
// Only sector leader analyses succeed, like on the real server.
type Backend struct {
	tasks  map[string]*task
	steps  int
	mu     sync.Mutex
	logger log.Logger
}

type task struct {
	id          string
	kind        model.AnalysisKind
	params      model.AnalysisParams
	phase       model.TaskPhase
	progress    float64
	step        string
	item        string
	polls       int
	result      json.RawMessage
	err         *string
	createdAt   time.Time
	completedAt *time.Time
}

// NewBackend creates a new fake backend.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Backend{
		tasks:  make(map[string]*task),
		steps:  cfg.AnalysisSteps,
		logger: cfg.Logger,
	}, nil
}

// StartTask creates a pending task.
func (b *Backend) StartTask(ctx context.Context, kind model.AnalysisKind, params model.AnalysisParams) (string, error) {
	if kind == "" {
		return "", fmt.Errorf("task type is required: %w", model.ErrNotValid)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.tasks[id] = &task{
		id:        id,
		kind:      kind,
		params:    params,
		phase:     model.TaskPhasePending,
		step:      "initializing",
		createdAt: time.Now().UTC(),
	}
	b.logger.Infof("Created fake %s task: %s", kind, id)

	return id, nil
}

// GetTaskStatus advances the task one step and returns its status.
func (b *Backend) GetTaskStatus(ctx context.Context, taskID string) (*model.TaskSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
	}

	if !t.phase.IsTerminal() {
		b.advance(t)
	}

	s := &model.TaskSnapshot{
		TaskID:      t.id,
		Kind:        t.kind,
		Phase:       t.phase,
		Progress:    t.progress,
		CurrentStep: t.step,
		CurrentItem: t.item,
		Result:      t.result,
		Error:       t.err,
		CreatedAt:   &t.createdAt,
		CompletedAt: t.completedAt,
	}

	return s, nil
}

func (b *Backend) advance(t *task) {
	t.polls++

	if t.kind != model.AnalysisKindDragon {
		msg := fmt.Sprintf("unsupported task type: %s", t.kind)
		t.phase = model.TaskPhaseFailed
		t.err = &msg
		b.complete(t)
		return
	}

	stocks := sectorStocks(sectorParam(t.params))
	t.phase = model.TaskPhaseRunning

	switch {
	case len(stocks) == 0:
		t.result = mustJSON(map[string]any{
			"sector":     sectorParam(t.params),
			"timestamp":  time.Now().UTC().Format("2006-01-02T15:04:05.999999"),
			"dragons":    []any{},
			"top_stocks": []any{},
			"message":    "no stock data found",
		})
		t.phase = model.TaskPhaseCompleted
		t.progress = 100
		b.complete(t)
	case t.polls <= b.steps:
		i := (t.polls - 1) * len(stocks) / b.steps
		t.progress = float64((t.polls - 1) * 80 / b.steps)
		t.step = fmt.Sprintf("analyzing stock %d/%d", i+1, len(stocks))
		t.item = fmt.Sprintf("%s(%s)", stocks[i].Name, stocks[i].Symbol)
	case t.polls == b.steps+1:
		t.progress = 85
		t.step = "sorting stocks"
		t.item = "sorting..."
	case t.polls == b.steps+2:
		t.progress = 95
		t.step = "generating results"
		t.item = "finishing..."
	default:
		t.result = dragonResult(sectorParam(t.params), stocks)
		t.phase = model.TaskPhaseCompleted
		t.progress = 100
		b.complete(t)
	}
}

func (b *Backend) complete(t *task) {
	now := time.Now().UTC()
	t.completedAt = &now
	b.logger.Infof("Fake task %s finished: %s", t.id, t.phase)
}

type stock struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Industry   string  `json:"industry"`
	MarketCap  float64 `json:"market_cap"`
	PERatio    float64 `json:"pe_ratio"`
	PBRatio    float64 `json:"pb_ratio"`
	priceDelta float64
	avgVolume  float64
}

var universe = []stock{
	{Symbol: "600036", Name: "China Merchants Bank", Industry: "banks", MarketCap: 9.1e11, PERatio: 6.4, PBRatio: 0.9, priceDelta: 3.2, avgVolume: 8.5e7},
	{Symbol: "601398", Name: "ICBC", Industry: "banks", MarketCap: 1.9e12, PERatio: 5.2, PBRatio: 0.6, priceDelta: 1.1, avgVolume: 2.1e8},
	{Symbol: "000001", Name: "Ping An Bank", Industry: "banks", MarketCap: 2.2e11, PERatio: 4.6, PBRatio: 0.5, priceDelta: -0.8, avgVolume: 1.2e8},
	{Symbol: "600519", Name: "Kweichow Moutai", Industry: "liquor", MarketCap: 2.1e12, PERatio: 28.3, PBRatio: 9.1, priceDelta: 2.4, avgVolume: 3.1e6},
	{Symbol: "000858", Name: "Wuliangye", Industry: "liquor", MarketCap: 5.6e11, PERatio: 18.9, PBRatio: 4.8, priceDelta: -1.9, avgVolume: 2.4e7},
	{Symbol: "300750", Name: "CATL", Industry: "batteries", MarketCap: 8.7e11, PERatio: 21.5, PBRatio: 5.2, priceDelta: 6.7, avgVolume: 2.8e7},
	{Symbol: "002594", Name: "BYD", Industry: "autos", MarketCap: 7.4e11, PERatio: 23.1, PBRatio: 4.9, priceDelta: 4.3, avgVolume: 3.5e7},
}

func sectorParam(p model.AnalysisParams) string {
	s, _ := p["sector"].(string)
	return s
}

func sectorStocks(sector string) []stock {
	if sector == "" {
		return universe
	}

	stocks := []stock{}
	for _, s := range universe {
		if s.Industry == sector {
			stocks = append(stocks, s)
		}
	}
	return stocks
}

func score(s stock) float64 {
	capScore := min(s.MarketCap/1e9, 10)
	priceScore := max(min(s.priceDelta, 20), -20) / 2
	volumeScore := min(s.avgVolume/1e7, 10)
	return (capScore*0.3 + priceScore*0.4 + volumeScore*0.3) * 10
}

func dragonResult(sector string, stocks []stock) json.RawMessage {
	ranked := make([]stock, len(stocks))
	copy(ranked, stocks)
	sort.SliceStable(ranked, func(i, j int) bool { return score(ranked[i]) > score(ranked[j]) })

	dragons := ranked[:min(2, len(ranked))]
	top := ranked[:min(10, len(ranked))]

	allRanked := []map[string]any{}
	for _, s := range ranked[:min(20, len(ranked))] {
		allRanked = append(allRanked, map[string]any{
			"stock":            s,
			"score":            score(s),
			"price_change_pct": s.priceDelta,
			"avg_volume":       int64(s.avgVolume),
		})
	}

	return mustJSON(map[string]any{
		"sector":         sector,
		"timestamp":      time.Now().UTC().Format("2006-01-02T15:04:05.999999"),
		"dragons":        dragons,
		"top_stocks":     top,
		"all_ranked":     allRanked,
		"total_analyzed": len(stocks),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
