package model

import (
	"fmt"
	"sort"
)

// AnalysisKind identifies the analysis a task runs on the server.
type AnalysisKind string

const (
	// AnalysisKindDragon ranks the leaders of a sector.
	AnalysisKindDragon AnalysisKind = "dragon"
	// AnalysisKindInstitutional selects stocks with heavy institutional holdings.
	AnalysisKindInstitutional AnalysisKind = "institutional"
	// AnalysisKindSmallCapLeader selects small cap sector leaders.
	AnalysisKindSmallCapLeader AnalysisKind = "small_cap_leader"
	// AnalysisKindSmallCapHot selects small cap stocks with momentum.
	AnalysisKindSmallCapHot AnalysisKind = "small_cap_hot"
	// AnalysisKindUndervalued selects undervalued stocks.
	AnalysisKindUndervalued AnalysisKind = "undervalued"
)

// AnalysisParams are the parameters sent to the server when starting a task.
type AnalysisParams map[string]any

// AnalysisInfo describes a supported analysis kind.
type AnalysisInfo struct {
	Kind          AnalysisKind
	Description   string
	DefaultParams AnalysisParams
}

var analyses = map[AnalysisKind]AnalysisInfo{
	AnalysisKindDragon: {
		Kind:          AnalysisKindDragon,
		Description:   "Sector leaders ranked by market cap, price change and volume.",
		DefaultParams: AnalysisParams{"sector": ""},
	},
	AnalysisKindInstitutional: {
		Kind:          AnalysisKindInstitutional,
		Description:   "Stocks with heavy institutional holdings.",
		DefaultParams: AnalysisParams{"filters": map[string]any{}},
	},
	AnalysisKindSmallCapLeader: {
		Kind:          AnalysisKindSmallCapLeader,
		Description:   "Small cap sector leaders.",
		DefaultParams: AnalysisParams{"max_market_cap": int64(10000000000)},
	},
	AnalysisKindSmallCapHot: {
		Kind:          AnalysisKindSmallCapHot,
		Description:   "Small cap stocks with strong momentum.",
		DefaultParams: AnalysisParams{"max_market_cap": int64(5000000000)},
	},
	AnalysisKindUndervalued: {
		Kind:          AnalysisKindUndervalued,
		Description:   "Undervalued stocks by valuation criteria.",
		DefaultParams: AnalysisParams{"criteria": map[string]any{}},
	},
}

// Validate checks the kind is a known analysis.
func (k AnalysisKind) Validate() error {
	if k == "" {
		return fmt.Errorf("analysis kind is required: %w", ErrNotValid)
	}

	if _, ok := analyses[k]; !ok {
		return fmt.Errorf("unknown analysis kind %q: %w", k, ErrNotValid)
	}

	return nil
}

// Analyses returns all the supported analyses sorted by kind.
func Analyses() []AnalysisInfo {
	infos := make([]AnalysisInfo, 0, len(analyses))
	for _, info := range analyses {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Kind < infos[j].Kind })

	return infos
}

// GetAnalysis returns the information of a supported analysis.
func GetAnalysis(k AnalysisKind) (AnalysisInfo, error) {
	info, ok := analyses[k]
	if !ok {
		return AnalysisInfo{}, fmt.Errorf("analysis %q: %w", k, ErrNotFound)
	}

	return info, nil
}

// MergeParams returns the defaults of the kind overridden by params.
func MergeParams(k AnalysisKind, params AnalysisParams) AnalysisParams {
	merged := AnalysisParams{}
	if info, ok := analyses[k]; ok {
		for key, v := range info.DefaultParams {
			merged[key] = v
		}
	}
	for key, v := range params {
		merged[key] = v
	}

	return merged
}
