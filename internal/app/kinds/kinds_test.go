package kinds_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stockwatch/internal/app/kinds"
	"github.com/slok/stockwatch/internal/model"
)

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		defaultParams map[model.AnalysisKind]model.AnalysisParams
		expParams     map[model.AnalysisKind]model.AnalysisParams
		expErr        bool
	}{
		"without user params the built in defaults should be returned": {
			expParams: map[model.AnalysisKind]model.AnalysisParams{
				model.AnalysisKindDragon:      {"sector": ""},
				model.AnalysisKindSmallCapHot: {"max_market_cap": int64(5000000000)},
			},
		},

		"user params should override the built in defaults": {
			defaultParams: map[model.AnalysisKind]model.AnalysisParams{
				model.AnalysisKindDragon:      {"sector": "banks", "limit": 5},
				model.AnalysisKindSmallCapHot: {"max_market_cap": 1000},
			},
			expParams: map[model.AnalysisKind]model.AnalysisParams{
				model.AnalysisKindDragon:      {"sector": "banks", "limit": 5},
				model.AnalysisKindSmallCapHot: {"max_market_cap": 1000},
			},
		},

		"user params of unknown kinds should fail": {
			defaultParams: map[model.AnalysisKind]model.AnalysisParams{
				"magic": {"x": 1},
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			assert := assert.New(t)

			svc, err := kinds.NewService(kinds.ServiceConfig{DefaultParams: test.defaultParams})
			if test.expErr {
				require.Error(err)
				return
			}
			require.NoError(err)

			got, err := svc.Run(context.Background(), kinds.Request{})
			require.NoError(err)
			require.Len(got, 5)

			gotParams := map[model.AnalysisKind]model.AnalysisParams{}
			for _, a := range got {
				gotParams[a.Kind] = a.DefaultParams
			}
			for k, exp := range test.expParams {
				assert.Equal(exp, gotParams[k])
			}
		})
	}
}

func TestServiceRunDoesNotChangeBuiltInDefaults(t *testing.T) {
	require := require.New(t)

	svc, err := kinds.NewService(kinds.ServiceConfig{
		DefaultParams: map[model.AnalysisKind]model.AnalysisParams{
			model.AnalysisKindDragon: {"sector": "banks"},
		},
	})
	require.NoError(err)

	_, err = svc.Run(context.Background(), kinds.Request{})
	require.NoError(err)

	info, err := model.GetAnalysis(model.AnalysisKindDragon)
	require.NoError(err)
	require.Equal(model.AnalysisParams{"sector": ""}, info.DefaultParams)
}
