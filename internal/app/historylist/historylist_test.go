package historylist_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/stockwatch/internal/app/historylist"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	_, err := historylist.NewService(historylist.ServiceConfig{})
	assert.Error(t, err)

	svc, err := historylist.NewService(historylist.ServiceConfig{Repository: &storagemock.MockHistoryRepository{}})
	assert.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestServiceRun(t *testing.T) {
	errBoom := fmt.Errorf("boom")
	records := []model.TaskRecord{
		{LaunchID: "l2", TaskID: "t2", Kind: model.AnalysisKindDragon, Status: model.TrackerStatusCompleted},
		{LaunchID: "l1", TaskID: "t1", Kind: model.AnalysisKindDragon, Status: model.TrackerStatusCompleted},
	}

	tests := map[string]struct {
		req        historylist.Request
		mock       func(m *storagemock.MockHistoryRepository)
		expRecords []model.TaskRecord
		expErr     error
	}{
		"Listing should pass the filter to the repository.": {
			req: historylist.Request{Kind: model.AnalysisKindDragon, Status: model.TrackerStatusCompleted, Limit: 2},
			mock: func(m *storagemock.MockHistoryRepository) {
				exp := model.TaskRecordFilter{Kind: model.AnalysisKindDragon, Status: model.TrackerStatusCompleted, Limit: 2}
				m.On("ListTaskRecords", mock.Anything, exp).Once().Return(records, nil)
			},
			expRecords: records,
		},

		"Listing without filter should list everything.": {
			mock: func(m *storagemock.MockHistoryRepository) {
				m.On("ListTaskRecords", mock.Anything, model.TaskRecordFilter{}).Once().Return([]model.TaskRecord{}, nil)
			},
			expRecords: []model.TaskRecord{},
		},

		"An unknown kind should fail.": {
			req:    historylist.Request{Kind: "magic"},
			mock:   func(m *storagemock.MockHistoryRepository) {},
			expErr: model.ErrNotValid,
		},

		"An active status should fail.": {
			req:    historylist.Request{Status: model.TrackerStatusRunning},
			mock:   func(m *storagemock.MockHistoryRepository) {},
			expErr: model.ErrNotValid,
		},

		"A negative limit should fail.": {
			req:    historylist.Request{Limit: -1},
			mock:   func(m *storagemock.MockHistoryRepository) {},
			expErr: model.ErrNotValid,
		},

		"A repository error should fail.": {
			mock: func(m *storagemock.MockHistoryRepository) {
				m.On("ListTaskRecords", mock.Anything, mock.Anything).Once().Return(nil, errBoom)
			},
			expErr: errBoom,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			m := storagemock.NewMockHistoryRepository(t)
			test.mock(m)

			svc, err := historylist.NewService(historylist.ServiceConfig{Repository: m})
			require.NoError(err)

			got, err := svc.Run(context.Background(), test.req)

			if test.expErr != nil {
				require.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)
			require.Equal(test.expRecords, got)
		})
	}
}
