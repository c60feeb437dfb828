package isotime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stockwatch/internal/utils/isotime"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		value   string
		expTime time.Time
		expErr  bool
	}{
		"Naive timestamps with microseconds should be parsed as UTC.": {
			value:   "2026-01-30T10:15:30.123456",
			expTime: time.Date(2026, 1, 30, 10, 15, 30, 123456000, time.UTC),
		},
		"Naive timestamps without fraction should be parsed.": {
			value:   "2026-01-30T10:15:30",
			expTime: time.Date(2026, 1, 30, 10, 15, 30, 0, time.UTC),
		},
		"RFC3339 timestamps should be converted to UTC.": {
			value:   "2026-01-30T10:15:30+02:00",
			expTime: time.Date(2026, 1, 30, 8, 15, 30, 0, time.UTC),
		},
		"Empty timestamps should fail.": {
			value:  "",
			expErr: true,
		},
		"Garbage should fail.": {
			value:  "yesterday",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := isotime.Parse(test.value)
			if test.expErr {
				assert.Error(t, err)
				assert.Nil(t, isotime.ParsePtr(test.value))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expTime, got)
		})
	}
}
