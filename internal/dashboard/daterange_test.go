package dashboard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fiore/internal/dashboard"
)

func TestDefaultRange(t *testing.T) {
	type testCase struct {
		name string
		rt   dashboard.ReportType
		now  time.Time
		want dashboard.Range
	}

	tests := []testCase{
		{
			name: "WeeklyMidweek",
			rt:   dashboard.Weekly,
			now:  time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC),
			want: dashboard.Range{Start: "2025-03-03", End: "2025-03-09"},
		},
		{
			name: "WeeklySunday",
			rt:   dashboard.Weekly,
			now:  time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC),
			want: dashboard.Range{Start: "2025-03-03", End: "2025-03-09"},
		},
		{
			name: "WeeklyAcrossYear",
			rt:   dashboard.Weekly,
			now:  time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
			want: dashboard.Range{Start: "2024-12-30", End: "2025-01-05"},
		},
		{
			name: "MonthlyLeapFebruary",
			rt:   dashboard.Monthly,
			now:  time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			want: dashboard.Range{Start: "2024-02-01", End: "2024-02-29"},
		},
		{
			name: "MonthlyDecember",
			rt:   dashboard.Monthly,
			now:  time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			want: dashboard.Range{Start: "2025-12-01", End: "2025-12-31"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dashboard.DefaultRange(tt.rt, tt.now))
		})
	}
}

func TestRange_Clamping(t *testing.T) {
	r := dashboard.Range{Start: "2025-03-03", End: "2025-03-09"}

	got := r.WithStart("2025-03-20")
	assert.Equal(t, dashboard.Range{Start: "2025-03-20", End: "2025-03-20"}, got)

	got = r.WithEnd("2025-03-01")
	assert.Equal(t, dashboard.Range{Start: "2025-03-01", End: "2025-03-01"}, got)

	got = r.WithStart("2025-03-05")
	assert.Equal(t, dashboard.Range{Start: "2025-03-05", End: "2025-03-09"}, got)

	got = dashboard.Range{}.WithStart("2025-03-05")
	assert.Equal(t, dashboard.Range{Start: "2025-03-05"}, got)
	assert.False(t, got.Complete())
}

func TestParseReportType(t *testing.T) {
	rt, err := dashboard.ParseReportType("")
	require.NoError(t, err)
	assert.Equal(t, dashboard.Weekly, rt)

	rt, err = dashboard.ParseReportType("Monthly")
	require.NoError(t, err)
	assert.Equal(t, dashboard.Monthly, rt)
	assert.Equal(t, dashboard.Weekly, rt.Toggle())

	_, err = dashboard.ParseReportType("yearly")
	assert.Error(t, err)
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, dashboard.ValidateDate(""))
	assert.NoError(t, dashboard.ValidateDate("2025-03-01"))
	assert.Error(t, dashboard.ValidateDate("01/03/2025"))
}
