package dates

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantDate string
		wantTime string
	}{
		{
			name:     "full pattern with pm time",
			input:    "12 febrero, 2026 - 02:00 pm",
			wantDate: "2026-02-12",
			wantTime: "14:00:00",
		},
		{
			name:     "full pattern with am time",
			input:    "12 febrero, 2026 - 09:30 am",
			wantDate: "2026-02-12",
			wantTime: "09:30:00",
		},
		{
			name:     "midnight twelve am",
			input:    "3 enero, 2027 - 12:15 am",
			wantDate: "2027-01-03",
			wantTime: "00:15:00",
		},
		{
			name:     "spanish long form",
			input:    "15 de febrero de 2026",
			wantDate: "2026-02-15",
		},
		{
			name:     "spanish long form without particles",
			input:    "15 febrero 2026",
			wantDate: "2026-02-15",
		},
		{
			name:     "month abbreviation",
			input:    "8 dic 2026",
			wantDate: "2026-12-08",
		},
		{
			name:     "numeric day month year",
			input:    "15/02/2026",
			wantDate: "2026-02-15",
		},
		{
			name:     "numeric with dashes",
			input:    "15-02-2026",
			wantDate: "2026-02-15",
		},
		{
			name:     "numeric swap when month slot exceeds twelve",
			input:    "02/15/2026",
			wantDate: "2026-02-15",
		},
		{
			name:     "iso",
			input:    "2026-02-15",
			wantDate: "2026-02-15",
		},
		{
			name:     "extra whitespace and case",
			input:    "  15  DE  Febrero  DE 2026 ",
			wantDate: "2026-02-15",
		},
		{
			name:     "loose two digit year",
			input:    "evento el 5.3.26 en el centro",
			wantDate: "2026-03-05",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.wantDate, got.Date)
			assert.Equal(t, tt.wantTime, got.Time)
		})
	}
}

func TestParse_DayMonthDefaultsToCurrentYear(t *testing.T) {
	got, ok := Parse("sábado 15 de febrero")
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("%d-02-15", time.Now().Year()), got.Date)
}

func TestParse_NoMatch(t *testing.T) {
	for _, input := range []string{"", "   ", "próximamente", "gran evento"} {
		_, ok := Parse(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestParse_AmbiguousGarbageDoesNotPanic(t *testing.T) {
	// 13 > 12 triggers the swap heuristic; the result is not a real date but
	// Parse must return something for the validator to reject.
	got, ok := Parse("31/13/2026")
	require.True(t, ok)
	assert.False(t, ValidEventDate(got.Date))
}

func TestValidEventDate(t *testing.T) {
	now := time.Now()

	assert.True(t, ValidEventDate(now.Format("2006-01-02")))
	assert.True(t, ValidEventDate(now.AddDate(1, 0, 0).Format("2006-01-02")))

	assert.False(t, ValidEventDate(now.AddDate(-1, 0, -1).Format("2006-01-02")), "more than a year old")
	assert.False(t, ValidEventDate(now.AddDate(2, 0, 1).Format("2006-01-02")), "more than two years out")
	assert.False(t, ValidEventDate("not-a-date"))
}
