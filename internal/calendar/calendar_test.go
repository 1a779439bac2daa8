package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextFriday(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  time.Time
	}{
		{"monday", date(2025, time.March, 3), date(2025, time.March, 7)},
		{"thursday", date(2025, time.March, 6), date(2025, time.March, 7)},
		{"friday rolls a full week", date(2025, time.March, 7), date(2025, time.March, 14)},
		{"saturday", date(2025, time.March, 8), date(2025, time.March, 14)},
		{"sunday", date(2025, time.March, 9), date(2025, time.March, 14)},
		{"crosses month", date(2025, time.April, 29), date(2025, time.May, 2)},
		{"crosses year", date(2025, time.December, 29), date(2026, time.January, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFriday(tt.start)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.Friday, got.Weekday())
		})
	}
}

func TestNextFriday_AlwaysWithinAWeek(t *testing.T) {
	start := date(2024, time.January, 1)
	for i := 0; i < 400; i++ {
		day := start.AddDate(0, 0, i)
		got := NextFriday(day)
		assert.True(t, got.After(day), "next friday of %s must be after it", day)
		assert.False(t, got.After(day.AddDate(0, 0, 7)), "next friday of %s within 7 days", day)
		assert.Equal(t, time.Friday, got.Weekday())
	}
}

func TestNextFriday_IgnoresClockAndZone(t *testing.T) {
	lima := time.FixedZone("PET", -5*60*60)
	got := NextFriday(time.Date(2025, time.March, 3, 23, 59, 0, 0, lima))
	assert.Equal(t, date(2025, time.March, 7), got)
}

func TestFormatPeriod(t *testing.T) {
	tests := []struct {
		start string
		want  string
	}{
		{"2025-03-03", "Del 3 al 7 de Marzo"},
		{"2025-03-07", "Del 7 al 14 de Marzo"},
		{"2025-04-29", "Del 29 al 2 de Mayo"},
		{"2025-12-29", "Del 29 al 2 de Enero"},
		{"2024-09-16", "Del 16 al 20 de Septiembre"},
	}

	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			got, err := FormatPeriod(tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPeriod_InvalidDate(t *testing.T) {
	for _, in := range []string{"", "03/03/2025", "2025-13-01", "2025-02-30", "tomorrow"} {
		t.Run(in, func(t *testing.T) {
			_, err := FormatPeriod(in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "YYYY-MM-DD")
		})
	}
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "Enero", MonthName(time.January))
	assert.Equal(t, "Diciembre", MonthName(time.December))
	assert.Equal(t, "", MonthName(time.Month(13)))
}

func TestAgeInMonths(t *testing.T) {
	today := date(2025, time.March, 3)

	tests := []struct {
		name  string
		birth time.Time
		want  int
	}{
		{"same day", today, 0},
		{"one year", date(2024, time.March, 3), 12},
		{"four years", date(2021, time.March, 3), 48},
		// 15 days / 30.44 = 0.49 -> 0
		{"under half a month", date(2025, time.February, 16), 0},
		// 16 days / 30.44 = 0.53 -> 1
		{"over half a month", date(2025, time.February, 15), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeInMonths(tt.birth, today))
		})
	}
}

func TestFormatAge(t *testing.T) {
	today := date(2025, time.March, 3)

	assert.Equal(t, "48 meses", FormatAge("03/03/2021", today))
	assert.Equal(t, "0 meses", FormatAge("03/03/2025", today))
	assert.Equal(t, UnknownAge, FormatAge("2021-03-03", today))
	assert.Equal(t, UnknownAge, FormatAge("", today))
	assert.Equal(t, UnknownAge, FormatAge("31/02/2021", today))
	assert.Equal(t, UnknownAge, FormatAge("04/03/2025", today), "future birth date")
}
