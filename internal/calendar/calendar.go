// Package calendar computes the derived dates injected into a session plan:
// the weekly period ("Del 3 al 7 de Marzo") and student ages in months.
package calendar

import (
	"fmt"
	"math"
	"time"
)

const (
	// StartDateLayout is the layout of the start date accepted from clients.
	StartDateLayout = "2006-01-02"

	// BirthDateLayout is the layout of student birth dates in the class roster.
	BirthDateLayout = "02/01/2006"

	// UnknownAge is rendered when a birth date cannot be used.
	UnknownAge = "Edad desconocida"

	// daysPerMonth is the average Gregorian month length used for ages.
	daysPerMonth = 30.44
)

var spanishMonths = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish name of m, capitalised.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return spanishMonths[m-1]
}

// Period is the school week a session plan covers.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod returns the period from start to the next Friday.
func NewPeriod(start time.Time) Period {
	start = civil(start)
	return Period{Start: start, End: NextFriday(start)}
}

// String formats the period as "Del <day> al <day> de <Month>".
// The month is always taken from the end date.
func (p Period) String() string {
	return fmt.Sprintf("Del %d al %d de %s", p.Start.Day(), p.End.Day(), MonthName(p.End.Month()))
}

// NextFriday returns the first Friday strictly after t. A Friday yields the
// Friday of the following week.
func NextFriday(t time.Time) time.Time {
	t = civil(t)
	days := (int(time.Friday) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return t.AddDate(0, 0, days)
}

// ParseStartDate parses a YYYY-MM-DD start date.
func ParseStartDate(s string) (time.Time, error) {
	t, err := time.Parse(StartDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("start date %q must use YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// FormatPeriod parses a YYYY-MM-DD start date and formats its period.
func FormatPeriod(start string) (string, error) {
	t, err := ParseStartDate(start)
	if err != nil {
		return "", err
	}
	return NewPeriod(t).String(), nil
}

// AgeInMonths returns the age in whole months between birth and today,
// dividing elapsed days by the average month length and rounding half to even.
func AgeInMonths(birth, today time.Time) int {
	days := civil(today).Sub(civil(birth)).Hours() / 24
	return int(math.RoundToEven(days / daysPerMonth))
}

// FormatAge renders the age for a dd/mm/yyyy birth date, e.g. "52 meses".
// Unparseable or future birth dates yield UnknownAge.
func FormatAge(birth string, today time.Time) string {
	b, err := time.Parse(BirthDateLayout, birth)
	if err != nil {
		return UnknownAge
	}
	if civil(b).After(civil(today)) {
		return UnknownAge
	}
	return fmt.Sprintf("%d meses", AgeInMonths(b, today))
}

// civil drops the clock and location so day arithmetic is exact.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
