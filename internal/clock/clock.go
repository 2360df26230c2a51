// Package clock supplies the wall clock used by the ledgers. All month and day
// arithmetic happens in the clock's location.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

// New returns a Clock reading the system time in loc.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return realClock{loc: loc}
}

func (c realClock) Now() time.Time { return time.Now().In(c.loc) }

// Fixed is a Clock frozen at a single instant. Tests move it with Set.
type Fixed struct {
	t time.Time
}

// NewFixed returns a Clock that always reports t.
func NewFixed(t time.Time) *Fixed { return &Fixed{t: t} }

func (f *Fixed) Now() time.Time { return f.t }

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) { f.t = t }

// Date is a calendar day without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n days, normalizing across months and years.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return DaysIn(d.Year, d.Month)
}

// IsLastDayOfMonth reports whether d is the final day of its month.
func (d Date) IsLastDayOfMonth() bool {
	return d.Day == d.DaysInMonth()
}

// NextMonth returns the first day of the month after d.
func (d Date) NextMonth() Date {
	return DateOf(time.Date(d.Year, d.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

// Format renders d like "April-10-2024".
func (d Date) Format() string {
	return d.Time(time.UTC).Format("January-02-2006")
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// InMaintenanceWindow reports whether t falls in the 00:00 blackout minute.
func InMaintenanceWindow(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0
}
