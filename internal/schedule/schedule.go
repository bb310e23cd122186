// Package schedule computes run dates for recurring events keyed to Jalali
// dates.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/datemath"
	"jalaliflow/internal/jalali"
)

// Frequency is a recurrence tag.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Frequencies lists every accepted tag.
var Frequencies = []Frequency{Daily, Weekly, Monthly, Yearly}

// ParseFrequency accepts a tag case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", caldate.ErrInvalidFrequency, s)
	}
	return f, nil
}

// Valid reports whether f is a known tag.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// NextRunDate returns the run date following current.
func NextRunDate(current caldate.Date, freq Frequency) (caldate.Date, error) {
	switch freq {
	case Daily:
		return datemath.AddDays(current, 1)
	case Weekly:
		return datemath.AddDays(current, 7)
	case Monthly:
		return datemath.AddMonths(current, 1)
	case Yearly:
		return datemath.AddMonths(current, 12)
	}
	return caldate.Date{}, fmt.Errorf("%w: %q", caldate.ErrInvalidFrequency, string(freq))
}

// NextRun is NextRunDate over "YYYY/MM/DD" strings, the shape stored in
// event records.
func NextRun(current string, freq string) (string, error) {
	d, err := jalali.Parse(current)
	if err != nil {
		return "", err
	}
	f, err := ParseFrequency(freq)
	if err != nil {
		return "", err
	}
	next, err := NextRunDate(d, f)
	if err != nil {
		return "", err
	}
	return next.JalaliString(), nil
}

// Upcoming lists count run dates starting with start itself.
//
// Monthly and yearly steps are taken from start rather than from the
// previous result, so a series anchored on the 31st returns to the 31st
// after passing through shorter months.
func Upcoming(start caldate.Date, freq Frequency, count int) ([]caldate.Date, error) {
	if !jalali.ValidDate(start) {
		return nil, fmt.Errorf("%w: jalali %s", caldate.ErrInvalidDate, start)
	}
	if count <= 0 {
		return nil, nil
	}
	switch freq {
	case Daily, Weekly:
		return upcomingFixedStep(start, freq, count)
	case Monthly, Yearly:
		step := 1
		if freq == Yearly {
			step = 12
		}
		out := make([]caldate.Date, 0, count)
		for i := 0; i < count; i++ {
			d, err := datemath.AddMonths(start, i*step)
			if err != nil {
				return out, err
			}
			out = append(out, d)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", caldate.ErrInvalidFrequency, string(freq))
}

// Daily and weekly series are calendar independent, so they are expanded as
// Gregorian rules and mapped back.
func upcomingFixedStep(start caldate.Date, freq Frequency, count int) ([]caldate.Date, error) {
	g, err := jalali.ToGregorian(start.Year, start.Month, start.Day)
	if err != nil {
		return nil, err
	}
	opt := rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: 1,
		Count:    count,
		Dtstart:  time.Date(g.Year, time.Month(g.Month), g.Day, 0, 0, 0, 0, time.UTC),
	}
	if freq == Weekly {
		opt.Freq = rrule.WEEKLY
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("schedule: build rule: %w", err)
	}
	times := r.All()
	out := make([]caldate.Date, 0, len(times))
	for _, t := range times {
		d := jalali.FromTime(t)
		if !jalali.ValidDate(d) {
			return out, fmt.Errorf("%w: series leaves the supported range at %s", caldate.ErrInvalidDate, t.Format("2006-01-02"))
		}
		out = append(out, d)
	}
	return out, nil
}

// Due reports whether an event whose next run is nextRun should run on
// today. Overdue events are due.
func Due(nextRun, today caldate.Date) bool {
	return !today.Before(nextRun)
}
