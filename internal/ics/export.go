package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/holiday"
	"jalaliflow/internal/jalali"
	"jalaliflow/internal/model"
	"jalaliflow/internal/schedule"
)

const productName = "jalaliflow"

func newCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendarFor(productName)
	cal.SetMethod(ical.MethodPublish)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(name)
	return cal
}

// addAllDay appends a one-day VEVENT on the Gregorian day of a Jalali date.
func addAllDay(cal *ical.Calendar, uid, summary string, d caldate.Date, stamp time.Time) (*ical.VEvent, error) {
	g, err := jalali.ToGregorian(d.Year, d.Month, d.Day)
	if err != nil {
		return nil, err
	}
	start := time.Date(g.Year, time.Month(g.Month), g.Day, 0, 0, 0, 0, time.UTC)
	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(stamp)
	ev.SetSummary(summary)
	ev.SetAllDayStartAt(start)
	ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
	ev.SetDescription(d.JalaliString())
	return ev, nil
}

// ExportHolidays renders the holidays of a Jalali year as an iCalendar
// document. Holidays do not block time in subscribing clients.
func ExportHolidays(year int, entries []holiday.Entry, stamp time.Time) (string, error) {
	cal := newCalendar(fmt.Sprintf("Holidays %d", year))
	for _, e := range entries {
		uid := fmt.Sprintf("%04d%02d%02d-holiday@%s", e.Date.Year, e.Date.Month, e.Date.Day, productName)
		ev, err := addAllDay(cal, uid, e.Description, e.Date, stamp)
		if err != nil {
			return "", err
		}
		ev.SetTimeTransparency(ical.TransparencyTransparent)
		if e.Custom {
			ev.AddCategory("custom")
		} else {
			ev.AddCategory("holiday")
		}
	}
	return cal.Serialize(), nil
}

// ExportEvents renders the next count runs of each event, starting at its
// NextRun date.
func ExportEvents(events []model.RecurringEvent, count int, stamp time.Time) (string, error) {
	cal := newCalendar("Recurring events")
	for _, ev := range events {
		start, err := jalali.Parse(ev.NextRun)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", ev.ID, err)
		}
		runs, err := schedule.Upcoming(start, ev.Frequency, count)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", ev.ID, err)
		}
		for _, d := range runs {
			uid := fmt.Sprintf("%s-%04d%02d%02d@%s", ev.ID, d.Year, d.Month, d.Day, productName)
			vev, err := addAllDay(cal, uid, ev.Name, d, stamp)
			if err != nil {
				return "", err
			}
			vev.AddCategory(string(ev.Frequency))
		}
	}
	return cal.Serialize(), nil
}
