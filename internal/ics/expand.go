package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"jalaliflow/internal/jalali"
	appLog "jalaliflow/internal/log"
	"jalaliflow/internal/model"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation decides which calendar day a timed event falls on.
	// If nil, UTC is used.
	DisplayLocation *time.Location

	// RangeStart is inclusive, RangeEnd exclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps expansion of a single rule. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// JalaliYearRange returns the config covering one Jalali year, from
// Farvardin 1 up to Farvardin 1 of the following year.
func JalaliYearRange(year int, loc *time.Location) (ExpandConfig, error) {
	if loc == nil {
		loc = time.UTC
	}
	first, err := jalali.ToGregorian(year, 1, 1)
	if err != nil {
		return ExpandConfig{}, err
	}
	start := time.Date(first.Year, time.Month(first.Month), first.Day, 0, 0, 0, 0, loc)
	return ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      start,
		RangeEnd:        start.AddDate(0, 0, jalali.YearLength(year)),
	}, nil
}

// ExpandOccurrences turns parsed feed events into dated occurrences inside
// the configured range. Overrides replace the base instance they name.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, error) {
	if !cfg.RangeEnd.After(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is not after RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.UTC
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Days moved away by an override, keyed by UID.
	moved := make(map[string]map[string]bool)
	for _, ev := range events {
		if ev.IsOverride {
			if moved[ev.UID] == nil {
				moved[ev.UID] = make(map[string]bool)
			}
			moved[ev.UID][dayKey(*ev.Recurrence, ev, cfg.DisplayLocation)] = true
		}
	}

	out := make([]model.Occurrence, 0)
	for _, ev := range events {
		if ev.RawRRule == "" || ev.IsOverride {
			if occ, ok := occurrenceAt(ev, ev.Start, cfg); ok {
				out = append(out, occ)
			}
			continue
		}
		out = append(out, expandRecurring(ev, moved[ev.UID], cfg)...)
	}
	return out, nil
}

func expandRecurring(ev ParsedEvent, moved map[string]bool, cfg ExpandConfig) []model.Occurrence {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen by a day on each side so all-day UTC instants near the range
	// edges are still considered; occurrenceAt filters exactly.
	from := cfg.RangeStart.AddDate(0, 0, -1).In(ev.Start.Location())
	to := cfg.RangeEnd.AddDate(0, 0, 1).In(ev.Start.Location())
	times := set.Between(from, to, true)
	if len(times) > cfg.MaxOccurrencesPerEvent {
		appLog.Error("expand: truncated occurrences", errors.New("max occurrences reached"),
			"uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		times = times[:cfg.MaxOccurrencesPerEvent]
	}

	out := make([]model.Occurrence, 0, len(times))
	for _, t := range times {
		if moved[dayKey(t, ev, cfg.DisplayLocation)] {
			continue
		}
		if occ, ok := occurrenceAt(ev, t, cfg); ok {
			out = append(out, occ)
		}
	}
	return out
}

// day resolves the calendar day of an instant. All-day values keep their
// stated date; timed values are read in the display location.
func day(t time.Time, ev ParsedEvent, loc *time.Location) time.Time {
	if !ev.AllDay {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func dayKey(t time.Time, ev ParsedEvent, loc *time.Location) string {
	return day(t, ev, loc).Format("2006-01-02")
}

func occurrenceAt(ev ParsedEvent, t time.Time, cfg ExpandConfig) (model.Occurrence, bool) {
	d := day(t, ev, cfg.DisplayLocation)
	if d.Before(cfg.RangeStart) || !d.Before(cfg.RangeEnd) {
		return model.Occurrence{}, false
	}
	return model.Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: d.Format("2006-01-02"),
		Summary:     ev.Summary,
		Start:       d,
	}, true
}
