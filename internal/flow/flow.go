// Package flow is the string-level entry point used by the CLI and the HTTP
// API. It resolves the date format, timezone and language from a settings
// source on every call, so configuration changes apply without a restart.
package flow

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/config"
	"jalaliflow/internal/datemath"
	"jalaliflow/internal/format"
	"jalaliflow/internal/hijri"
	"jalaliflow/internal/holiday"
	"jalaliflow/internal/jalali"
	"jalaliflow/internal/schedule"
)

// Settings are the per-call defaults.
type Settings struct {
	DateFormat string
	Timezone   string
	Lang       string
}

// SettingsFunc returns the current settings.
type SettingsFunc func() Settings

// FromConfig reads settings from cfg at call time.
func FromConfig(cfg *config.Config) SettingsFunc {
	return func() Settings {
		return Settings{DateFormat: cfg.DateFormat, Timezone: cfg.Timezone, Lang: cfg.Lang}
	}
}

// Static always returns s.
func Static(s Settings) SettingsFunc {
	return func() Settings { return s }
}

// Flow ties the calendar packages to one holiday registry and one clock.
type Flow struct {
	settings SettingsFunc
	holidays *holiday.Registry
	now      func() time.Time
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// New returns a Flow. A nil registry gets a fresh empty one.
func New(settings SettingsFunc, reg *holiday.Registry, opts ...Option) *Flow {
	if reg == nil {
		reg = holiday.NewRegistry()
	}
	f := &Flow{settings: settings, holidays: reg, now: time.Now}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Holidays returns the registry the Flow consults.
func (f *Flow) Holidays() *holiday.Registry { return f.holidays }

func (f *Flow) current() Settings {
	s := f.settings()
	if s.DateFormat == "" {
		s.DateFormat = config.DefaultDateFormat
	}
	if s.Timezone == "" {
		s.Timezone = config.DefaultTimezone
	}
	if s.Lang == "" {
		s.Lang = config.DefaultLang
	}
	return s
}

// Location loads the configured timezone.
func (f *Flow) Location() (*time.Location, error) {
	return location(f.current())
}

func location(s Settings) (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", caldate.ErrInvalidArgument, s.Timezone, err)
	}
	return loc, nil
}

// Now is the current time in the configured timezone.
func (f *Flow) Now() (time.Time, error) {
	return f.nowIn(f.current())
}

func (f *Flow) nowIn(s Settings) (time.Time, error) {
	loc, err := location(s)
	if err != nil {
		return time.Time{}, err
	}
	return f.now().In(loc), nil
}

// Today is the current Jalali date in the configured timezone.
func (f *Flow) Today() (caldate.Date, error) {
	now, err := f.Now()
	if err != nil {
		return caldate.Date{}, err
	}
	return jalali.FromTime(now), nil
}

func layout(s Settings, spec string) string {
	if spec == "" {
		return s.DateFormat
	}
	return spec
}

// ToJalali converts a "YYYY-MM-DD" Gregorian date and formats it. An empty
// layout uses the configured date format.
func (f *Flow) ToJalali(gregorian, spec string) (string, error) {
	g, err := caldate.ParseGregorian(gregorian)
	if err != nil {
		return "", err
	}
	j, err := jalali.FromGregorian(g.Year, g.Month, g.Day)
	if err != nil {
		return "", err
	}
	st := f.current()
	return format.Format(format.MomentFromDate(j), layout(st, spec), st.Lang), nil
}

// ToGregorian converts a "YYYY/MM/DD" Jalali date to "YYYY-MM-DD".
func (f *Flow) ToGregorian(jalaliDate string) (string, error) {
	j, err := jalali.Parse(jalaliDate)
	if err != nil {
		return "", err
	}
	g, err := jalali.ToGregorian(j.Year, j.Month, j.Day)
	if err != nil {
		return "", err
	}
	return g.GregorianString(), nil
}

// ToHijri converts a "YYYY-MM-DD" Gregorian date to a "YYYY/MM/DD" Hijri
// date.
func (f *Flow) ToHijri(gregorian string) (string, error) {
	g, err := caldate.ParseGregorian(gregorian)
	if err != nil {
		return "", err
	}
	h, err := hijri.FromGregorian(g.Year, g.Month, g.Day)
	if err != nil {
		return "", err
	}
	return h.JalaliString(), nil
}

// FormatTime renders t, moved into the configured timezone.
func (f *Flow) FormatTime(t time.Time, spec string) (string, error) {
	st := f.current()
	loc, err := location(st)
	if err != nil {
		return "", err
	}
	return format.Format(format.MomentFromTime(t.In(loc)), layout(st, spec), st.Lang), nil
}

// FormatNow renders the current time.
func (f *Flow) FormatNow(spec string) (string, error) {
	return f.FormatTime(f.now(), spec)
}

// FormatDate renders a "YYYY/MM/DD" Jalali date at midnight.
func (f *Flow) FormatDate(jalaliDate, spec string) (string, error) {
	j, err := jalali.Parse(jalaliDate)
	if err != nil {
		return "", err
	}
	st := f.current()
	return format.Format(format.MomentFromDate(j), layout(st, spec), st.Lang), nil
}

// ToRelative describes a Jalali date relative to today.
func (f *Flow) ToRelative(jalaliDate string) (string, error) {
	j, err := jalali.Parse(jalaliDate)
	if err != nil {
		return "", err
	}
	st := f.current()
	now, err := f.nowIn(st)
	if err != nil {
		return "", err
	}
	g, err := jalali.ToGregorian(j.Year, j.Month, j.Day)
	if err != nil {
		return "", err
	}
	t := time.Date(g.Year, time.Month(g.Month), g.Day, 0, 0, 0, 0, now.Location())
	return format.ToRelative(t, now, st.Lang), nil
}

// Add shifts a Jalali date by n units.
func (f *Flow) Add(jalaliDate string, n int, unit string) (string, error) {
	j, err := jalali.Parse(jalaliDate)
	if err != nil {
		return "", err
	}
	u, err := datemath.ParseUnit(unit)
	if err != nil {
		return "", err
	}
	var out caldate.Date
	switch u {
	case datemath.Day:
		out, err = datemath.AddDays(j, n)
	case datemath.Week:
		out, err = datemath.AddWeeks(j, n)
	case datemath.Month:
		out, err = datemath.AddMonths(j, n)
	case datemath.Year:
		out, err = datemath.AddYears(j, n)
	}
	if err != nil {
		return "", err
	}
	return out.JalaliString(), nil
}

// Sub shifts a Jalali date back by n units.
func (f *Flow) Sub(jalaliDate string, n int, unit string) (string, error) {
	return f.Add(jalaliDate, -n, unit)
}

// Diff measures the distance between two Jalali dates.
func (f *Flow) Diff(start, end, unit string) (float64, error) {
	a, err := jalali.Parse(start)
	if err != nil {
		return 0, err
	}
	b, err := jalali.Parse(end)
	if err != nil {
		return 0, err
	}
	u, err := datemath.ParseUnit(unit)
	if err != nil {
		return 0, err
	}
	return datemath.Diff(a, b, u)
}

// NextRunDate returns the run date after current for a frequency tag.
func (f *Flow) NextRunDate(current, frequency string) (string, error) {
	return schedule.NextRun(current, frequency)
}

func (f *Flow) IsHoliday(jalaliDate string) bool {
	return f.holidays.IsHoliday(jalaliDate)
}

func (f *Flow) IsWorkingDay(jalaliDate string) bool {
	return f.holidays.IsWorkingDay(jalaliDate)
}

func (f *Flow) AddCustomHoliday(jalaliDate, description string) error {
	return f.holidays.AddCustomHoliday(jalaliDate, description)
}

// IsIslamicHoliday checks a date in the given calendar.
func (f *Flow) IsIslamicHoliday(date string, cal caldate.Calendar) (bool, error) {
	var (
		d   caldate.Date
		err error
	)
	switch cal {
	case caldate.Gregorian:
		d, err = caldate.ParseGregorian(date)
	default:
		d, err = caldate.ParseJalali(date)
	}
	if err != nil {
		return false, err
	}
	return hijri.IsIslamicHoliday(d, cal)
}
