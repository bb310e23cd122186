// Package holiday answers holiday and working-day questions for Jalali
// dates.
//
// Fixed national holidays are derived per year. Custom holidays live in a
// Registry owned by the caller: entries are only ever added or overwritten,
// never removed, for the lifetime of the Registry.
package holiday

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/hijri"
	"jalaliflow/internal/jalali"
	"jalaliflow/internal/jdn"
)

// Entry is a single holiday.
type Entry struct {
	Date        caldate.Date
	Description string
	Custom      bool
}

var fixed = []struct {
	month, day  int
	description string
}{
	{1, 1, "نوروز"},
	{1, 2, "نوروز"},
	{1, 3, "نوروز"},
	{1, 4, "نوروز"},
	{1, 13, "روز طبیعت"},
	{12, 29, "روز ملی شدن صنعت نفت"},
}

// FixedHolidays returns the national holidays of a Jalali year keyed by
// "YYYY/MM/DD".
func FixedHolidays(year int) map[string]string {
	out := make(map[string]string, len(fixed))
	for _, h := range fixed {
		out[caldate.New(year, h.month, h.day).JalaliString()] = h.description
	}
	return out
}

// Registry holds custom holidays on top of the fixed ones. The zero value
// is not usable; create one with NewRegistry. All methods are safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	custom map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{custom: make(map[string]string)}
}

// AddCustomHoliday records a holiday, replacing the description of an
// existing custom entry for the same date.
func (r *Registry) AddCustomHoliday(date, description string) error {
	d, err := jalali.Parse(date)
	if err != nil {
		return err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("%w: empty holiday description for %s", caldate.ErrInvalidArgument, date)
	}
	r.mu.Lock()
	r.custom[d.JalaliString()] = description
	r.mu.Unlock()
	return nil
}

// Describe returns the holiday description of a date. Custom entries win
// over fixed ones.
func (r *Registry) Describe(date string) (string, bool) {
	d, err := jalali.Parse(date)
	if err != nil {
		return "", false
	}
	key := d.JalaliString()
	r.mu.RLock()
	desc, ok := r.custom[key]
	r.mu.RUnlock()
	if ok {
		return desc, true
	}
	desc, ok = FixedHolidays(d.Year)[key]
	return desc, ok
}

// IsHoliday reports whether date is a fixed or custom holiday. Invalid
// input yields false rather than an error.
func (r *Registry) IsHoliday(date string) bool {
	_, ok := r.Describe(date)
	return ok
}

// IsWorkingDay reports whether date is valid, not a holiday and not a
// Friday.
func (r *Registry) IsWorkingDay(date string) bool {
	d, err := jalali.Parse(date)
	if err != nil {
		return false
	}
	if r.IsHoliday(date) {
		return false
	}
	return jdn.Weekday(jalali.ToJDN(d.Year, d.Month, d.Day)) != time.Friday
}

// IsIslamicHoliday reports whether date falls on one of the fixed Islamic
// holidays. Invalid input yields false.
func (r *Registry) IsIslamicHoliday(date string) bool {
	d, err := jalali.Parse(date)
	if err != nil {
		return false
	}
	ok, err := hijri.IsIslamicHoliday(d, caldate.Jalali)
	return err == nil && ok
}

// Holidays lists the fixed and custom holidays of a year in date order.
func (r *Registry) Holidays(year int) []Entry {
	merged := make(map[string]Entry)
	for key, desc := range FixedHolidays(year) {
		d, _ := caldate.ParseJalali(key)
		merged[key] = Entry{Date: d, Description: desc}
	}
	prefix := fmt.Sprintf("%04d/", year)
	r.mu.RLock()
	for key, desc := range r.custom {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		d, _ := caldate.ParseJalali(key)
		merged[key] = Entry{Date: d, Description: desc, Custom: true}
	}
	r.mu.RUnlock()
	return sortEntries(merged)
}

// Custom returns a copy of the custom entries.
func (r *Registry) Custom() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.custom))
	for k, v := range r.custom {
		out[k] = v
	}
	return out
}

// IslamicHolidays lists the Jalali dates of a year on which a fixed
// Islamic holiday falls under the tabular calendar.
func IslamicHolidays(year int) ([]Entry, error) {
	if !jalali.Validate(year, 1, 1) {
		return nil, fmt.Errorf("%w: jalali year %d", caldate.ErrInvalidDate, year)
	}
	var out []Entry
	first := jalali.ToJDN(year, 1, 1)
	for j := first; j < first+jalali.YearLength(year); j++ {
		hy, hm, hd := hijri.FromJDN(j)
		name, ok := hijri.HolidayName(hm, hd)
		if !ok {
			continue
		}
		y, m, d := jalali.FromJDN(j)
		out = append(out, Entry{
			Date:        caldate.New(y, m, d),
			Description: fmt.Sprintf("%s %d", name, hy),
		})
	}
	return out, nil
}

func sortEntries(m map[string]Entry) []Entry {
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
