// Package caldate holds the calendar-neutral date triple shared by the
// Gregorian, Jalali and Hijri conversions, the string forms used at the
// edges, and the error kinds every engine package wraps.
package caldate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidDate reports a malformed string, an out-of-range field or a
	// day-of-month that does not exist in the given calendar/year.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidFrequency reports an unrecognized recurrence tag.
	ErrInvalidFrequency = errors.New("invalid frequency")
	// ErrInvalidArgument reports an empty or otherwise unusable argument.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Calendar tags which calendar a Date belongs to.
type Calendar int

const (
	Gregorian Calendar = iota
	Jalali
	Hijri
)

func (c Calendar) String() string {
	switch c {
	case Gregorian:
		return "gregorian"
	case Jalali:
		return "jalali"
	case Hijri:
		return "hijri"
	default:
		return "calendar(" + strconv.Itoa(int(c)) + ")"
	}
}

// Date is a year/month/day triple. Its meaning depends on the calendar it is
// used with; the type itself carries no calendar so that conversion
// functions stay simple value-in/value-out.
type Date struct {
	Year  int
	Month int
	Day   int
}

// New is shorthand for Date{y, m, d}.
func New(y, m, d int) Date {
	return Date{Year: y, Month: m, Day: d}
}

// JalaliString renders the date as "YYYY/MM/DD".
func (d Date) JalaliString() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// GregorianString renders the date as "YYYY-MM-DD".
func (d Date) GregorianString() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) String() string {
	return d.JalaliString()
}

// Before reports whether d sorts before o field by field.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// ParseJalali parses "YYYY/MM/DD". Only the shape is checked here; calendar
// validity is the job of the jalali package.
func ParseJalali(s string) (Date, error) {
	return parse(s, '/')
}

// ParseGregorian parses "YYYY-MM-DD". Only the shape is checked here.
func ParseGregorian(s string) (Date, error) {
	return parse(s, '-')
}

func parse(s string, sep byte) (Date, error) {
	norm := LatinDigits(strings.TrimSpace(s))
	if len(norm) != 10 || norm[4] != sep || norm[7] != sep {
		return Date{}, fmt.Errorf("%w: %q: expected YYYY%cMM%cDD", ErrInvalidDate, s, sep, sep)
	}
	y, err := atoi(norm[0:4])
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: year: %v", ErrInvalidDate, s, err)
	}
	m, err := atoi(norm[5:7])
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: month: %v", ErrInvalidDate, s, err)
	}
	d, err := atoi(norm[8:10])
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: day: %v", ErrInvalidDate, s, err)
	}
	return Date{Year: y, Month: m, Day: d}, nil
}

// atoi accepts only ASCII digits; strconv.Atoi would also take a sign.
func atoi(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-digit %q", s)
		}
	}
	return strconv.Atoi(s)
}

// LatinDigits maps Persian (U+06F0..U+06F9) and Arabic-Indic
// (U+0660..U+0669) digits to ASCII and leaves everything else alone.
func LatinDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
