// Package datemath implements calendar arithmetic on Jalali dates.
//
// Day and week shifts go through the Julian Day bridge. Month and year
// shifts work on the Jalali fields directly and clamp the day to the length
// of the target month, so 1404/06/31 plus one month is 1404/07/30.
package datemath

import (
	"fmt"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/jalali"
	"jalaliflow/internal/jdn"
)

// Unit selects the granularity of Diff.
type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
	Year  Unit = "year"
)

// ParseUnit accepts the singular or plural unit name.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "day", "days":
		return Day, nil
	case "week", "weeks":
		return Week, nil
	case "month", "months":
		return Month, nil
	case "year", "years":
		return Year, nil
	}
	return "", fmt.Errorf("%w: unknown unit %q", caldate.ErrInvalidArgument, s)
}

func invalid(d caldate.Date) error {
	return fmt.Errorf("%w: jalali %s", caldate.ErrInvalidDate, d)
}

// AddDays shifts d by n calendar days.
func AddDays(d caldate.Date, n int) (caldate.Date, error) {
	if !jalali.ValidDate(d) {
		return caldate.Date{}, invalid(d)
	}
	g, err := jalali.ToGregorian(d.Year, d.Month, d.Day)
	if err != nil {
		return caldate.Date{}, err
	}
	y, m, day := jalali.FromJDN(jdn.FromGregorian(g.Year, g.Month, g.Day) + n)
	out := caldate.New(y, m, day)
	if !jalali.ValidDate(out) {
		return caldate.Date{}, fmt.Errorf("%w: %s shifted by %d days leaves the supported range", caldate.ErrInvalidDate, d, n)
	}
	return out, nil
}

// SubDays shifts d back by n days.
func SubDays(d caldate.Date, n int) (caldate.Date, error) {
	return AddDays(d, -n)
}

// AddWeeks shifts d by n weeks.
func AddWeeks(d caldate.Date, n int) (caldate.Date, error) {
	return AddDays(d, 7*n)
}

// SubWeeks shifts d back by n weeks.
func SubWeeks(d caldate.Date, n int) (caldate.Date, error) {
	return AddDays(d, -7*n)
}

// AddMonths shifts d by n Jalali months, clamping the day to the target
// month's length.
func AddMonths(d caldate.Date, n int) (caldate.Date, error) {
	if !jalali.ValidDate(d) {
		return caldate.Date{}, invalid(d)
	}
	total := d.Month - 1 + n
	year := d.Year + floorDiv(total, 12)
	month := total - floorDiv(total, 12)*12 + 1
	day := d.Day
	if last := jalali.MonthLength(month, year); day > last {
		day = last
	}
	out := caldate.New(year, month, day)
	if !jalali.ValidDate(out) {
		return caldate.Date{}, fmt.Errorf("%w: %s shifted by %d months leaves the supported range", caldate.ErrInvalidDate, d, n)
	}
	return out, nil
}

// SubMonths shifts d back by n months.
func SubMonths(d caldate.Date, n int) (caldate.Date, error) {
	return AddMonths(d, -n)
}

// AddYears shifts d by n years; Esfand 30 clamps to 29 in common years.
func AddYears(d caldate.Date, n int) (caldate.Date, error) {
	return AddMonths(d, 12*n)
}

// SubYears shifts d back by n years.
func SubYears(d caldate.Date, n int) (caldate.Date, error) {
	return AddMonths(d, -12*n)
}

// Span is the Gregorian calendar interval between two dates, always
// measured from the earlier to the later one.
type Span struct {
	Years, Months, Days int
	TotalDays           int
}

// Interval converts both Jalali dates to Gregorian and returns the
// calendar interval between them.
func Interval(start, end caldate.Date) (Span, error) {
	if !jalali.ValidDate(start) {
		return Span{}, invalid(start)
	}
	if !jalali.ValidDate(end) {
		return Span{}, invalid(end)
	}
	a, err := jalali.ToGregorian(start.Year, start.Month, start.Day)
	if err != nil {
		return Span{}, err
	}
	b, err := jalali.ToGregorian(end.Year, end.Month, end.Day)
	if err != nil {
		return Span{}, err
	}
	if b.Before(a) {
		a, b = b, a
	}
	months := (b.Year-a.Year)*12 + b.Month - a.Month
	if b.Day < a.Day {
		months--
	}
	// Step a forward by whole months, clamping to the landing month.
	my, mm := a.Year+floorDiv(a.Month-1+months, 12), (a.Month-1+months)%12+1
	md := min(a.Day, jdn.GregorianMonthLength(my, mm))
	bj := jdn.FromGregorian(b.Year, b.Month, b.Day)
	s := Span{
		Years:     months / 12,
		Months:    months % 12,
		Days:      bj - jdn.FromGregorian(my, mm, md),
		TotalDays: bj - jdn.FromGregorian(a.Year, a.Month, a.Day),
	}
	return s, nil
}

// Diff measures the distance between two dates. Days are whole and
// absolute; weeks are days/7; months and years are approximations that
// count leftover days as 1/30 month and 1/365 year respectively.
func Diff(start, end caldate.Date, unit Unit) (float64, error) {
	s, err := Interval(start, end)
	if err != nil {
		return 0, err
	}
	switch unit {
	case Day:
		return float64(s.TotalDays), nil
	case Week:
		return float64(s.TotalDays) / 7, nil
	case Month:
		return float64(s.Years*12+s.Months) + float64(s.Days)/30, nil
	case Year:
		return float64(s.Years) + float64(s.Months)/12 + float64(s.Days)/365, nil
	}
	return 0, fmt.Errorf("%w: unknown unit %q", caldate.ErrInvalidArgument, unit)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
