// Package hijri implements the tabular (arithmetic, civil epoch) Islamic
// calendar. It is an approximation of the observed lunar calendar and may
// differ from it by a day or two.
//
// Validation accepts any day 1-30 in any month,
// so day 30 of a 29-day month converts to the first day of the next month.
package hijri

import (
	"fmt"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/jalali"
	"jalaliflow/internal/jdn"
)

// epoch is the JDN of 1/1/1 AH (16 July 622 Julian, civil reckoning).
const epoch = 1948440

const maxDay = 30

// Validate checks the ranges accepted by the tabular calendar.
func Validate(y, m, d int) bool {
	return y >= 1 && m >= 1 && m <= 12 && d >= 1 && d <= maxDay
}

// ToJDN converts a Hijri date to a JDN without validating it.
func ToJDN(y, m, d int) int {
	return d +
		(59*(m-1)+1)/2 + // ceil(29.5 * (m-1))
		(y-1)*354 +
		(3+11*y)/30 +
		epoch - 1
}

// FromJDN converts a JDN (on or after the epoch) to a Hijri date.
func FromJDN(j int) (y, m, d int) {
	y = (30*(j-epoch) + 10646) / 10631
	for ToJDN(y+1, 1, 1) <= j {
		y++
	}
	for y > 1 && ToJDN(y, 1, 1) > j {
		y--
	}
	m = 1
	for m < 12 && ToJDN(y, m+1, 1) <= j {
		m++
	}
	d = j - ToJDN(y, m, 1) + 1
	return y, m, d
}

// FromGregorian converts a Gregorian date to Hijri.
func FromGregorian(gy, gm, gd int) (caldate.Date, error) {
	if !jdn.ValidGregorian(gy, gm, gd) {
		return caldate.Date{}, fmt.Errorf("%w: gregorian %04d-%02d-%02d", caldate.ErrInvalidDate, gy, gm, gd)
	}
	j := jdn.FromGregorian(gy, gm, gd)
	if j < epoch {
		return caldate.Date{}, fmt.Errorf("%w: gregorian %04d-%02d-%02d precedes the hijri epoch", caldate.ErrInvalidDate, gy, gm, gd)
	}
	y, m, d := FromJDN(j)
	return caldate.New(y, m, d), nil
}

// ToGregorian converts a Hijri date to Gregorian.
func ToGregorian(hy, hm, hd int) (caldate.Date, error) {
	if !Validate(hy, hm, hd) {
		return caldate.Date{}, fmt.Errorf("%w: hijri %04d/%02d/%02d", caldate.ErrInvalidDate, hy, hm, hd)
	}
	gy, gm, gd := jdn.ToGregorian(ToJDN(hy, hm, hd))
	return caldate.New(gy, gm, gd), nil
}

// MonthLength returns the tabular length of a month: odd months have 30
// days, even months 29, and month 12 gains a day in leap years.
func MonthLength(y, m int) int {
	if m == 12 {
		return ToJDN(y+1, 1, 1) - ToJDN(y, 12, 1)
	}
	return ToJDN(y, m+1, 1) - ToJDN(y, m, 1)
}

// IsLeap reports whether year has 355 days in the tabular scheme.
func IsLeap(y int) bool {
	return (14+11*y)%30 < 11
}

var holidays = map[[2]int]string{
	{1, 1}:   "Islamic New Year",
	{1, 10}:  "Ashura",
	{10, 1}:  "Eid al-Fitr",
	{12, 17}: "Eid al-Adha",
}

// HolidayName returns the name of the Islamic holiday falling on the Hijri
// month/day, if any.
func HolidayName(m, d int) (string, bool) {
	name, ok := holidays[[2]int{m, d}]
	return name, ok
}

// IsIslamicHoliday converts date from the given calendar to Hijri and
// checks it against the fixed holiday table.
func IsIslamicHoliday(date caldate.Date, cal caldate.Calendar) (bool, error) {
	var h caldate.Date
	switch cal {
	case caldate.Hijri:
		if !Validate(date.Year, date.Month, date.Day) {
			return false, fmt.Errorf("%w: hijri %s", caldate.ErrInvalidDate, date)
		}
		// Normalize day 30 of a short month.
		y, m, d := FromJDN(ToJDN(date.Year, date.Month, date.Day))
		h = caldate.New(y, m, d)
	case caldate.Gregorian:
		var err error
		if h, err = FromGregorian(date.Year, date.Month, date.Day); err != nil {
			return false, err
		}
	case caldate.Jalali:
		g, err := jalali.ToGregorian(date.Year, date.Month, date.Day)
		if err != nil {
			return false, err
		}
		if h, err = FromGregorian(g.Year, g.Month, g.Day); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("%w: unknown calendar %s", caldate.ErrInvalidArgument, cal)
	}
	_, ok := HolidayName(h.Month, h.Day)
	return ok, nil
}
