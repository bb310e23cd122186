// Package jalali converts between the Jalali (Persian solar Hijri) calendar,
// Julian Day Numbers and the Gregorian calendar.
//
// Leap years follow the arithmetic 33-year cycle: a year is leap when
// ((year + 12) mod 33) mod 4 == 1, giving 8 leap years per cycle. Months 1-6
// have 31 days, 7-11 have 30 and month 12 has 29, or 30 in a leap year.
//
// Validation deliberately restricts years to [MinYear, MaxYear]; dates
// outside that window are rejected even though the arithmetic covers them.
package jalali

import (
	"fmt"
	"time"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/jdn"
)

const (
	MinYear = 1300
	MaxYear = 1500

	// MinGregorianYear is the first Gregorian year accepted by FromGregorian.
	MinGregorianYear = 622

	// epoch is the JDN of 1/1/1 under the 33-year rule.
	epoch = 1948320

	cycleYears = 33
	cycleLeaps = 8
	cycleDays  = cycleYears*365 + cycleLeaps
)

// leapsBefore[r] counts leap years with residue (year mod 33) < r.
var leapsBefore = func() [cycleYears + 1]int {
	var t [cycleYears + 1]int
	for r := 0; r < cycleYears; r++ {
		t[r+1] = t[r]
		if IsLeap(r) {
			t[r+1]++
		}
	}
	return t
}()

// IsLeap reports whether year has 366 days.
func IsLeap(year int) bool {
	return floorMod(floorMod(year+12, cycleYears), 4) == 1
}

// YearLength returns 365 or 366.
func YearLength(year int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// MonthLength returns the number of days in month of year, or 0 when the
// month is out of range.
func MonthLength(month, year int) int {
	switch {
	case month >= 1 && month <= 6:
		return 31
	case month >= 7 && month <= 11:
		return 30
	case month == 12:
		if IsLeap(year) {
			return 30
		}
		return 29
	default:
		return 0
	}
}

// Validate reports whether y/m/d is a real Jalali date inside the supported
// year window.
func Validate(y, m, d int) bool {
	if y < MinYear || y > MaxYear {
		return false
	}
	n := MonthLength(m, y)
	return n > 0 && d >= 1 && d <= n
}

// ValidDate is Validate for a caldate.Date.
func ValidDate(d caldate.Date) bool {
	return Validate(d.Year, d.Month, d.Day)
}

// ValidateString reports whether s is a "YYYY/MM/DD" string naming a valid
// date.
func ValidateString(s string) bool {
	d, err := caldate.ParseJalali(s)
	if err != nil {
		return false
	}
	return ValidDate(d)
}

// Parse parses and validates a "YYYY/MM/DD" Jalali date.
func Parse(s string) (caldate.Date, error) {
	d, err := caldate.ParseJalali(s)
	if err != nil {
		return caldate.Date{}, err
	}
	if !ValidDate(d) {
		return caldate.Date{}, fmt.Errorf("%w: jalali %s", caldate.ErrInvalidDate, s)
	}
	return d, nil
}

// DayOfYear returns the 1-based ordinal of month/day within its year.
func DayOfYear(month, day int) int {
	if month <= 7 {
		return (month-1)*31 + day
	}
	return 6*31 + (month-7)*30 + day
}

// daysBefore returns the number of days from 1/1/1 to 1/1 of year. It is
// defined for every integer year.
func daysBefore(year int) int {
	n := year - 1
	return 365*n + floorDiv(year, cycleYears)*cycleLeaps + leapsBefore[floorMod(year, cycleYears)]
}

// ToJDN converts a Jalali date to a JDN without validating it.
func ToJDN(y, m, d int) int {
	return epoch + daysBefore(y) + DayOfYear(m, d) - 1
}

// FromJDN converts a JDN to a Jalali date.
func FromJDN(j int) (y, m, d int) {
	days := j - epoch
	y = 1 + cycleYears*floorDiv(days, cycleDays) + floorMod(days, cycleDays)/366
	for daysBefore(y+1) <= days {
		y++
	}
	doy := days - daysBefore(y)
	if doy < 6*31 {
		return y, doy/31 + 1, doy%31 + 1
	}
	doy -= 6 * 31
	return y, doy/30 + 7, doy%30 + 1
}

// FromGregorian converts a Gregorian date to Jalali. It fails with
// caldate.ErrInvalidDate when the input is not a real Gregorian day or
// precedes the Jalali epoch (622-03-21).
func FromGregorian(gy, gm, gd int) (caldate.Date, error) {
	if gy < MinGregorianYear || !jdn.ValidGregorian(gy, gm, gd) {
		return caldate.Date{}, fmt.Errorf("%w: gregorian %04d-%02d-%02d", caldate.ErrInvalidDate, gy, gm, gd)
	}
	j := jdn.FromGregorian(gy, gm, gd)
	if j < epoch {
		return caldate.Date{}, fmt.Errorf("%w: gregorian %04d-%02d-%02d precedes the jalali epoch", caldate.ErrInvalidDate, gy, gm, gd)
	}
	y, m, d := FromJDN(j)
	return caldate.New(y, m, d), nil
}

// ToGregorian converts a validated Jalali date to Gregorian.
func ToGregorian(jy, jm, jd int) (caldate.Date, error) {
	if !Validate(jy, jm, jd) {
		return caldate.Date{}, fmt.Errorf("%w: jalali %04d/%02d/%02d", caldate.ErrInvalidDate, jy, jm, jd)
	}
	gy, gm, gd := jdn.ToGregorian(ToJDN(jy, jm, jd))
	return caldate.New(gy, gm, gd), nil
}

// FromTime returns the Jalali date of t's calendar day in t's location.
func FromTime(t time.Time) caldate.Date {
	y, m, d := FromJDN(jdn.FromTime(t))
	return caldate.New(y, m, d)
}

// Weekday returns the Jalali weekday index of a date without validating
// it: 0 is Saturday and 6 is Friday.
func Weekday(d caldate.Date) int {
	return WeekdayIndex(jdn.Weekday(ToJDN(d.Year, d.Month, d.Day)))
}

// WeekdayIndex maps a time.Weekday onto the Saturday-first week.
func WeekdayIndex(w time.Weekday) int {
	return (int(w) + 1) % 7
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
