// Package jdn bridges the proleptic Gregorian calendar and Julian Day
// Numbers. Every other calendar in this module converts through a JDN.
//
// A JDN here is the integer chronological day number (the day that starts
// at the preceding midnight); time of day is carried separately by callers.
// The Gregorian rule is applied proleptically, so there is no 1582 reform
// gap.
package jdn

import "time"

// FromGregorian returns the JDN of the given Gregorian date using the
// Fliegel-Van Flandern formula. Inputs are not validated.
func FromGregorian(y, m, d int) int {
	a := (m - 14) / 12
	return (1461*(y+4800+a))/4 +
		(367*(m-2-12*a))/12 -
		(3*((y+4900+a)/100))/4 +
		d - 32075
}

// ToGregorian is the inverse of FromGregorian for positive day numbers.
func ToGregorian(j int) (y, m, d int) {
	l := j + 68569
	n := (4 * l) / 146097
	l -= (146097*n + 3) / 4
	i := (4000 * (l + 1)) / 1461001
	l = l - (1461*i)/4 + 31
	k := (80 * l) / 2447
	d = l - (2447*k)/80
	l = k / 11
	m = k + 2 - 12*l
	y = 100*(n-49) + i + l
	return y, m, d
}

// IsGregorianLeap reports whether y is a Gregorian leap year.
func IsGregorianLeap(y int) bool {
	return (y%4 == 0 && y%100 != 0) || y%400 == 0
}

var gregorianMonthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// GregorianMonthLength returns the number of days in month m of year y, or
// 0 if m is out of range.
func GregorianMonthLength(y, m int) int {
	if m < 1 || m > 12 {
		return 0
	}
	if m == 2 && IsGregorianLeap(y) {
		return 29
	}
	return gregorianMonthDays[m-1]
}

// ValidGregorian reports whether y/m/d names a real day with y >= 1.
func ValidGregorian(y, m, d int) bool {
	if y < 1 {
		return false
	}
	n := GregorianMonthLength(y, m)
	return n > 0 && d >= 1 && d <= n
}

// Weekday returns the day of the week for a JDN using time.Weekday
// numbering (Sunday == 0).
func Weekday(j int) time.Weekday {
	// JDN 0 was a Monday.
	return time.Weekday((j + 1) % 7)
}

// FromTime returns the JDN of t's calendar date in t's own location.
func FromTime(t time.Time) int {
	return FromGregorian(t.Year(), int(t.Month()), t.Day())
}
