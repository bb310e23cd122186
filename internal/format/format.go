// Package format renders Jalali dates through a small directive language
// and produces relative day descriptions.
//
// A format string is read left to right. Each directive character is
// replaced by a field of the Moment; a backslash emits the following
// character verbatim; anything else is copied through. With lang "fa" the
// names are Persian and every digit in the output is written with Persian
// glyphs.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/jalali"
	"jalaliflow/internal/jdn"
)

const (
	LangFa = "fa"
	LangEn = "en"
)

// Moment is a fully resolved Jalali date and time of day.
type Moment struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	// Offset is the UTC offset, e.g. "+03:30".
	Offset string
	// Weekday is 0 for Saturday through 6 for Friday.
	Weekday int
	// DayOfYear is 1-based.
	DayOfYear int
}

// MomentFromTime resolves t, in its own location, into a Moment.
func MomentFromTime(t time.Time) Moment {
	d := jalali.FromTime(t)
	return Moment{
		Year:      d.Year,
		Month:     d.Month,
		Day:       d.Day,
		Hour:      t.Hour(),
		Minute:    t.Minute(),
		Second:    t.Second(),
		Offset:    t.Format("-07:00"),
		Weekday:   jalali.WeekdayIndex(t.Weekday()),
		DayOfYear: jalali.DayOfYear(d.Month, d.Day),
	}
}

// MomentFromDate resolves a Jalali date at midnight UTC.
func MomentFromDate(d caldate.Date) Moment {
	return Moment{
		Year:      d.Year,
		Month:     d.Month,
		Day:       d.Day,
		Offset:    "+00:00",
		Weekday:   jalali.Weekday(d),
		DayOfYear: jalali.DayOfYear(d.Month, d.Day),
	}
}

// Date returns the calendar part of m.
func (m Moment) Date() caldate.Date {
	return caldate.New(m.Year, m.Month, m.Day)
}

// Format renders m according to spec.
func Format(m Moment, spec string, lang string) string {
	n := namesFor(lang)
	var b strings.Builder
	runes := []rune(spec)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' {
			if i+1 < len(runes) {
				i++
				b.WriteRune(runes[i])
			} else {
				b.WriteRune(c)
			}
			continue
		}
		if s, ok := m.directive(c, n); ok {
			b.WriteString(s)
			continue
		}
		b.WriteRune(c)
	}
	if lang == LangFa {
		return PersianDigits(b.String())
	}
	return b.String()
}

func (m Moment) directive(c rune, n *names) (string, bool) {
	switch c {
	case 'Y':
		return strconv.Itoa(m.Year), true
	case 'y':
		return pad2(m.Year % 100), true
	case 'm':
		return pad2(m.Month), true
	case 'n':
		return strconv.Itoa(m.Month), true
	case 'd':
		return pad2(m.Day), true
	case 'j':
		return strconv.Itoa(m.Day), true
	case 'l':
		return lookup(n.weekdays[:], m.Weekday), true
	case 'D':
		return lookup(n.weekdaysShort[:], m.Weekday), true
	case 'F':
		return lookup(n.months[:], m.Month-1), true
	case 'M':
		return lookup(n.monthsShort[:], m.Month-1), true
	case 'f':
		return lookup(n.seasons[:], m.season()-1), true
	case 'b':
		return strconv.Itoa(m.season()), true
	case 'H':
		return pad2(m.Hour), true
	case 'i':
		return pad2(m.Minute), true
	case 's':
		return pad2(m.Second), true
	case 'w':
		return strconv.Itoa(m.Weekday), true
	case 't':
		return strconv.Itoa(jalali.MonthLength(m.Month, m.Year)), true
	case 'L':
		if jalali.IsLeap(m.Year) {
			return "1", true
		}
		return "0", true
	case 'C':
		return strconv.Itoa((m.Year + 99) / 100), true
	case 'c':
		return fmt.Sprintf("%04d/%02d/%02d %02d:%02d:%02d %s",
			m.Year, m.Month, m.Day, m.Hour, m.Minute, m.Second, m.Offset), true
	case 'K':
		return tenths(m.elapsedTenths()), true
	case 'k':
		return tenths(1000 - m.elapsedTenths()), true
	case 'S':
		return lookup(n.ordinals[:], m.Day-1), true
	case 'a':
		return n.amShort[m.half()], true
	case 'A':
		return n.amLong[m.half()], true
	case 'z':
		return strconv.Itoa(m.DayOfYear - 1), true
	case 'P':
		return m.Offset, true
	}
	return "", false
}

func (m Moment) season() int {
	if m.Month < 1 || m.Month > 12 {
		return 0
	}
	return (m.Month-1)/3 + 1
}

func (m Moment) half() int {
	if m.Hour >= 12 {
		return 1
	}
	return 0
}

// elapsedTenths is the share of the year already passed, in tenths of a
// percent, truncated.
func (m Moment) elapsedTenths() int {
	return (m.DayOfYear - 1) * 1000 / jalali.YearLength(m.Year)
}

func tenths(v int) string {
	if v%10 == 0 {
		return strconv.Itoa(v / 10)
	}
	return strconv.Itoa(v/10) + "." + strconv.Itoa(v%10)
}

func lookup(table []string, idx int) string {
	if idx < 0 || idx >= len(table) {
		return ""
	}
	return table[idx]
}

func pad2(v int) string {
	if v >= 0 && v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

// PersianDigits rewrites ASCII digits with Persian glyphs. A '.' between two
// digits is a decimal point and becomes '٫'; other dots are left alone.
func PersianDigits(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) * 2)
	for i, r := range runes {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune('۰' + (r - '0'))
		case r == '.' && i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1]):
			b.WriteRune('٫')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// LatinDigits is the inverse of PersianDigits for digits; it also accepts
// Arabic-Indic digits.
func LatinDigits(s string) string {
	return strings.ReplaceAll(caldate.LatinDigits(s), "٫", ".")
}

// ToRelative describes t relative to now at calendar-day granularity in
// now's location: today, yesterday, tomorrow or "N days ago/later".
func ToRelative(t, now time.Time, lang string) string {
	n := namesFor(lang)
	diff := jdn.FromTime(t.In(now.Location())) - jdn.FromTime(now)
	var out string
	switch {
	case diff == 0:
		out = n.today
	case diff == -1:
		out = n.yesterday
	case diff == 1:
		out = n.tomorrow
	case diff < 0:
		out = fmt.Sprintf(n.daysAgo, -diff)
	default:
		out = fmt.Sprintf(n.daysLater, diff)
	}
	if lang == LangFa {
		return PersianDigits(out)
	}
	return out
}
