package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jalaliflow/internal/caldate"
)

func sampleMoment() Moment {
	return Moment{
		Year: 1404, Month: 2, Day: 24,
		Hour: 13, Minute: 5, Second: 9,
		Offset:    "+03:30",
		Weekday:   3,
		DayOfYear: 55,
	}
}

func TestFormatDirectives(t *testing.T) {
	m := sampleMoment()
	tests := []struct {
		spec string
		lang string
		want string
	}{
		{"Y/m/d", LangEn, "1404/02/24"},
		{"Y/m/d", LangFa, "۱۴۰۴/۰۲/۲۴"},
		{"y-n-j", LangEn, "04-2-24"},
		{"H:i:s", LangEn, "13:05:09"},
		{"l D", LangEn, "Tuesday Tue"},
		{"l", LangFa, "سه‌شنبه"},
		{"F M", LangEn, "Ordibehesht Ord"},
		{"F", LangFa, "اردیبهشت"},
		{"f b", LangEn, "Spring 1"},
		{"w t L C", LangEn, "3 31 0 15"},
		{"S", LangEn, "twenty-fourth"},
		{"S", LangFa, "بیست و چهارم"},
		{"a A", LangEn, "pm PM"},
		{"a", LangFa, "ب.ظ"},
		{"z P", LangEn, "54 +03:30"},
		{"c", LangEn, "1404/02/24 13:05:09 +03:30"},
		{"K k", LangEn, "14.7 85.3"},
		{"K", LangFa, "۱۴٫۷"},
		{`\Y\m\d`, LangEn, "Ymd"},
		{`Y\\m`, LangEn, `1404\02`},
		{`\l: l`, LangEn, "l: Tuesday"},
		{"Y#m", LangEn, "1404#02"},
		{`Y\`, LangEn, `1404\`},
		{"", LangEn, ""},
	}
	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(m, tt.spec, tt.lang))
		})
	}
}

func TestFormatWeekdayTableIsSaturdayFirst(t *testing.T) {
	m := sampleMoment()
	want := []string{"Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	for i, name := range want {
		m.Weekday = i
		assert.Equal(t, name, Format(m, "l", LangEn))
	}
}

func TestFormatOrdinalIsOneBased(t *testing.T) {
	m := sampleMoment()
	m.Day = 1
	assert.Equal(t, "first", Format(m, "S", LangEn))
	m.Day = 31
	assert.Equal(t, "thirty-first", Format(m, "S", LangEn))
	assert.Equal(t, "سی و یکم", Format(m, "S", LangFa))
}

func TestFormatSeasons(t *testing.T) {
	m := sampleMoment()
	for month, want := range map[int]string{1: "Spring", 4: "Summer", 7: "Autumn", 10: "Winter", 12: "Winter"} {
		m.Month = month
		assert.Equal(t, want, Format(m, "f", LangEn))
	}
}

func TestYearProgressAtEdges(t *testing.T) {
	m := sampleMoment()
	m.DayOfYear = 1
	assert.Equal(t, "0 100", Format(m, "K k", LangEn))
}

func TestMomentFromTime(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)
	ts := time.Date(2025, 5, 14, 13, 5, 9, 0, tehran)
	m := MomentFromTime(ts)
	assert.Equal(t, Moment{
		Year: 1404, Month: 2, Day: 24,
		Hour: 13, Minute: 5, Second: 9,
		Offset:    "+03:30",
		Weekday:   4,
		DayOfYear: 55,
	}, m)
	assert.Equal(t, "چهارشنبه ۲۴ اردیبهشت ۱۴۰۴", Format(m, "l j F Y", LangFa))
}

func TestMomentFromDate(t *testing.T) {
	m := MomentFromDate(caldate.New(1404, 1, 1))
	assert.Equal(t, 6, m.Weekday)
	assert.Equal(t, 1, m.DayOfYear)
	assert.Equal(t, caldate.New(1404, 1, 1), m.Date())
}

func TestPersianDigits(t *testing.T) {
	assert.Equal(t, "۰۱۲۳۴۵۶۷۸۹", PersianDigits("0123456789"))
	assert.Equal(t, "۳٫۵", PersianDigits("3.5"))
	assert.Equal(t, "ق.ظ ۱.", PersianDigits("ق.ظ 1."))
	assert.Equal(t, "12.5", LatinDigits("۱۲٫۵"))
}

func TestToRelative(t *testing.T) {
	loc := time.FixedZone("IRST", 3*3600+1800)
	now := time.Date(2025, 5, 14, 23, 30, 0, 0, loc)
	tests := []struct {
		t    time.Time
		lang string
		want string
	}{
		{now.Add(-23 * time.Hour), LangEn, "today"},
		{time.Date(2025, 5, 15, 0, 10, 0, 0, loc), LangEn, "tomorrow"},
		{time.Date(2025, 5, 13, 0, 0, 0, 0, loc), LangEn, "yesterday"},
		{time.Date(2025, 5, 4, 12, 0, 0, 0, loc), LangEn, "10 days ago"},
		{time.Date(2025, 5, 17, 12, 0, 0, 0, loc), LangEn, "3 days later"},
		{time.Date(2025, 5, 14, 1, 0, 0, 0, loc), LangFa, "امروز"},
		{time.Date(2025, 5, 4, 12, 0, 0, 0, loc), LangFa, "۱۰ روز پیش"},
		{time.Date(2025, 5, 17, 12, 0, 0, 0, loc), LangFa, "۳ روز بعد"},
		// 21:00 UTC on the 14th is already the 15th in Tehran.
		{time.Date(2025, 5, 14, 21, 0, 0, 0, time.UTC), LangEn, "tomorrow"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToRelative(tt.t, now, tt.lang), tt.t.String())
	}
}

func TestNameHelpers(t *testing.T) {
	assert.Equal(t, "Esfand", MonthName(12, LangEn))
	assert.Equal(t, "فروردین", MonthName(1, LangFa))
	assert.Equal(t, "", MonthName(13, LangEn))
	assert.Equal(t, "جمعه", WeekdayName(6, LangFa))
	assert.Equal(t, "", WeekdayName(7, LangFa))
}
