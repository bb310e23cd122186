package jalali

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ptime "github.com/yaa110/go-persian-calendar"

	"jalaliflow/internal/caldate"
)

func TestLeapYears(t *testing.T) {
	leap := []int{1370, 1375, 1379, 1383, 1387, 1391, 1395, 1399, 1403, 1408}
	for _, y := range leap {
		assert.True(t, IsLeap(y), "%d should be leap", y)
		assert.Equal(t, 30, MonthLength(12, y))
		assert.Equal(t, 366, YearLength(y))
	}
	notLeap := []int{1371, 1400, 1401, 1402, 1404, 1405, 1406, 1407}
	for _, y := range notLeap {
		assert.False(t, IsLeap(y), "%d should not be leap", y)
		assert.Equal(t, 29, MonthLength(12, y))
	}
}

func TestMonthLength(t *testing.T) {
	for m := 1; m <= 6; m++ {
		assert.Equal(t, 31, MonthLength(m, 1404))
	}
	for m := 7; m <= 11; m++ {
		assert.Equal(t, 30, MonthLength(m, 1404))
	}
	assert.Equal(t, 0, MonthLength(0, 1404))
	assert.Equal(t, 0, MonthLength(13, 1404))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1404/02/24", true},
		{"1404/13/01", false},
		{"1404/00/10", false},
		{"1404/12/30", false},
		{"1403/12/30", true},
		{"1404/07/31", false},
		{"1404/06/31", true},
		{"1299/12/29", false},
		{"1300/01/01", true},
		{"1500/12/29", true},
		{"1501/01/01", false},
		{"not-a-date", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateString(tt.in), tt.in)
	}
}

func TestKnownConversions(t *testing.T) {
	tests := []struct {
		jalali    caldate.Date
		gregorian caldate.Date
	}{
		{caldate.New(1403, 1, 1), caldate.New(2024, 3, 20)},
		{caldate.New(1404, 1, 1), caldate.New(2025, 3, 21)},
		{caldate.New(1404, 2, 24), caldate.New(2025, 5, 14)},
		{caldate.New(1403, 12, 30), caldate.New(2025, 3, 20)},
		{caldate.New(1378, 10, 11), caldate.New(2000, 1, 1)},
		{caldate.New(1357, 11, 22), caldate.New(1979, 2, 11)},
	}
	for _, tt := range tests {
		g, err := ToGregorian(tt.jalali.Year, tt.jalali.Month, tt.jalali.Day)
		require.NoError(t, err)
		assert.Equal(t, tt.gregorian, g, "to gregorian %s", tt.jalali)

		j, err := FromGregorian(tt.gregorian.Year, tt.gregorian.Month, tt.gregorian.Day)
		require.NoError(t, err)
		assert.Equal(t, tt.jalali, j, "from gregorian %s", tt.gregorian.GregorianString())
	}
}

func TestRoundTripWholeDomain(t *testing.T) {
	for y := MinYear; y <= MaxYear; y++ {
		for m := 1; m <= 12; m++ {
			for d := 1; d <= MonthLength(m, y); d++ {
				g, err := ToGregorian(y, m, d)
				require.NoError(t, err)
				back, err := FromGregorian(g.Year, g.Month, g.Day)
				require.NoError(t, err)
				if back != caldate.New(y, m, d) {
					t.Fatalf("%04d/%02d/%02d -> %s -> %s", y, m, d, g.GregorianString(), back)
				}
			}
		}
	}
}

func TestConsecutiveDays(t *testing.T) {
	prev := ToJDN(MinYear, 1, 1)
	for j := prev + 1; j < ToJDN(MaxYear, 12, 29); j++ {
		y, m, d := FromJDN(j)
		if ToJDN(y, m, d) != j {
			t.Fatalf("jdn %d -> %d/%d/%d", j, y, m, d)
		}
	}
}

// TestMatchesPersianCalendarLibrary cross-checks the conversion against an
// independent implementation over years where all common algorithms agree.
func TestMatchesPersianCalendarLibrary(t *testing.T) {
	start := time.Date(1995, 1, 1, 12, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		got, err := FromGregorian(day.Year(), int(day.Month()), day.Day())
		require.NoError(t, err)
		pt := ptime.New(day)
		want := caldate.New(pt.Year(), int(pt.Month()), pt.Day())
		if got != want {
			t.Fatalf("%s: got %s want %s", day.Format("2006-01-02"), got, want)
		}
	}
}

func TestFromGregorianErrors(t *testing.T) {
	_, err := FromGregorian(621, 12, 31)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
	_, err = FromGregorian(2023, 2, 29)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
	_, err = FromGregorian(2024, 13, 1)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)

	// 622-03-21 is 0001/01/01; the days of 622 before it have no Jalali year.
	_, err = FromGregorian(622, 1, 1)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
	_, err = FromGregorian(622, 3, 20)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)

	d, err := FromGregorian(622, 3, 21)
	require.NoError(t, err)
	assert.Equal(t, caldate.New(1, 1, 1), d)

	d, err = FromGregorian(622, 6, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Year)
}

func TestToGregorianErrors(t *testing.T) {
	_, err := ToGregorian(1404, 12, 30)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
	_, err = ToGregorian(1200, 1, 1)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
}

func TestParse(t *testing.T) {
	d, err := Parse("1404/06/31")
	require.NoError(t, err)
	assert.Equal(t, caldate.New(1404, 6, 31), d)

	_, err = Parse("1404/07/31")
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
	_, err = Parse("1404-07-01")
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
}

func TestWeekday(t *testing.T) {
	// 2025-05-14 was a Wednesday; Saturday-first index 4.
	assert.Equal(t, 4, Weekday(caldate.New(1404, 2, 24)))
	// 2025-03-21 was a Friday.
	assert.Equal(t, 6, Weekday(caldate.New(1404, 1, 1)))
	assert.Equal(t, 0, WeekdayIndex(time.Saturday))
	assert.Equal(t, 6, WeekdayIndex(time.Friday))
}

func TestDayOfYear(t *testing.T) {
	assert.Equal(t, 1, DayOfYear(1, 1))
	assert.Equal(t, 186, DayOfYear(6, 31))
	assert.Equal(t, 187, DayOfYear(7, 1))
	assert.Equal(t, 366, DayOfYear(12, 30))
}

func TestFromTimeUsesLocation(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)
	// 22:00 UTC on 2025-03-20 is already 1404/01/01 in Tehran.
	utc := time.Date(2025, 3, 20, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, caldate.New(1403, 12, 30), FromTime(utc))
	assert.Equal(t, caldate.New(1404, 1, 1), FromTime(utc.In(tehran)))
}
