package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jalaliflow/internal/caldate"
)

func TestNextRunDate(t *testing.T) {
	tests := []struct {
		current string
		freq    Frequency
		want    string
	}{
		{"1404/01/01", Monthly, "1404/02/01"},
		{"1404/01/01", Yearly, "1405/01/01"},
		{"1404/01/01", Daily, "1404/01/02"},
		{"1404/01/01", Weekly, "1404/01/08"},
		{"1404/12/29", Daily, "1405/01/01"},
		{"1404/06/31", Monthly, "1404/07/30"},
		{"1403/12/30", Yearly, "1404/12/29"},
	}
	for _, tt := range tests {
		cur, err := caldate.ParseJalali(tt.current)
		require.NoError(t, err)
		got, err := NextRunDate(cur, tt.freq)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.JalaliString(), "%s %s", tt.current, tt.freq)
	}
}

func TestNextRunDateRejectsUnknownFrequency(t *testing.T) {
	_, err := NextRunDate(caldate.New(1404, 1, 1), Frequency("hourly"))
	assert.ErrorIs(t, err, caldate.ErrInvalidFrequency)

	_, err = NextRun("1404/01/01", "fortnightly")
	assert.ErrorIs(t, err, caldate.ErrInvalidFrequency)

	_, err = NextRun("1404/13/01", "daily")
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
}

func TestNextRunStrings(t *testing.T) {
	got, err := NextRun("1404/01/01", "Monthly")
	require.NoError(t, err)
	assert.Equal(t, "1404/02/01", got)
}

func TestParseFrequency(t *testing.T) {
	for _, f := range Frequencies {
		got, err := ParseFrequency(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFrequency(" WEEKLY ")
	require.NoError(t, err)
	assert.Equal(t, Weekly, got)

	_, err = ParseFrequency("")
	assert.ErrorIs(t, err, caldate.ErrInvalidFrequency)
}

func dates(ds []caldate.Date) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.JalaliString()
	}
	return out
}

func TestUpcoming(t *testing.T) {
	got, err := Upcoming(caldate.New(1404, 12, 28), Daily, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"1404/12/28", "1404/12/29", "1405/01/01", "1405/01/02"}, dates(got))

	got, err = Upcoming(caldate.New(1404, 1, 1), Weekly, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1404/01/01", "1404/01/08", "1404/01/15"}, dates(got))

	got, err = Upcoming(caldate.New(1404, 6, 31), Monthly, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1404/06/31", "1404/07/30", "1404/08/30"}, dates(got))

	got, err = Upcoming(caldate.New(1404, 5, 31), Monthly, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1404/05/31", "1404/06/31", "1404/07/30"}, dates(got))

	got, err = Upcoming(caldate.New(1403, 12, 30), Yearly, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1403/12/30", "1404/12/29", "1405/12/29"}, dates(got))

	got, err = Upcoming(caldate.New(1404, 1, 1), Daily, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpcomingErrors(t *testing.T) {
	_, err := Upcoming(caldate.New(1404, 12, 30), Daily, 2)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)

	_, err = Upcoming(caldate.New(1404, 1, 1), Frequency("x"), 2)
	assert.ErrorIs(t, err, caldate.ErrInvalidFrequency)

	got, err := Upcoming(caldate.New(1500, 12, 28), Daily, 5)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
	assert.Equal(t, []string{"1500/12/28", "1500/12/29"}, dates(got))
}

func TestDue(t *testing.T) {
	assert.True(t, Due(caldate.New(1404, 1, 1), caldate.New(1404, 1, 1)))
	assert.True(t, Due(caldate.New(1403, 12, 1), caldate.New(1404, 1, 1)))
	assert.False(t, Due(caldate.New(1404, 1, 2), caldate.New(1404, 1, 1)))
}
