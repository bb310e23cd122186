package caldate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJalali(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"1404/02/24", New(1404, 2, 24), false},
		{" 1404/12/29 ", New(1404, 12, 29), false},
		{"۱۴۰۴/۰۱/۰۱", New(1404, 1, 1), false},
		{"1404-02-24", Date{}, true},
		{"1404/2/24", Date{}, true},
		{"not-a-date", Date{}, true},
		{"14a4/02/24", Date{}, true},
		{"+404/02/24", Date{}, true},
		{"", Date{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseJalali(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDate))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGregorian(t *testing.T) {
	d, err := ParseGregorian("2025-05-14")
	require.NoError(t, err)
	assert.Equal(t, New(2025, 5, 14), d)

	_, err = ParseGregorian("2025/05/14")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDateStrings(t *testing.T) {
	d := New(1404, 7, 3)
	assert.Equal(t, "1404/07/03", d.JalaliString())
	assert.Equal(t, "1404-07-03", d.GregorianString())
	assert.Equal(t, "1404/07/03", d.String())
}

func TestBefore(t *testing.T) {
	assert.True(t, New(1403, 12, 30).Before(New(1404, 1, 1)))
	assert.True(t, New(1404, 1, 1).Before(New(1404, 1, 2)))
	assert.False(t, New(1404, 1, 2).Before(New(1404, 1, 2)))
	assert.False(t, New(1404, 2, 1).Before(New(1404, 1, 31)))
}

func TestLatinDigits(t *testing.T) {
	assert.Equal(t, "1404/01/01", LatinDigits("۱۴۰۴/۰۱/۰۱"))
	assert.Equal(t, "0123456789", LatinDigits("٠١٢٣٤٥٦٧٨٩"))
	assert.Equal(t, "abc", LatinDigits("abc"))
}

func TestCalendarString(t *testing.T) {
	assert.Equal(t, "jalali", Jalali.String())
	assert.Equal(t, "hijri", Hijri.String())
	assert.Equal(t, "gregorian", Gregorian.String())
	assert.Equal(t, "calendar(9)", Calendar(9).String())
}
