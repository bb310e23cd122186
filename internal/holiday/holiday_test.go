package holiday

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jalaliflow/internal/caldate"
)

func TestFixedHolidays(t *testing.T) {
	h := FixedHolidays(1404)
	assert.Len(t, h, 6)
	assert.Equal(t, "نوروز", h["1404/01/01"])
	assert.Contains(t, h, "1404/01/13")
	assert.Contains(t, h, "1404/12/29")
	assert.NotContains(t, h, "1403/01/01")
}

func TestIsHoliday(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.IsHoliday("1404/01/01"))
	assert.True(t, r.IsHoliday("1404/01/04"))
	assert.False(t, r.IsHoliday("1404/01/05"))
	assert.False(t, r.IsHoliday("not-a-date"))
	assert.False(t, r.IsHoliday("1404/13/01"))
	assert.False(t, r.IsHoliday(""))
}

func TestAddCustomHoliday(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddCustomHoliday("1404/03/14", "رحلت امام"))
	assert.True(t, r.IsHoliday("1404/03/14"))

	desc, ok := r.Describe("1404/03/14")
	assert.True(t, ok)
	assert.Equal(t, "رحلت امام", desc)

	require.NoError(t, r.AddCustomHoliday("1404/03/14", "company day"))
	desc, _ = r.Describe("1404/03/14")
	assert.Equal(t, "company day", desc)

	// Custom entries override the fixed description.
	require.NoError(t, r.AddCustomHoliday("1404/01/01", "new year"))
	desc, _ = r.Describe("1404/01/01")
	assert.Equal(t, "new year", desc)

	err := r.AddCustomHoliday("1404/12/30", "nope")
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
	err = r.AddCustomHoliday("1404/05/05", "  ")
	assert.ErrorIs(t, err, caldate.ErrInvalidArgument)

	assert.Len(t, r.Custom(), 2)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	require.NoError(t, a.AddCustomHoliday("1404/05/05", "a only"))
	assert.True(t, a.IsHoliday("1404/05/05"))
	assert.False(t, b.IsHoliday("1404/05/05"))
}

func TestIsWorkingDay(t *testing.T) {
	r := NewRegistry()
	// 1404/02/24 is Wednesday 2025-05-14.
	assert.True(t, r.IsWorkingDay("1404/02/24"))
	// 1404/02/26 is Friday.
	assert.False(t, r.IsWorkingDay("1404/02/26"))
	// 1404/02/27 is Saturday.
	assert.True(t, r.IsWorkingDay("1404/02/27"))
	assert.False(t, r.IsWorkingDay("1404/01/02"))
	assert.False(t, r.IsWorkingDay("garbage"))

	require.NoError(t, r.AddCustomHoliday("1404/02/27", "closed"))
	assert.False(t, r.IsWorkingDay("1404/02/27"))
}

func TestHolidaysListing(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddCustomHoliday("1404/03/14", "custom"))
	require.NoError(t, r.AddCustomHoliday("1405/03/14", "other year"))

	list := r.Holidays(1404)
	require.Len(t, list, 7)
	assert.Equal(t, "1404/01/01", list[0].Date.JalaliString())
	assert.Equal(t, "1404/12/29", list[len(list)-1].Date.JalaliString())
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].Date.Before(list[i].Date))
	}
	var custom []Entry
	for _, e := range list {
		if e.Custom {
			custom = append(custom, e)
		}
	}
	require.Len(t, custom, 1)
	assert.Equal(t, "custom", custom[0].Description)
}

func TestIslamicHolidays(t *testing.T) {
	list, err := IslamicHolidays(1403)
	require.NoError(t, err)
	require.NotEmpty(t, list)

	r := NewRegistry()
	found := false
	for _, e := range list {
		assert.True(t, r.IsIslamicHoliday(e.Date.JalaliString()), e.Date.JalaliString())
		if e.Date == caldate.New(1403, 4, 18) {
			found = true
		}
	}
	assert.True(t, found, "1 Muharram 1446 should fall on 1403/04/18")
	assert.False(t, r.IsIslamicHoliday("1403/04/19"))
	assert.False(t, r.IsIslamicHoliday("bad"))

	_, err = IslamicHolidays(1200)
	assert.ErrorIs(t, err, caldate.ErrInvalidDate)
}

func TestConcurrentWriters(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 1; i <= 28; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_ = r.AddCustomHoliday(fmt.Sprintf("1404/08/%02d", day), "x")
			_ = r.IsHoliday("1404/08/01")
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.Custom(), 28)
}
