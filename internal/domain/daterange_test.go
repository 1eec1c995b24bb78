package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRange_AllTimeKeyDistinct(t *testing.T) {
	all := AllTime()
	bounded := Bounded(day(2022, 1, 1), day(2022, 1, 2))

	assert.True(t, all.IsAllTime())
	assert.False(t, bounded.IsAllTime())
	assert.NotEqual(t, all.Key(), bounded.Key())
	assert.Equal(t, "allTime", all.Key())
}

func TestDateRange_PartialBoundsCollapseToAllTime(t *testing.T) {
	from := day(2022, 1, 1)

	assert.True(t, NewDateRange(&from, nil).IsAllTime())
	assert.True(t, NewDateRange(nil, &from).IsAllTime())
	assert.True(t, NewDateRange(nil, nil).IsAllTime())
	assert.True(t, DaysRange(&from, nil).IsAllTime())
}

func TestDateRange_ContainsHalfOpen(t *testing.T) {
	r := Bounded(day(2022, 1, 1), day(2022, 1, 3))

	assert.True(t, r.Contains(day(2022, 1, 1)))
	assert.True(t, r.Contains(day(2022, 1, 2).Add(23*time.Hour)))
	assert.False(t, r.Contains(day(2022, 1, 3)))
	assert.False(t, r.Contains(day(2021, 12, 31).Add(23*time.Hour)))
}

func TestDateRange_KeyIgnoresLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	a := Bounded(day(2022, 1, 1), day(2022, 1, 2))
	b := Bounded(day(2022, 1, 1).In(loc), day(2022, 1, 2).In(loc))

	assert.Equal(t, a.Key(), b.Key())
}

func TestDayRange(t *testing.T) {
	r := DayRange(time.Date(2022, 1, 5, 17, 30, 0, 0, time.UTC))

	assert.Equal(t, day(2022, 1, 5), r.From())
	assert.Equal(t, day(2022, 1, 6), r.To())
}

func TestDaysRange_ToDayExclusive(t *testing.T) {
	from := day(2022, 1, 1)
	to := time.Date(2022, 1, 12, 15, 0, 0, 0, time.UTC)

	r := DaysRange(&from, &to)
	assert.Equal(t, day(2022, 1, 12), r.To())
	assert.False(t, r.Contains(day(2022, 1, 12)))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2022-01-31")
	require.NoError(t, err)
	assert.Equal(t, day(2022, 1, 31), d)

	_, err = ParseDay("31-01-2022")
	assert.Error(t, err)
}

func TestCanonicalSymbol(t *testing.T) {
	assert.Equal(t, "BTC", CanonicalSymbol(" btc "))
	assert.Equal(t, "ETH", CanonicalSymbol("Eth"))
}
