package hours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestDays(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected []time.Time
	}{
		{
			name:     "single day",
			start:    date(2017, 1, 8, 0, 0),
			end:      date(2017, 1, 8, 23, 0),
			expected: []time.Time{date(2017, 1, 8, 0, 0)},
		},
		{
			name:  "crossing midnight",
			start: date(2017, 1, 8, 22, 0),
			end:   date(2017, 1, 9, 1, 0),
			expected: []time.Time{
				date(2017, 1, 8, 0, 0),
				date(2017, 1, 9, 0, 0),
			},
		},
		{
			name:  "crossing year",
			start: date(2016, 12, 31, 12, 0),
			end:   date(2017, 1, 2, 0, 0),
			expected: []time.Time{
				date(2016, 12, 31, 0, 0),
				date(2017, 1, 1, 0, 0),
				date(2017, 1, 2, 0, 0),
			},
		},
		{
			name:     "end before start",
			start:    date(2017, 1, 9, 0, 0),
			end:      date(2017, 1, 8, 0, 0),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Days(tt.start, tt.end))
		})
	}
}

func TestDaysNormalizesToUTC(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	days := Days(time.Date(2017, 1, 9, 0, 30, 0, 0, cet), time.Date(2017, 1, 9, 0, 45, 0, 0, cet))
	assert.Equal(t, []time.Time{date(2017, 1, 8, 0, 0)}, days)
}

func TestLatest(t *testing.T) {
	now := date(2017, 1, 8, 12, 0)
	start, end := Latest(now)
	assert.Equal(t, date(2017, 1, 7, 12, 0), start)
	assert.Equal(t, now, end)
}

func TestPortalDay(t *testing.T) {
	assert.Equal(t, "08.01.2017 00:00|UTC|DAY", PortalDay(date(2017, 1, 8, 15, 0)))
}

func TestParseBoundary(t *testing.T) {
	ts, err := ParseBoundary(" 08.01.2017 13:15 ")
	require.NoError(t, err)
	assert.Equal(t, date(2017, 1, 8, 13, 15), ts)

	_, err = ParseBoundary("2017-01-08 13:15")
	assert.Error(t, err)
}

func TestParseEndBoundary(t *testing.T) {
	start := date(2017, 1, 8, 23, 45)
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{name: "full boundary", input: "09.01.2017 00:00", expected: date(2017, 1, 9, 0, 0)},
		{name: "clock only", input: "23:59", expected: date(2017, 1, 8, 23, 59)},
		{name: "midnight rolls over", input: "00:00", expected: date(2017, 1, 9, 0, 0)},
		{name: "24:00", input: "24:00", expected: date(2017, 1, 9, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, err := ParseEndBoundary(tt.input, start)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, end)
		})
	}

	_, err := ParseEndBoundary("later", start)
	assert.Error(t, err)
}

func TestSplitInterval(t *testing.T) {
	s, e, err := SplitInterval("08.01.2017 00:00 - 08.01.2017 00:15", " - ")
	require.NoError(t, err)
	assert.Equal(t, "08.01.2017 00:00", s)
	assert.Equal(t, "08.01.2017 00:15", e)

	_, _, err = SplitInterval("08.01.2017 00:00", " - ")
	assert.Error(t, err)
}

func TestWithin(t *testing.T) {
	start, end := date(2017, 1, 8, 0, 0), date(2017, 1, 8, 23, 0)
	assert.True(t, Within(start, start, end))
	assert.True(t, Within(end, start, end))
	assert.False(t, Within(end.Add(time.Minute), start, end))
}
