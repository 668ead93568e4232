package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	min, err := Parse("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, min)

	min, err = Parse("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, min)

	min, err = Parse("23:59")
	require.NoError(t, err)
	assert.Equal(t, 1439, min)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "9", "24:00", "12:60", "ab:cd", "12:00:00"} {
		_, err := Parse(raw)
		assert.Error(t, err, raw)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	assert.Equal(t, "09:05", Format(545))
	assert.Equal(t, "00:00", Format(0))
	assert.Equal(t, 545, MustParse(Format(545)))
}

func TestAddAndDiff(t *testing.T) {
	assert.Equal(t, "10:30", Add("10:00", 30))
	assert.Equal(t, "11:00", Add("10:45", 15))
	assert.Equal(t, 120, Diff("09:00", "11:00"))
	assert.Equal(t, -30, Diff("10:00", "09:30"))
}

func TestOverlaps(t *testing.T) {
	// [09:00,10:00) vs [10:00,11:00): touching, no overlap.
	assert.False(t, Overlaps(540, 600, 600, 660, 0))
	// Same pair with a 15 minute buffer now collides.
	assert.True(t, Overlaps(540, 600, 600, 660, 15))
	// Plain intersection.
	assert.True(t, Overlaps(540, 660, 600, 720, 0))
	// Disjoint even with pad.
	assert.False(t, Overlaps(540, 600, 700, 760, 10))
}

func TestOverlapMinutes(t *testing.T) {
	assert.Equal(t, 60, OverlapMinutes(540, 660, 600, 720))
	assert.Equal(t, 0, OverlapMinutes(540, 600, 600, 660))
	assert.Equal(t, 30, OverlapMinutes(600, 630, 540, 720))
}

func TestMonthWindow(t *testing.T) {
	from, to := MonthWindow("2026-02-14")
	assert.Equal(t, "2026-02-01", from)
	assert.Equal(t, "2026-02-28", to)

	from, to = MonthWindow("2024-02-10")
	assert.Equal(t, "2024-02-01", from)
	assert.Equal(t, "2024-02-29", to)
}

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "2026-09", PeriodKey("2026-09-01"))
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2026-09-01"))
	assert.False(t, ValidDate("2026-13-01"))
	assert.False(t, ValidDate("today"))
}
