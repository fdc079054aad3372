package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyclist-energy/internal/energy"
)

func TestParseZoneMinutes(t *testing.T) {
	got, err := parseZoneMinutes([]string{"Endurance=45", "RE Génération = 30", "Endurance=15"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Endurance": 60, "RE Génération": 30}, got)

	for _, bad := range []string{"Endurance", "=30", "Endurance=", "Endurance=-5", "Endurance=1.5"} {
		_, err := parseZoneMinutes([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseZoneWatts(t *testing.T) {
	got, err := parseZoneWatts([]string{"Tempo=235,5", "Threshold=280"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Tempo": 235.5, "Threshold": 280}, got)

	_, err = parseZoneWatts([]string{"Tempo=0"})
	assert.Error(t, err)
	_, err = parseZoneWatts([]string{"Tempo=fast"})
	assert.Error(t, err)
	_, err = parseZoneWatts([]string{"Tempo=200", "Tempo=210"})
	assert.ErrorContains(t, err, "more than once")
}

func TestSplitZoneFlagUsesLastEquals(t *testing.T) {
	name, value, err := splitZoneFlag("A=B=12")
	require.NoError(t, err)
	assert.Equal(t, "A=B", name)
	assert.Equal(t, "12", value)
}

func TestResolveZoneNames(t *testing.T) {
	zones := energy.DefaultZones()

	got, err := resolveZoneNames(zones, map[string]int{"re génération": 20, "FAT MAX": 10}, sumMinutes)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"RE Génération": 20, "FAT MAX": 10}, got)

	_, err = resolveZoneNames(zones, map[string]float64{"Sprint to the sign": 900}, singlePower)
	assert.ErrorContains(t, err, "Sprint to the sign")
}

func TestResolveZoneNames_SpellingsOfOneZone(t *testing.T) {
	zones := energy.DefaultZones()

	minutes, err := parseZoneMinutes([]string{"fat max=20", "FAT MAX=30", "Fat Max=5"})
	require.NoError(t, err)
	got, err := resolveZoneNames(zones, minutes, sumMinutes)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"FAT MAX": 55}, got)

	watts, err := parseZoneWatts([]string{"fat max=260", "FAT MAX=270"})
	require.NoError(t, err)
	_, err = resolveZoneNames(zones, watts, singlePower)
	assert.ErrorContains(t, err, `power for "FAT MAX" given more than once`)
}

func TestParseDay(t *testing.T) {
	today := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"", "2024-06-20"},
		{"today", "2024-06-20"},
		{"Yesterday", "2024-06-19"},
		{"2024-02-29", "2024-02-29"},
		{"01/03/24", "2024-03-01"},
	}
	for _, tt := range tests {
		got, err := parseDay(tt.in, today)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, energy.DayKey(got), tt.in)
	}

	_, err := parseDay("2024-13-01", today)
	assert.Error(t, err)
}

func TestParseOptionalFloat(t *testing.T) {
	v, err := parseOptionalFloat("none")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = parseOptionalFloat(" 1650,5 ")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 1650.5, *v)

	_, err = parseOptionalFloat("lots")
	assert.Error(t, err)
}

func TestPadRightCountsRunes(t *testing.T) {
	assert.Equal(t, "Génération  ", padRight("Génération", 12))
	assert.Equal(t, "Endurance…", truncate("Endurance long", 10))
	assert.Equal(t, "short", truncate("short", 10))
}
