package tui

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"cyclist-energy/internal/config"
	"cyclist-energy/internal/energy"
)

// Units formats energy and dates according to the display preferences
type Units struct {
	cfg config.DisplayConfig
	now func() time.Time
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg, now: time.Now}
}

// Label returns the energy unit shown to the user
func (u Units) Label() string {
	if u.cfg.EnergyUnit == "kJ" {
		return "kJ"
	}
	return "kcal"
}

// Value converts kcal to the preferred unit
func (u Units) Value(kcal int) int {
	if u.cfg.EnergyUnit == "kJ" {
		return int(math.Round(float64(kcal) * energy.KJPerKcal))
	}
	return kcal
}

// FormatEnergy renders kcal in the preferred unit with thousands separators
func (u Units) FormatEnergy(kcal int) string {
	return fmt.Sprintf("%s %s", humanize.Comma(int64(u.Value(kcal))), u.Label())
}

// FormatDay renders a diary date with a relative hint, e.g. "Sat 15 Jun 2024 (3 days ago)"
func (u Units) FormatDay(t time.Time) string {
	today := u.now()
	label := t.Format("Mon 02 Jan 2006")
	switch days := daysBetween(t, today); {
	case days == 0:
		return label + " (today)"
	case days == 1:
		return label + " (yesterday)"
	case days > 1 && days < 60:
		return fmt.Sprintf("%s (%s)", label, humanize.RelTime(t, dayStart(today), "ago", "from now"))
	}
	return label
}

// FormatKey parses a YYYY-MM-DD key and formats it like FormatDay
func (u Units) FormatKey(key string) string {
	t, err := time.Parse(energy.DateLayout, key)
	if err != nil {
		return key
	}
	return u.FormatDay(t)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(dayStart(to).Sub(dayStart(from)).Hours() / 24)
}

// formatWatts renders an optional power value
func formatWatts(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%g W", *p)
}

// formatMinutes renders a duration in minutes as 1h05 / 45 min
func formatMinutes(mins int) string {
	if mins >= 60 {
		return fmt.Sprintf("%dh%02d", mins/60, mins%60)
	}
	return fmt.Sprintf("%d min", mins)
}
