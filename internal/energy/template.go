package energy

import (
	"fmt"
	"math"
)

// PALLevel is one of the selectable physical activity levels
type PALLevel struct {
	Value float64
	Label string
}

// PALLevels lists the accepted activity multipliers, lowest first
var PALLevels = []PALLevel{
	{1.3, "Rest (almost nothing)"},
	{1.35, "Very sedentary"},
	{1.4, "Minimally active (some walking)"},
	{1.45, "Calm with small activities"},
	{1.5, "Lightly active"},
	{1.6, "Moderately active"},
	{1.7, "Very active"},
}

// DefaultPAL is the activity level assigned to new profiles
const DefaultPAL = 1.4

// PALIndex returns the position of v in PALLevels
func PALIndex(v float64) (int, bool) {
	for i, l := range PALLevels {
		if math.Abs(l.Value-v) < 1e-9 {
			return i, true
		}
	}
	return -1, false
}

// ValidPAL reports whether v is one of PALLevels
func ValidPAL(v float64) bool {
	_, ok := PALIndex(v)
	return ok
}

// NextPAL cycles to the following level, wrapping around. Unknown values
// restart from DefaultPAL.
func NextPAL(v float64) float64 {
	i, ok := PALIndex(v)
	if !ok {
		return DefaultPAL
	}
	return PALLevels[(i+1)%len(PALLevels)].Value
}

// PALLabel describes v, e.g. "1.4 - Minimally active (some walking)"
func PALLabel(v float64) string {
	if i, ok := PALIndex(v); ok {
		return fmt.Sprintf("%g - %s", v, PALLevels[i].Label)
	}
	return fmt.Sprintf("%g", v)
}

func zone(name string, minW, maxW, meanW float64) Zone {
	return Zone{
		Name:  name,
		MinW:  Float(minW),
		MaxW:  Float(maxW),
		MeanW: Float(meanW),
		Eff:   Float(DefaultEfficiency),
	}
}

// DefaultZones returns the nine-zone template given to new profiles
func DefaultZones() []Zone {
	return []Zone{
		zone("Full recovery", 0, 120, 60),
		zone("Active recovery", 120, 180, 100),
		zone("RE Génération", 180, 220, 200),
		zone("FAT MAX", 250, 285, 267.5),
		zone("Aerobic capacity", 285, 310, 297.5),
		zone("Threshold zone", 310, 350, 330),
		zone("VO2 Max zone", 350, 440, 395),
		zone("Anaerobic capacity", 440, 550, 495),
		zone("CP/NP Neuromuscular", 550, 1400, 975),
	}
}

// NewProfile returns a profile with default attributes and zones
func NewProfile(name string) Profile {
	return Profile{
		Name:     name,
		Sex:      SexMale,
		HeightCm: 170,
		WeightKg: 60,
		PAL:      DefaultPAL,
		Formula:  FormulaTenHaaf,
		Zones:    EnsureFullRecovery(DefaultZones()),
	}
}
