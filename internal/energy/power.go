package energy

import "math"

const (
	// KJPerKcal converts kilojoules to kilocalories
	KJPerKcal = 4.186
	// MinEfficiency keeps the conversion finite for zero or negative efficiency
	MinEfficiency = 1e-6
	// DefaultEfficiency is the gross efficiency used when a zone has none
	DefaultEfficiency = 0.207
)

// KcalFromPower converts average power held for a duration into metabolic
// energy. Mechanical work (kJ) is divided by gross efficiency:
// kcal = (W * s / 1000) / (4.186 * eff)
// Efficiency is floored at MinEfficiency. Negative watts are not guarded.
func KcalFromPower(avgWatts float64, durationSec int, efficiency float64) int {
	workKJ := avgWatts * float64(durationSec) / 1000.0
	kcal := workKJ / (KJPerKcal * math.Max(efficiency, MinEfficiency))
	return int(math.Round(kcal))
}
