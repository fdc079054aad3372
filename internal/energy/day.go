package energy

import (
	"math"
	"time"
)

// DayInput is what the user enters for one day
type DayInput struct {
	PAL           float64            // 0 uses the profile's PAL
	Minutes       map[string]int     // zone name -> minutes
	WattOverrides map[string]float64 // zone name -> mean power for this day only
}

// BMRSource describes where the day's BMR came from
type BMRSource string

const (
	BMRManual  BMRSource = "manual"
	BMRFormula BMRSource = "formula"
)

// DayResult is the energy estimate for one day
type DayResult struct {
	BMR       float64
	Source    BMRSource
	Formula   Formula
	Age       int
	PAL       float64
	Base      int
	Training  int
	TDEE      int
	Zones     []Zone // normalized zones with overrides applied
	Breakdown []ZoneKcal
	Minutes   map[string]int
	Overrides map[string]float64
}

// ResolveBMR returns the manual BMR when set and positive, otherwise the
// profile's formula evaluated at its age on today
func ResolveBMR(p Profile, today time.Time) (float64, BMRSource) {
	if p.BMRManual != nil && *p.BMRManual > 0 {
		return *p.BMRManual, BMRManual
	}
	age := ProfileAge(p, today)
	return EstimateRMR(p.Formula, p.Sex, p.WeightKg, p.HeightCm, age), BMRFormula
}

// ZonesForDay returns the profile's normalized zones with the day's mean
// power overrides applied. Only overrides above zero are used and the
// profile itself is left untouched.
func ZonesForDay(p Profile, overrides map[string]float64) []Zone {
	zones := EnsureFullRecovery(p.Zones)
	for i := range zones {
		if w, ok := overrides[zones[i].Name]; ok && w > 0 {
			zones[i].MeanW = Float(w)
		}
	}
	return zones
}

// ComputeDay estimates BMR, baseline, training energy and TDEE for a day
func ComputeDay(p Profile, in DayInput, today time.Time, defaultEff float64) DayResult {
	pal := in.PAL
	if pal <= 0 {
		pal = p.PAL
	}

	bmr, src := ResolveBMR(p, today)

	overrides := make(map[string]float64)
	for name, w := range in.WattOverrides {
		if w > 0 {
			overrides[name] = w
		}
	}
	minutes := make(map[string]int)
	for name, m := range in.Minutes {
		if m >= 0 {
			minutes[name] = m
		}
	}

	zones := ZonesForDay(p, overrides)
	breakdown := ZoneBreakdown(zones, MinutesFloat(minutes), defaultEff)
	training := 0
	for _, zk := range breakdown {
		training += zk.Kcal
	}
	base := int(math.Round(bmr * pal))

	return DayResult{
		BMR:       bmr,
		Source:    src,
		Formula:   p.Formula,
		Age:       ProfileAge(p, today),
		PAL:       pal,
		Base:      base,
		Training:  training,
		TDEE:      base + training,
		Zones:     zones,
		Breakdown: breakdown,
		Minutes:   minutes,
		Overrides: overrides,
	}
}

// Entry converts the result into the diary record for date
func (r DayResult) Entry(date time.Time) DiaryEntry {
	return DiaryEntry{
		Date:           DayKey(date),
		DurationsMin:   r.Minutes,
		PAL:            r.PAL,
		BMR:            int(math.Round(r.BMR)),
		Base:           r.Base,
		TrainingKcal:   r.Training,
		TDEE:           r.TDEE,
		ZoneWOverrides: r.Overrides,
	}
}
