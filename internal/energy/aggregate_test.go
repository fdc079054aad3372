package energy

import (
	"testing"
	"time"
)

func TestTotalTrainingKcal_AllZero(t *testing.T) {
	zones := DefaultZones()
	minutes := make(map[string]float64)
	for _, z := range zones {
		minutes[z.Name] = 0
	}

	if got := TotalTrainingKcal(zones, minutes, DefaultEfficiency); got != 0 {
		t.Errorf("TotalTrainingKcal() = %d, want 0", got)
	}
	if got := TotalTrainingKcal(zones, nil, DefaultEfficiency); got != 0 {
		t.Errorf("TotalTrainingKcal(nil minutes) = %d, want 0", got)
	}
}

func TestTotalTrainingKcal(t *testing.T) {
	tests := []struct {
		name     string
		zones    []Zone
		minutes  map[string]float64
		defEff   float64
		expected int
	}{
		{
			name:     "mean power used",
			zones:    DefaultZones(),
			minutes:  map[string]float64{"Active recovery": 60},
			defEff:   DefaultEfficiency,
			// 100 W * 3600 s = 360 kJ / 0.866502 = 415.46
			expected: 415,
		},
		{
			name: "midpoint when mean is missing",
			zones: []Zone{
				{Name: "Tempo", MinW: Float(100), MaxW: Float(200), Eff: Float(0.207)},
			},
			minutes:  map[string]float64{"Tempo": 30},
			defEff:   DefaultEfficiency,
			// 150 W * 1800 s = 270 kJ / 0.866502 = 311.6
			expected: 312,
		},
		{
			name: "zero mean falls back to midpoint",
			zones: []Zone{
				{Name: "Tempo", MinW: Float(100), MaxW: Float(200), MeanW: Float(0)},
			},
			minutes:  map[string]float64{"Tempo": 30},
			defEff:   DefaultEfficiency,
			expected: 312,
		},
		{
			name: "default efficiency when zone has none",
			zones: []Zone{
				{Name: "Tempo", MinW: Float(100), MaxW: Float(200)},
			},
			minutes:  map[string]float64{"Tempo": 30},
			defEff:   0.25,
			// 270 / (4.186 * 0.25) = 258.0
			expected: 258,
		},
		{
			name: "zone without derivable power skipped",
			zones: []Zone{
				{Name: "Mystery", MinW: Float(100)},
				{Name: "Tempo", MeanW: Float(150), Eff: Float(0.207)},
			},
			minutes:  map[string]float64{"Mystery": 60, "Tempo": 30},
			defEff:   DefaultEfficiency,
			expected: 312,
		},
		{
			name: "unnamed zone skipped",
			zones: []Zone{
				{Name: "", MeanW: Float(300)},
			},
			minutes:  map[string]float64{"": 60},
			defEff:   DefaultEfficiency,
			expected: 0,
		},
		{
			name:     "negative and unknown minutes ignored",
			zones:    DefaultZones(),
			minutes:  map[string]float64{"Active recovery": -10, "Sprint": 30},
			defEff:   DefaultEfficiency,
			expected: 0,
		},
		{
			name:  "multiple zones summed per zone",
			zones: DefaultZones(),
			minutes: map[string]float64{
				"Active recovery": 60, // 415
				"FAT MAX":         20, // 267.5 W * 1200 s -> 370.46 -> 370
			},
			defEff:   DefaultEfficiency,
			expected: 785,
		},
		{
			name: "fractional minutes truncated to seconds",
			zones: []Zone{
				{Name: "Sprint", MeanW: Float(975), Eff: Float(0.207)},
			},
			minutes:  map[string]float64{"Sprint": 0.5},
			defEff:   DefaultEfficiency,
			// 975 W * 30 s = 29.25 kJ / 0.866502 = 33.76
			expected: 34,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalTrainingKcal(tt.zones, tt.minutes, tt.defEff)
			if got != tt.expected {
				t.Errorf("TotalTrainingKcal() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestZoneBreakdown_MatchesTotal(t *testing.T) {
	zones := DefaultZones()
	minutes := map[string]float64{
		"Full recovery":    15,
		"Active recovery":  45,
		"Threshold zone":   20,
		"VO2 Max zone":     8,
		"Aerobic capacity": 0,
	}

	breakdown := ZoneBreakdown(zones, minutes, DefaultEfficiency)
	if len(breakdown) != 4 {
		t.Fatalf("len(breakdown) = %d, want 4", len(breakdown))
	}

	sum := 0
	for _, zk := range breakdown {
		sum += zk.Kcal
	}
	if total := TotalTrainingKcal(zones, minutes, DefaultEfficiency); sum != total {
		t.Errorf("sum of breakdown = %d, total = %d", sum, total)
	}

	// Zone order is preserved
	if breakdown[0].Name != "Full recovery" || breakdown[3].Name != "VO2 Max zone" {
		t.Errorf("breakdown order = %q..%q", breakdown[0].Name, breakdown[3].Name)
	}
}

func TestComputeDay_ManualBMR(t *testing.T) {
	p := NewProfile("Test 1")
	p.BMRManual = Float(1500)
	p.PAL = 1.5

	in := DayInput{
		Minutes: map[string]int{"Active recovery": 60},
	}
	res := ComputeDay(p, in, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), DefaultEfficiency)

	if res.Source != BMRManual {
		t.Errorf("Source = %q, want %q", res.Source, BMRManual)
	}
	if res.Base != 2250 {
		t.Errorf("Base = %d, want 2250", res.Base)
	}
	if res.Training != 415 {
		t.Errorf("Training = %d, want 415", res.Training)
	}
	if res.TDEE != 2665 {
		t.Errorf("TDEE = %d, want 2665", res.TDEE)
	}
}

func TestComputeDay_FormulaAndOverrides(t *testing.T) {
	p := NewProfile("Test 2")
	p.Birth = time.Date(1994, 6, 15, 0, 0, 0, 0, time.UTC)
	p.WeightKg = 70
	p.HeightCm = 175
	p.BMRManual = Float(0) // zero is ignored

	in := DayInput{
		PAL:     1.4,
		Minutes: map[string]int{"Active recovery": 60, "FAT MAX": 0},
		WattOverrides: map[string]float64{
			"Active recovery": 200,
			"FAT MAX":         0,
		},
	}
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	res := ComputeDay(p, in, today, DefaultEfficiency)

	if res.Source != BMRFormula || res.BMR != 1840.5 {
		t.Errorf("BMR = %v (%s), want 1840.5 (formula)", res.BMR, res.Source)
	}
	if res.Age != 30 {
		t.Errorf("Age = %d, want 30", res.Age)
	}
	// 1840.5 * 1.4 = 2576.7
	if res.Base != 2577 {
		t.Errorf("Base = %d, want 2577", res.Base)
	}
	// 200 W override for an hour
	if res.Training != 831 {
		t.Errorf("Training = %d, want 831", res.Training)
	}
	if _, ok := res.Overrides["FAT MAX"]; ok {
		t.Error("zero override should be dropped")
	}

	// Profile zones are untouched by overrides
	idx, _ := FindRole(p.Zones, RoleActiveRecovery)
	if Value(p.Zones[idx].MeanW) != 100 {
		t.Errorf("profile mean_w = %v, want 100", Value(p.Zones[idx].MeanW))
	}

	entry := res.Entry(today)
	if entry.Date != "2024-06-15" {
		t.Errorf("Entry.Date = %q", entry.Date)
	}
	if entry.BMR != 1841 || entry.TDEE != 2577+831 {
		t.Errorf("Entry = {BMR %d, TDEE %d}, want {1841, %d}", entry.BMR, entry.TDEE, 2577+831)
	}
	if entry.DurationsMin["FAT MAX"] != 0 {
		t.Errorf("DurationsMin[FAT MAX] = %d", entry.DurationsMin["FAT MAX"])
	}
}

func TestComputeDay_DefaultsToProfilePAL(t *testing.T) {
	p := NewProfile("Test 3")
	p.BMRManual = Float(2000)
	p.PAL = 1.6

	res := ComputeDay(p, DayInput{}, time.Now(), DefaultEfficiency)
	if res.PAL != 1.6 || res.Base != 3200 {
		t.Errorf("PAL/Base = %v/%d, want 1.6/3200", res.PAL, res.Base)
	}
}

func TestPALLevels(t *testing.T) {
	if !ValidPAL(1.45) {
		t.Error("ValidPAL(1.45) = false")
	}
	if ValidPAL(1.55) {
		t.Error("ValidPAL(1.55) = true")
	}
	if got := NextPAL(1.7); got != 1.3 {
		t.Errorf("NextPAL(1.7) = %v, want 1.3", got)
	}
	if got := NextPAL(9); got != DefaultPAL {
		t.Errorf("NextPAL(9) = %v, want %v", got, DefaultPAL)
	}
}
