package energy

// ZoneKcal is one zone's contribution to a day's training energy
type ZoneKcal struct {
	Name       string
	Minutes    float64
	Watts      float64
	Efficiency float64
	Kcal       int
}

// RepresentativePower returns mean_w when set and non-zero, otherwise the
// midpoint of min_w and max_w when both are set
func (z Zone) RepresentativePower() (float64, bool) {
	if z.MeanW != nil && *z.MeanW != 0 {
		return *z.MeanW, true
	}
	if z.MinW != nil && z.MaxW != nil {
		return (*z.MinW + *z.MaxW) / 2.0, true
	}
	return 0, false
}

// Efficiency returns the zone's efficiency, or def when unset or zero
func (z Zone) Efficiency(def float64) float64 {
	if z.Eff != nil && *z.Eff != 0 {
		return *z.Eff
	}
	return def
}

// ZoneBreakdown converts minutes spent in each zone to kcal, in zone order.
// Zones without a name, without positive minutes, or without a derivable
// power contribute nothing and are left out.
func ZoneBreakdown(zones []Zone, minutes map[string]float64, defaultEff float64) []ZoneKcal {
	var out []ZoneKcal
	for _, z := range zones {
		if z.Name == "" {
			continue
		}
		mins := minutes[z.Name]
		if mins <= 0 {
			continue
		}
		watts, ok := z.RepresentativePower()
		if !ok {
			continue
		}
		eff := z.Efficiency(defaultEff)
		out = append(out, ZoneKcal{
			Name:       z.Name,
			Minutes:    mins,
			Watts:      watts,
			Efficiency: eff,
			Kcal:       KcalFromPower(watts, int(mins*60), eff),
		})
	}
	return out
}

// TotalTrainingKcal sums the training energy of every zone for a day
func TotalTrainingKcal(zones []Zone, minutes map[string]float64, defaultEff float64) int {
	total := 0
	for _, zk := range ZoneBreakdown(zones, minutes, defaultEff) {
		total += zk.Kcal
	}
	return total
}

// MinutesFloat widens whole-minute durations for aggregation
func MinutesFloat(m map[string]int) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = float64(v)
	}
	return out
}
