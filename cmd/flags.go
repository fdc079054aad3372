package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cyclist-energy/internal/energy"
)

// splitZoneFlag splits "Zone name=value" at the last '='
func splitZoneFlag(flag string) (string, string, error) {
	i := strings.LastIndex(flag, "=")
	if i <= 0 || i == len(flag)-1 {
		return "", "", fmt.Errorf("expected ZONE=VALUE, got %q", flag)
	}
	return strings.TrimSpace(flag[:i]), strings.TrimSpace(flag[i+1:]), nil
}

// parseZoneMinutes parses repeated --min flags such as "Endurance=45"
func parseZoneMinutes(flags []string) (map[string]int, error) {
	out := make(map[string]int, len(flags))
	for _, f := range flags {
		name, value, err := splitZoneFlag(f)
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("minutes for %q must be a whole number, got %q", name, value)
		}
		out[name] += v
	}
	return out, nil
}

// parseZoneWatts parses repeated --watts flags such as "Tempo=235.5"
func parseZoneWatts(flags []string) (map[string]float64, error) {
	out := make(map[string]float64, len(flags))
	for _, f := range flags {
		name, value, err := splitZoneFlag(f)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("power for %q must be a positive number of watts, got %q", name, value)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("power for %q given more than once", name)
		}
		out[name] = v
	}
	return out, nil
}

// resolveZoneNames maps user-typed zone names onto the profile's zone
// names, ignoring case. Unknown names are an error. Names that fold onto
// the same zone are combined with merge.
func resolveZoneNames[V any](zones []energy.Zone, in map[string]V, merge func(zone string, a, b V) (V, error)) (map[string]V, error) {
	out := make(map[string]V, len(in))
	for name, v := range in {
		found := ""
		for _, z := range zones {
			if strings.EqualFold(z.Name, name) {
				found = z.Name
				break
			}
		}
		if found == "" {
			return nil, fmt.Errorf("profile has no zone named %q", name)
		}
		if prev, ok := out[found]; ok {
			var err error
			if v, err = merge(found, prev, v); err != nil {
				return nil, err
			}
		}
		out[found] = v
	}
	return out, nil
}

func sumMinutes(_ string, a, b int) (int, error) {
	return a + b, nil
}

func singlePower(zone string, _, _ float64) (float64, error) {
	return 0, fmt.Errorf("power for %q given more than once", zone)
}

// parseDay accepts YYYY-MM-DD, DD/MM/YY, "today" and "yesterday".
// An empty string is today.
func parseDay(s string, today time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	t, err := time.Parse(energy.DateLayout, s)
	if err != nil {
		t, err = time.Parse("02/01/06", s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse day %q, use YYYY-MM-DD", s)
	}
	return t, nil
}

// parseOptionalFloat parses a flag where "" or "none" means unset
func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return &v, nil
}
