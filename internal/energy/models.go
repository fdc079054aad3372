package energy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sex is the biological sex used by the RMR regressions ("M" or "F")
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// IsMale reports whether s matches "M" case-insensitively
func (s Sex) IsMale() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(SexMale))
}

// Zone is a power band used to bucket training time.
// Optional numbers are nil when the user left them blank.
type Zone struct {
	Name  string   `json:"name"`
	MinW  *float64 `json:"min_w"`
	MaxW  *float64 `json:"max_w"`
	MeanW *float64 `json:"mean_w"`
	Eff   *float64 `json:"eff"` // gross mechanical efficiency, nominally 0.183-0.226
}

// UnmarshalJSON accepts numbers, numeric strings, null and "" for every
// numeric field. Older profile files stored blank table cells as "".
func (z *Zone) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  json.RawMessage `json:"name"`
		MinW  json.RawMessage `json:"min_w"`
		MaxW  json.RawMessage `json:"max_w"`
		MeanW json.RawMessage `json:"mean_w"`
		Eff   json.RawMessage `json:"eff"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	name, err := lenientString(raw.Name)
	if err != nil {
		return fmt.Errorf("zone name: %w", err)
	}

	var out Zone
	out.Name = name
	fields := []struct {
		key string
		src json.RawMessage
		dst **float64
	}{
		{"min_w", raw.MinW, &out.MinW},
		{"max_w", raw.MaxW, &out.MaxW},
		{"mean_w", raw.MeanW, &out.MeanW},
		{"eff", raw.Eff, &out.Eff},
	}
	for _, f := range fields {
		v, err := lenientFloat(f.src)
		if err != nil {
			return fmt.Errorf("zone %q %s: %w", name, f.key, err)
		}
		*f.dst = v
	}

	*z = out
	return nil
}

func lenientString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func lenientFloat(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Value dereferences p, returning 0 for nil
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Clone returns a deep copy of the zone
func (z Zone) Clone() Zone {
	return Zone{
		Name:  z.Name,
		MinW:  clonePtr(z.MinW),
		MaxW:  clonePtr(z.MaxW),
		MeanW: clonePtr(z.MeanW),
		Eff:   clonePtr(z.Eff),
	}
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CloneZones deep-copies a zone sequence
func CloneZones(zones []Zone) []Zone {
	if zones == nil {
		return nil
	}
	out := make([]Zone, len(zones))
	for i, z := range zones {
		out[i] = z.Clone()
	}
	return out
}

// Profile is a cyclist's physical data, activity level and zone set
type Profile struct {
	Name      string
	Sex       Sex
	Birth     time.Time // date only; zero when unknown
	HeightCm  float64
	WeightKg  float64
	BMRManual *float64 // overrides the formula when set and > 0
	PAL       float64
	PINHash   string // bcrypt hash, empty when the profile is unprotected
	Formula   Formula
	Zones     []Zone
}

// HasPIN reports whether the profile is PIN protected
func (p Profile) HasPIN() bool {
	return p.PINHash != ""
}

// Clone returns a deep copy of the profile
func (p Profile) Clone() Profile {
	out := p
	out.BMRManual = clonePtr(p.BMRManual)
	out.Zones = CloneZones(p.Zones)
	return out
}

// DiaryEntry is one day of energy history for a profile.
// Entries are replaced wholesale; there is at most one per profile per date.
type DiaryEntry struct {
	Date           string             `json:"-"` // YYYY-MM-DD
	DurationsMin   map[string]int     `json:"durations_min"`
	PAL            float64            `json:"pal"`
	BMR            int                `json:"bmr"`
	Base           int                `json:"base"`
	TrainingKcal   int                `json:"training_kcal"`
	TDEE           int                `json:"tdee"`
	ZoneWOverrides map[string]float64 `json:"zone_w_overrides"`
}

// DateLayout is the ISO-8601 calendar date format used for diary keys
const DateLayout = "2006-01-02"

// DayKey formats t as a diary date key
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}
