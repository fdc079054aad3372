package energy

import (
	"slices"
	"strings"
)

// Role identifies a zone by what it is used for rather than by position
type Role int

const (
	RoleActiveRecovery Role = iota // name contains "active" and "recovery"
	RoleFullRecovery               // name starts with "full" and contains "recovery"
)

// FullRecoveryName is the name given to a generated Full recovery zone
const FullRecoveryName = "Full recovery"

// Matches reports whether a zone name plays the role (case-insensitive)
func (r Role) Matches(name string) bool {
	n := strings.ToLower(name)
	switch r {
	case RoleActiveRecovery:
		return strings.Contains(n, "active") && strings.Contains(n, "recovery")
	case RoleFullRecovery:
		return strings.HasPrefix(n, "full") && strings.Contains(n, "recovery")
	}
	return false
}

// FindRole returns the index of the first zone matching the role
func FindRole(zones []Zone, r Role) (int, bool) {
	for i, z := range zones {
		if r.Matches(z.Name) {
			return i, true
		}
	}
	return -1, false
}

// NewFullRecoveryZone builds the zone spanning 0 to the Active recovery floor
func NewFullRecoveryZone(activeMin float64) Zone {
	return Zone{
		Name:  FullRecoveryName,
		MinW:  Float(0),
		MaxW:  Float(activeMin),
		MeanW: Float(60.0),
		Eff:   Float(DefaultEfficiency),
	}
}

// EnsureFullRecovery returns a copy of zones in which a Full recovery zone
// spans 0 to the Active recovery zone's min_w and precedes it.
//
// Without an Active recovery zone the copy is returned unchanged. An existing
// Full recovery zone always has its bounds overwritten, but is only moved
// when it currently sits after the Active recovery zone.
func EnsureFullRecovery(zones []Zone) []Zone {
	out := CloneZones(zones)

	actIdx, ok := FindRole(out, RoleActiveRecovery)
	if !ok {
		return out
	}
	activeMin := Value(out[actIdx].MinW)

	fullIdx, ok := FindRole(out, RoleFullRecovery)
	if !ok {
		return slices.Insert(out, actIdx, NewFullRecoveryZone(activeMin))
	}

	out[fullIdx].MinW = Float(0)
	out[fullIdx].MaxW = Float(activeMin)
	if fullIdx > actIdx {
		full := out[fullIdx]
		out = slices.Delete(out, fullIdx, fullIdx+1)
		out = slices.Insert(out, actIdx, full)
	}
	return out
}

// ZoneFor returns the index of the zone a power sample belongs to: the zone
// with the highest min_w not above watts. Gaps between bands fall into the
// lower zone and the top zone is open-ended.
func ZoneFor(zones []Zone, watts float64) (int, bool) {
	best := -1
	for i, z := range zones {
		if z.Name == "" || z.MinW == nil {
			continue
		}
		if *z.MinW > watts {
			continue
		}
		if best < 0 || *z.MinW > *zones[best].MinW {
			best = i
		}
	}
	return best, best >= 0
}
