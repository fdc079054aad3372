package service

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"cyclist-energy/internal/auth"
	"cyclist-energy/internal/config"
	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/store"
)

// ErrProfileExists is returned when creating a profile under a taken name
var ErrProfileExists = errors.New("profile already exists")

// ProfileService creates and edits rider profiles
type ProfileService struct {
	store   *store.DB
	pal     float64
	formula energy.Formula
}

// NewProfileService creates a profile service. cfg may be nil.
func NewProfileService(db *store.DB, cfg *config.Config) *ProfileService {
	s := &ProfileService{store: db, pal: energy.DefaultPAL, formula: energy.FormulaTenHaaf}
	if cfg != nil {
		if energy.ValidPAL(cfg.Energy.DefaultPAL) {
			s.pal = cfg.Energy.DefaultPAL
		}
		s.formula = cfg.Formula()
	}
	return s
}

// List returns all profile names
func (s *ProfileService) List() ([]string, error) {
	return s.store.ListProfileNames()
}

// Create stores a new profile with default attributes and zones
func (s *ProfileService) Create(name string) (energy.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return energy.Profile{}, errors.New("profile name is required")
	}

	exists, err := s.store.ProfileExists(name)
	if err != nil {
		return energy.Profile{}, err
	}
	if exists {
		return energy.Profile{}, fmt.Errorf("%w: %s", ErrProfileExists, name)
	}

	p := energy.NewProfile(name)
	p.PAL = s.pal
	p.Formula = s.formula

	saved, err := s.store.SaveProfile(p)
	if err != nil {
		return energy.Profile{}, err
	}
	log.Printf("profile: created %q", name)
	return saved, nil
}

// Update stores an edited profile. The PIN hash is taken from the stored
// record; use SetPIN to change it.
func (s *ProfileService) Update(p energy.Profile) (energy.Profile, error) {
	if !energy.ValidPAL(p.PAL) {
		return energy.Profile{}, ErrInvalidPAL
	}

	current, err := s.store.GetProfile(p.Name)
	if err != nil {
		return energy.Profile{}, err
	}
	p.PINHash = current.PINHash

	return s.store.SaveProfile(p)
}

// SetPIN changes a profile's PIN after checking the current one.
// An empty newPIN removes the protection.
func (s *ProfileService) SetPIN(name, currentPIN, newPIN string) (energy.Profile, error) {
	p, err := s.store.GetProfile(name)
	if err != nil {
		return energy.Profile{}, err
	}
	if !auth.CheckPIN(p.PINHash, currentPIN) {
		return energy.Profile{}, ErrPINMismatch
	}

	if newPIN == "" {
		p.PINHash = ""
	} else {
		hash, err := auth.HashPIN(newPIN)
		if err != nil {
			return energy.Profile{}, err
		}
		p.PINHash = hash
	}

	return s.store.SaveProfile(p)
}

// zoneFile is the TOML layout for zone templates:
//
//	[[zone]]
//	name = "Active recovery"
//	min_w = 120
//	max_w = 180
//	mean_w = 150
//	eff = 0.207
type zoneFile struct {
	Zones []zoneRecord `toml:"zone"`
}

type zoneRecord struct {
	Name  string   `toml:"name"`
	MinW  *float64 `toml:"min_w,omitempty"`
	MaxW  *float64 `toml:"max_w,omitempty"`
	MeanW *float64 `toml:"mean_w,omitempty"`
	Eff   *float64 `toml:"eff,omitempty"`
}

// ParseZonesTOML reads a zone template. Unknown keys are rejected so
// typos such as "mean_watts" don't silently drop values.
func ParseZonesTOML(r io.Reader) ([]energy.Zone, error) {
	var f zoneFile
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("parsing zone template: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in zone template: %s", strings.Join(keys, ", "))
	}

	if len(f.Zones) == 0 {
		return nil, errors.New("zone template has no [[zone]] entries")
	}

	zones := make([]energy.Zone, 0, len(f.Zones))
	seen := make(map[string]bool)
	for i, rec := range f.Zones {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			return nil, fmt.Errorf("zone %d has no name", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate zone %q", name)
		}
		seen[name] = true
		zones = append(zones, energy.Zone{
			Name:  name,
			MinW:  rec.MinW,
			MaxW:  rec.MaxW,
			MeanW: rec.MeanW,
			Eff:   rec.Eff,
		})
	}
	return zones, nil
}

// WriteZonesTOML writes zones in the template layout read by ParseZonesTOML
func WriteZonesTOML(w io.Writer, zones []energy.Zone) error {
	f := zoneFile{Zones: make([]zoneRecord, len(zones))}
	for i, z := range zones {
		f.Zones[i] = zoneRecord{Name: z.Name, MinW: z.MinW, MaxW: z.MaxW, MeanW: z.MeanW, Eff: z.Eff}
	}
	return toml.NewEncoder(w).Encode(f)
}

// ImportZonesTOML replaces a profile's zones with a TOML template
func (s *ProfileService) ImportZonesTOML(name string, r io.Reader) (energy.Profile, error) {
	zones, err := ParseZonesTOML(r)
	if err != nil {
		return energy.Profile{}, err
	}

	p, err := s.store.GetProfile(name)
	if err != nil {
		return energy.Profile{}, err
	}
	p.Zones = zones

	saved, err := s.store.SaveProfile(p)
	if err != nil {
		return energy.Profile{}, err
	}
	log.Printf("profile: imported %d zones into %q", len(zones), name)
	return saved, nil
}
