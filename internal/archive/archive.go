// Package archive reads and writes the JSON documents profiles and diary
// entries are exchanged in: profiles.json maps a profile name to its record,
// diary.json maps a profile name to its entries keyed by YYYY-MM-DD.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cyclist-energy/internal/auth"
	"cyclist-energy/internal/energy"
)

const (
	ProfilesFile = "profiles.json"
	DiaryFile    = "diary.json"
)

// ProfileDoc is a profile as stored in profiles.json
type ProfileDoc struct {
	Name      string        `json:"name"`
	Sex       string        `json:"sex"`
	Birth     *string       `json:"birth"` // ISO date or null
	HeightCm  float64       `json:"height_cm"`
	WeightKg  float64       `json:"weight_kg"`
	BMRManual *float64      `json:"bmr_manual"`
	PAL       float64       `json:"pal"`
	PIN       string        `json:"pin"` // bcrypt hash; plaintext is accepted on import
	Formula   string        `json:"formula,omitempty"`
	Zones     []energy.Zone `json:"zones"`
}

// Profiles is the profiles.json document
type Profiles map[string]ProfileDoc

// Diary is the diary.json document: profile -> date -> entry
type Diary map[string]map[string]energy.DiaryEntry

// LoadProfiles reads profiles.json. A missing, unreadable or malformed
// file yields an empty document.
func LoadProfiles(path string) Profiles {
	doc := Profiles{}
	if !loadJSON(path, &doc) {
		return Profiles{}
	}
	return doc
}

// LoadDiary reads diary.json. A missing, unreadable or malformed file
// yields an empty document. Entry dates are filled in from the keys.
func LoadDiary(path string) Diary {
	doc := Diary{}
	if !loadJSON(path, &doc) {
		return Diary{}
	}
	for _, days := range doc {
		for date, e := range days {
			e.Date = date
			days[date] = e
		}
	}
	return doc
}

func loadJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	if err != nil {
		log.Printf("archive: reading %s: %v", path, err)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("archive: ignoring malformed %s: %v", path, err)
		return false
	}
	return true
}

// SaveProfiles writes profiles.json atomically
func SaveProfiles(path string, doc Profiles) error {
	return writeJSON(path, doc)
}

// SaveDiary writes diary.json atomically
func SaveDiary(path string, doc Diary) error {
	return writeJSON(path, doc)
}

// writeJSON encodes v with two-space indentation and non-ASCII text kept
// as is, then swaps it into place with a rename
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ToDoc converts a profile to its document form
func ToDoc(p energy.Profile) ProfileDoc {
	doc := ProfileDoc{
		Name:      p.Name,
		Sex:       string(p.Sex),
		HeightCm:  p.HeightCm,
		WeightKg:  p.WeightKg,
		BMRManual: p.BMRManual,
		PAL:       p.PAL,
		PIN:       p.PINHash,
		Formula:   string(p.Formula),
		Zones:     energy.CloneZones(p.Zones),
	}
	if !p.Birth.IsZero() {
		b := energy.DayKey(p.Birth)
		doc.Birth = &b
	}
	if doc.Zones == nil {
		doc.Zones = []energy.Zone{}
	}
	return doc
}

// FromDoc converts a document record to a profile. The map key wins over
// the record's own name. Plaintext PINs are hashed and a PAL that is not
// one of the known levels becomes DefaultPAL.
func FromDoc(name string, doc ProfileDoc) (energy.Profile, error) {
	p := energy.Profile{
		Name:      name,
		Sex:       energy.SexMale,
		HeightCm:  doc.HeightCm,
		WeightKg:  doc.WeightKg,
		BMRManual: doc.BMRManual,
		PAL:       doc.PAL,
		Zones:     energy.EnsureFullRecovery(doc.Zones),
	}
	if p.Name == "" {
		p.Name = doc.Name
	}
	if !energy.Sex(doc.Sex).IsMale() && strings.TrimSpace(doc.Sex) != "" {
		p.Sex = energy.SexFemale
	}
	if !energy.ValidPAL(p.PAL) {
		if p.PAL > 0 {
			log.Printf("archive: profile %q has PAL %g outside the known levels, using %g", name, p.PAL, energy.DefaultPAL)
		}
		p.PAL = energy.DefaultPAL
	}

	seen := make(map[string]bool, len(doc.Zones))
	for _, z := range doc.Zones {
		if seen[z.Name] {
			return energy.Profile{}, fmt.Errorf("duplicate zone %q", z.Name)
		}
		seen[z.Name] = true
	}

	f, err := energy.ParseFormula(doc.Formula)
	if err != nil {
		return energy.Profile{}, err
	}
	p.Formula = f

	if doc.Birth != nil && *doc.Birth != "" {
		birth, err := parseBirth(*doc.Birth)
		if err != nil {
			return energy.Profile{}, err
		}
		p.Birth = birth
	}

	switch pin := strings.TrimSpace(doc.PIN); {
	case pin == "":
	case auth.IsHashed(pin):
		p.PINHash = pin
	default:
		hash, err := auth.HashPIN(pin)
		if err != nil {
			return energy.Profile{}, fmt.Errorf("profile %q: %w", name, err)
		}
		p.PINHash = hash
	}

	return p, nil
}

// parseBirth accepts a plain date or a timestamp starting with one
func parseBirth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(energy.DateLayout) {
		s = s[:len(energy.DateLayout)]
	}
	t, err := time.Parse(energy.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birth date %q", s)
	}
	return t, nil
}
