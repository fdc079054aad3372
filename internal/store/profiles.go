package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cyclist-energy/internal/energy"
)

// ListProfileNames returns all profile names in alphabetical order
func (db *DB) ListProfileNames() ([]string, error) {
	rows, err := db.Query(`SELECT name FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ProfileExists reports whether a profile with the given name is stored
func (db *DB) ProfileExists(name string) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM profiles WHERE name = ?)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking profile existence: %w", err)
	}
	return exists, nil
}

// GetProfile loads a profile and its zones. Zones are normalized on load so
// callers always see a Full recovery zone ahead of Active recovery.
func (db *DB) GetProfile(name string) (energy.Profile, error) {
	var (
		p         energy.Profile
		sex       string
		birth     sql.NullString
		bmrManual sql.NullFloat64
		formula   string
	)
	err := db.QueryRow(`
		SELECT name, sex, birth, height_cm, weight_kg, bmr_manual, pal, pin_hash, formula
		FROM profiles
		WHERE name = ?
	`, name).Scan(&p.Name, &sex, &birth, &p.HeightCm, &p.WeightKg, &bmrManual, &p.PAL, &p.PINHash, &formula)
	if errors.Is(err, sql.ErrNoRows) {
		return energy.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return energy.Profile{}, err
	}

	p.Sex = energy.Sex(sex)
	p.BMRManual = floatPtr(bmrManual)
	p.Formula = energy.Formula(formula)
	if birth.Valid && birth.String != "" {
		t, err := time.Parse(energy.DateLayout, birth.String)
		if err != nil {
			return energy.Profile{}, fmt.Errorf("parsing birth date %q: %w", birth.String, err)
		}
		p.Birth = t
	}

	zones, err := db.getZones(name)
	if err != nil {
		return energy.Profile{}, fmt.Errorf("loading zones: %w", err)
	}
	p.Zones = energy.EnsureFullRecovery(zones)

	return p, nil
}

func (db *DB) getZones(profile string) ([]energy.Zone, error) {
	rows, err := db.Query(`
		SELECT name, min_w, max_w, mean_w, eff
		FROM zones
		WHERE profile_name = ?
		ORDER BY position
	`, profile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []energy.Zone
	for rows.Next() {
		var (
			z                       energy.Zone
			minW, maxW, meanW, eff sql.NullFloat64
		)
		if err := rows.Scan(&z.Name, &minW, &maxW, &meanW, &eff); err != nil {
			return nil, err
		}
		z.MinW = floatPtr(minW)
		z.MaxW = floatPtr(maxW)
		z.MeanW = floatPtr(meanW)
		z.Eff = floatPtr(eff)
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// SaveProfile inserts or replaces a profile. Zones are normalized and
// replaced wholesale. The stored snapshot is returned.
func (db *DB) SaveProfile(p energy.Profile) (energy.Profile, error) {
	if p.Name == "" {
		return energy.Profile{}, errors.New("profile name is required")
	}

	saved := p.Clone()
	saved.Zones = energy.EnsureFullRecovery(p.Zones)
	if saved.Formula == "" {
		saved.Formula = energy.FormulaTenHaaf
	}

	var birth sql.NullString
	if !saved.Birth.IsZero() {
		birth = sql.NullString{String: energy.DayKey(saved.Birth), Valid: true}
	}

	tx, err := db.Begin()
	if err != nil {
		return energy.Profile{}, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO profiles (name, sex, birth, height_cm, weight_kg, bmr_manual, pal, pin_hash, formula, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			sex = excluded.sex,
			birth = excluded.birth,
			height_cm = excluded.height_cm,
			weight_kg = excluded.weight_kg,
			bmr_manual = excluded.bmr_manual,
			pal = excluded.pal,
			pin_hash = excluded.pin_hash,
			formula = excluded.formula,
			updated_at = CURRENT_TIMESTAMP
	`, saved.Name, string(saved.Sex), birth, saved.HeightCm, saved.WeightKg,
		nullFloat(saved.BMRManual), saved.PAL, saved.PINHash, string(saved.Formula))
	if err != nil {
		return energy.Profile{}, fmt.Errorf("saving profile: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM zones WHERE profile_name = ?`, saved.Name); err != nil {
		return energy.Profile{}, fmt.Errorf("clearing zones: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO zones (profile_name, position, name, min_w, max_w, mean_w, eff)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return energy.Profile{}, err
	}
	defer stmt.Close()

	for i, z := range saved.Zones {
		_, err := stmt.Exec(saved.Name, i, z.Name,
			nullFloat(z.MinW), nullFloat(z.MaxW), nullFloat(z.MeanW), nullFloat(z.Eff))
		if err != nil {
			return energy.Profile{}, fmt.Errorf("saving zone %q: %w", z.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return energy.Profile{}, err
	}
	return saved, nil
}

// DeleteProfile removes a profile, its zones and all of its diary entries.
// Entries left behind by a profile that is already gone are removed too;
// ErrProfileNotFound means there was nothing to delete.
func (db *DB) DeleteProfile(name string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Children first so remote libSQL without foreign keys behaves the same
	var removed int64
	for _, q := range []string{
		`DELETE FROM diary_durations WHERE entry_id IN (SELECT id FROM diary_entries WHERE profile_name = ?)`,
		`DELETE FROM diary_overrides WHERE entry_id IN (SELECT id FROM diary_entries WHERE profile_name = ?)`,
		`DELETE FROM diary_entries WHERE profile_name = ?`,
		`DELETE FROM zones WHERE profile_name = ?`,
		`DELETE FROM profiles WHERE name = ?`,
	} {
		result, err := tx.Exec(q, name)
		if err != nil {
			return fmt.Errorf("deleting profile data: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		removed += rows
	}
	if removed == 0 {
		return ErrProfileNotFound
	}

	return tx.Commit()
}
