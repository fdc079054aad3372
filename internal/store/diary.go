package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"cyclist-energy/internal/energy"
)

// SaveEntry stores a diary entry for a profile, replacing any entry that
// already exists for the same date. Returns the new entry ID.
func (db *DB) SaveEntry(profile string, e energy.DiaryEntry) (string, error) {
	if e.Date == "" {
		return "", errors.New("diary entry date is required")
	}

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if err := deleteEntryTx(tx, profile, e.Date); err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = tx.Exec(`
		INSERT INTO diary_entries (id, profile_name, date, pal, bmr, base, training_kcal, tdee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, profile, e.Date, e.PAL, e.BMR, e.Base, e.TrainingKcal, e.TDEE)
	if err != nil {
		return "", fmt.Errorf("inserting diary entry: %w", err)
	}

	for zone, mins := range e.DurationsMin {
		if _, err := tx.Exec(`
			INSERT INTO diary_durations (entry_id, zone_name, minutes) VALUES (?, ?, ?)
		`, id, zone, mins); err != nil {
			return "", fmt.Errorf("inserting duration for %q: %w", zone, err)
		}
	}
	for zone, w := range e.ZoneWOverrides {
		if _, err := tx.Exec(`
			INSERT INTO diary_overrides (entry_id, zone_name, mean_w) VALUES (?, ?, ?)
		`, id, zone, w); err != nil {
			return "", fmt.Errorf("inserting override for %q: %w", zone, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func deleteEntryTx(tx *sql.Tx, profile, date string) error {
	var id string
	err := tx.QueryRow(`
		SELECT id FROM diary_entries WHERE profile_name = ? AND date = ?
	`, profile, date).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, q := range []string{
		`DELETE FROM diary_durations WHERE entry_id = ?`,
		`DELETE FROM diary_overrides WHERE entry_id = ?`,
		`DELETE FROM diary_entries WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("replacing diary entry: %w", err)
		}
	}
	return nil
}

// DeleteEntry removes the entry for a profile and date
func (db *DB) DeleteEntry(profile, date string) error {
	if _, err := db.GetEntry(profile, date); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteEntryTx(tx, profile, date); err != nil {
		return err
	}
	return tx.Commit()
}

// GetEntry retrieves the entry for a profile and date
func (db *DB) GetEntry(profile, date string) (energy.DiaryEntry, error) {
	entries, err := db.listEntries(`WHERE e.profile_name = ? AND e.date = ?`, profile, date)
	if err != nil {
		return energy.DiaryEntry{}, err
	}
	if len(entries) == 0 {
		return energy.DiaryEntry{}, ErrEntryNotFound
	}
	return entries[0], nil
}

// ListEntries returns all entries for a profile ordered by date.
// An unknown profile yields an empty slice.
func (db *DB) ListEntries(profile string) ([]energy.DiaryEntry, error) {
	return db.listEntries(`WHERE e.profile_name = ?`, profile)
}

// ListEntriesBetween returns entries for a profile with from <= date <= to
func (db *DB) ListEntriesBetween(profile, from, to string) ([]energy.DiaryEntry, error) {
	return db.listEntries(`WHERE e.profile_name = ? AND e.date >= ? AND e.date <= ?`, profile, from, to)
}

// ListDiaryProfiles returns every profile name that has diary entries,
// including names whose profile record no longer exists
func (db *DB) ListDiaryProfiles() ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT profile_name FROM diary_entries ORDER BY profile_name`)
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

func (db *DB) listEntries(where string, args ...any) ([]energy.DiaryEntry, error) {
	rows, err := db.Query(`
		SELECT e.id, e.date, e.pal, e.bmr, e.base, e.training_kcal, e.tdee
		FROM diary_entries e
		`+where+`
		ORDER BY e.date
	`, args...)
	if err != nil {
		return nil, err
	}

	var (
		entries []energy.DiaryEntry
		ids     []string
	)
	for rows.Next() {
		var (
			id string
			e  energy.DiaryEntry
		)
		if err := rows.Scan(&id, &e.Date, &e.PAL, &e.BMR, &e.Base, &e.TrainingKcal, &e.TDEE); err != nil {
			rows.Close()
			return nil, err
		}
		e.DurationsMin = make(map[string]int)
		e.ZoneWOverrides = make(map[string]float64)
		entries = append(entries, e)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Small result sets; per-entry child queries keep the SQL portable
	for i, id := range ids {
		if err := db.loadChildren(id, &entries[i]); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

func (db *DB) loadChildren(id string, e *energy.DiaryEntry) error {
	rows, err := db.Query(`SELECT zone_name, minutes FROM diary_durations WHERE entry_id = ?`, id)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			zone string
			mins int
		)
		if err := rows.Scan(&zone, &mins); err != nil {
			rows.Close()
			return err
		}
		e.DurationsMin[zone] = mins
	}
	rows.Close()

	rows, err = db.Query(`SELECT zone_name, mean_w FROM diary_overrides WHERE entry_id = ?`, id)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			zone string
			w    float64
		)
		if err := rows.Scan(&zone, &w); err != nil {
			return err
		}
		e.ZoneWOverrides[zone] = w
	}
	return rows.Err()
}
