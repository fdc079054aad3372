package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Strava authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Rider profiles, keyed by display name
		`CREATE TABLE IF NOT EXISTS profiles (
			name TEXT PRIMARY KEY,
			sex TEXT NOT NULL DEFAULT 'M',
			birth TEXT,
			height_cm REAL NOT NULL,
			weight_kg REAL NOT NULL,
			bmr_manual REAL,
			pal REAL NOT NULL,
			pin_hash TEXT NOT NULL DEFAULT '',
			formula TEXT NOT NULL DEFAULT 'tenhaaf',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Power zones, ordered per profile
		`CREATE TABLE IF NOT EXISTS zones (
			profile_name TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			min_w REAL,
			max_w REAL,
			mean_w REAL,
			eff REAL,
			PRIMARY KEY (profile_name, position),
			FOREIGN KEY (profile_name) REFERENCES profiles(name) ON DELETE CASCADE
		)`,

		// Diary: one entry per profile per day. profile_name is a lookup key,
		// not a foreign key; deletes cascade in DeleteProfile.
		`CREATE TABLE IF NOT EXISTS diary_entries (
			id TEXT PRIMARY KEY,
			profile_name TEXT NOT NULL,
			date TEXT NOT NULL,
			pal REAL NOT NULL,
			bmr INTEGER NOT NULL,
			base INTEGER NOT NULL,
			training_kcal INTEGER NOT NULL,
			tdee INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (profile_name, date)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_diary_profile_date ON diary_entries(profile_name, date)`,

		`CREATE TABLE IF NOT EXISTS diary_durations (
			entry_id TEXT NOT NULL,
			zone_name TEXT NOT NULL,
			minutes INTEGER NOT NULL,
			PRIMARY KEY (entry_id, zone_name),
			FOREIGN KEY (entry_id) REFERENCES diary_entries(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS diary_overrides (
			entry_id TEXT NOT NULL,
			zone_name TEXT NOT NULL,
			mean_w REAL NOT NULL,
			PRIMARY KEY (entry_id, zone_name),
			FOREIGN KEY (entry_id) REFERENCES diary_entries(id) ON DELETE CASCADE
		)`,

		// Sync State (key-value store, e.g. last imported Strava ride)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
