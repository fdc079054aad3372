package archive

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"cyclist-energy/internal/auth"
	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/store"
)

func openStore(t *testing.T) *store.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db, err := store.NewTestDB(sqlDB)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestLoad_FallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()

	assert.Empty(t, LoadProfiles(filepath.Join(dir, "missing.json")))
	assert.NotNil(t, LoadDiary(filepath.Join(dir, "missing.json")))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"Test 1": {`), 0644))
	assert.Empty(t, LoadProfiles(bad))
	assert.Empty(t, LoadDiary(bad))

	// right JSON, wrong shape
	wrong := filepath.Join(dir, "wrong.json")
	require.NoError(t, os.WriteFile(wrong, []byte(`[1, 2, 3]`), 0644))
	assert.Empty(t, LoadDiary(wrong))
}

func TestSaveDiary_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DiaryFile)
	doc := Diary{
		"Zoé": {
			"2024-06-15": {
				DurationsMin:   map[string]int{"RE Génération": 45},
				PAL:            1.4,
				BMR:            1841,
				Base:           2577,
				TrainingKcal:   600,
				TDEE:           3177,
				ZoneWOverrides: map[string]float64{},
			},
		},
	}
	require.NoError(t, SaveDiary(path, doc))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)

	assert.Contains(t, text, `"Zoé"`, "non-ASCII kept as is")
	assert.Contains(t, text, `"RE Génération": 45`)
	assert.Contains(t, text, "\n  \"Zoé\": {\n    \"2024-06-15\": {", "two-space indentation")
	assert.NotContains(t, text, `\u00`)

	// no temp files left behind
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	back := LoadDiary(path)
	got := back["Zoé"]["2024-06-15"]
	assert.Equal(t, "2024-06-15", got.Date)
	assert.Equal(t, 3177, got.TDEE)
	assert.Equal(t, 45, got.DurationsMin["RE Génération"])
}

func TestSaveProfiles_HTMLNotEscaped(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProfilesFile)
	p := energy.NewProfile("Tom & Jerry <3")
	require.NoError(t, SaveProfiles(path, Profiles{p.Name: ToDoc(p)}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Tom & Jerry <3")
	assert.Contains(t, string(raw), `"birth": null`)
}

func TestFromDoc(t *testing.T) {
	birth := "1990-06-15T00:00:00"
	doc := ProfileDoc{
		Sex:      "f",
		Birth:    &birth,
		HeightCm: 165,
		WeightKg: 55,
		PAL:      0,
		PIN:      "1234",
		Zones: []energy.Zone{
			{Name: "Active recovery", MinW: energy.Float(110), MaxW: energy.Float(160), MeanW: energy.Float(130)},
		},
	}

	p, err := FromDoc("Léa", doc)
	require.NoError(t, err)

	assert.Equal(t, "Léa", p.Name)
	assert.Equal(t, energy.SexFemale, p.Sex)
	assert.Equal(t, time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC), p.Birth)
	assert.Equal(t, energy.DefaultPAL, p.PAL)
	assert.Equal(t, energy.FormulaTenHaaf, p.Formula)
	require.Len(t, p.Zones, 2)
	assert.Equal(t, energy.FullRecoveryName, p.Zones[0].Name)

	// plaintext PIN is hashed
	assert.NotEqual(t, "1234", p.PINHash)
	assert.True(t, auth.CheckPIN(p.PINHash, "1234"))

	// an already hashed PIN is kept
	doc.PIN = p.PINHash
	again, err := FromDoc("Léa", doc)
	require.NoError(t, err)
	assert.Equal(t, p.PINHash, again.PINHash)

	bad := "15/06/1990"
	doc.Birth = &bad
	_, err = FromDoc("Léa", doc)
	assert.Error(t, err)
}

func TestFromDoc_SnapsUnknownPAL(t *testing.T) {
	p, err := FromDoc("x", ProfileDoc{PAL: 1.55})
	require.NoError(t, err)
	assert.Equal(t, energy.DefaultPAL, p.PAL)

	p, err = FromDoc("x", ProfileDoc{PAL: 1.7})
	require.NoError(t, err)
	assert.Equal(t, 1.7, p.PAL)
}

func TestFromDoc_DuplicateZones(t *testing.T) {
	doc := ProfileDoc{Zones: []energy.Zone{
		{Name: "Tempo", MinW: energy.Float(200), MaxW: energy.Float(250)},
		{Name: "Tempo", MinW: energy.Float(250), MaxW: energy.Float(300)},
	}}
	_, err := FromDoc("x", doc)
	assert.ErrorContains(t, err, `duplicate zone "Tempo"`)
}

func TestFromDoc_InvalidPIN(t *testing.T) {
	_, err := FromDoc("x", ProfileDoc{PIN: "12"})
	assert.ErrorIs(t, err, auth.ErrInvalidPIN)
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := openStore(t)

	p := energy.NewProfile("Test 1")
	p.Birth = time.Date(1994, 3, 2, 0, 0, 0, 0, time.UTC)
	p.BMRManual = energy.Float(1700)
	hash, err := auth.HashPIN("2468")
	require.NoError(t, err)
	p.PINHash = hash
	_, err = src.SaveProfile(p)
	require.NoError(t, err)
	_, err = src.SaveProfile(energy.NewProfile("Other"))
	require.NoError(t, err)

	entry := energy.DiaryEntry{
		Date:           "2024-06-15",
		DurationsMin:   map[string]int{"FAT MAX": 30},
		PAL:            1.5,
		BMR:            1700,
		Base:           2550,
		TrainingKcal:   557,
		TDEE:           3107,
		ZoneWOverrides: map[string]float64{"FAT MAX": 270},
	}
	_, err = src.SaveEntry("Test 1", entry)
	require.NoError(t, err)
	// diary of a profile that no longer exists is exported too
	_, err = src.SaveEntry("Ghost", energy.DiaryEntry{Date: "2024-01-01", TDEE: 2000})
	require.NoError(t, err)

	dir := t.TempDir()
	exported, err := Export(src, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, exported.Profiles)
	assert.Equal(t, 2, exported.Entries)
	assert.NotEmpty(t, exported.BatchID)

	dst := openStore(t)
	imported, err := Import(dst, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, imported.Profiles)
	assert.Equal(t, 2, imported.Entries)
	assert.Empty(t, imported.Skipped)

	got, err := dst.GetProfile("Test 1")
	require.NoError(t, err)
	assert.Equal(t, p.Birth, got.Birth)
	assert.Equal(t, 1700.0, energy.Value(got.BMRManual))
	assert.True(t, auth.CheckPIN(got.PINHash, "2468"))
	assert.Equal(t, p.Zones, got.Zones)

	entries, err := dst.ListEntries("Test 1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])

	ghost, err := dst.ListEntries("Ghost")
	require.NoError(t, err)
	assert.Len(t, ghost, 1)
}

func TestImport_SkipsBadRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProfilesFile), []byte(`{
  "Good": {"name": "Good", "sex": "M", "birth": null, "height_cm": 180, "weight_kg": 75, "bmr_manual": null, "pal": 1.4, "pin": "", "zones": []},
  "Bad": {"name": "Bad", "sex": "M", "birth": "not a date", "height_cm": 180, "weight_kg": 75, "pal": 1.4, "zones": []}
}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DiaryFile), []byte(`{
  "Good": {"2024-06-15": {"durations_min": {}, "pal": 1.4, "bmr": 1800, "base": 2520, "training_kcal": 0, "tdee": 2520, "zone_w_overrides": {}},
           "2024-06-16": {"durations_min": {}, "pal": 1.55, "bmr": 1800, "base": 2790, "training_kcal": 0, "tdee": 2790, "zone_w_overrides": {}},
           "yesterday": {"tdee": 1}}
}`), 0644))

	db := openStore(t)
	res, err := Import(db, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Profiles)
	assert.Equal(t, 1, res.Entries)
	require.Len(t, res.Skipped, 3)
	assert.Contains(t, strings.Join(res.Skipped, "\n"), `"Good"/"2024-06-16": PAL 1.55`)

	entries, err := db.ListEntries("Good")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-06-15", entries[0].Date)

	// no Active recovery zone, so nothing to anchor Full recovery to
	got, err := db.GetProfile("Good")
	require.NoError(t, err)
	assert.Empty(t, got.Zones)
	assert.Equal(t, 180.0, got.HeightCm)
}

func TestWriteHistoryCSV(t *testing.T) {
	entries := []energy.DiaryEntry{
		{Date: "2024-06-16", BMR: 1841, Base: 2577, TrainingKcal: 831, TDEE: 3408},
		{Date: "2024-06-15", BMR: 1841, Base: 2577, TrainingKcal: 0, TDEE: 2577},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHistoryCSV(&buf, entries))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"date,BMR,Base,Training,TDEE",
		"2024-06-15,1841,2577,0,2577",
		"2024-06-16,1841,2577,831,3408",
	}, lines)
	// input order untouched
	assert.Equal(t, "2024-06-16", entries[0].Date)
}
