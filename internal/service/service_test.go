package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"cyclist-energy/internal/config"
	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/store"
	"cyclist-energy/internal/strava"
)

// openTestDB creates an in-memory SQLite database with migrations applied
func openTestDB(t *testing.T) *store.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	db, err := store.NewTestDB(sqlDB)
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func day(s string) time.Time {
	t, err := time.Parse(energy.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newJournal(t *testing.T, db *store.DB) *JournalService {
	t.Helper()
	cfg := config.DefaultConfig()
	s := NewJournalService(db, &cfg)
	s.now = func() time.Time { return time.Date(2024, 6, 20, 15, 30, 0, 0, time.UTC) }
	return s
}

func TestJournal_RecordAndHistory(t *testing.T) {
	db := openTestDB(t)
	journal := newJournal(t, db)
	profiles := NewProfileService(db, nil)

	p, err := profiles.Create("Test 1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	p.BMRManual = energy.Float(1500)
	p.PAL = 1.5
	if p, err = profiles.Update(p); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	in := energy.DayInput{Minutes: map[string]int{"Active recovery": 60}}
	res, err := journal.Record(p, in, day("2024-06-15"))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if res.Base != 2250 || res.Training != 415 || res.TDEE != 2665 {
		t.Errorf("Record() = base %d, training %d, TDEE %d; want 2250, 415, 2665", res.Base, res.Training, res.TDEE)
	}

	// Same day again replaces the entry
	in.Minutes["Active recovery"] = 0
	if _, err := journal.Record(p, in, day("2024-06-15")); err != nil {
		t.Fatal(err)
	}
	if _, err := journal.Record(p, energy.DayInput{PAL: 1.7}, day("2024-06-16")); err != nil {
		t.Fatal(err)
	}

	history, err := journal.History("Test 1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("len(History()) = %d, want 2", len(history))
	}
	if history[0].TDEE != 2250 || history[0].BMR != 1500 {
		t.Errorf("history[0] = %+v", history[0])
	}
	if history[1].PAL != 1.7 || history[1].Base != 2550 {
		t.Errorf("history[1] = %+v", history[1])
	}

	recent, err := journal.Recent("Test 1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Date != "2024-06-16" {
		t.Errorf("Recent(5) = %+v", recent)
	}
}

func TestJournal_PreviewRejectsUnknownPAL(t *testing.T) {
	journal := newJournal(t, openTestDB(t))

	_, err := journal.Preview(energy.NewProfile("x"), energy.DayInput{PAL: 2.2}, day("2024-06-15"))
	if !errors.Is(err, ErrInvalidPAL) {
		t.Errorf("Preview() error = %v, want ErrInvalidPAL", err)
	}
}

func TestJournal_PreviewUsesEntryDateForAge(t *testing.T) {
	journal := newJournal(t, openTestDB(t))

	p := energy.NewProfile("x")
	p.Birth = day("1994-06-16")

	before, _ := journal.Preview(p, energy.DayInput{}, day("2024-06-15"))
	after, _ := journal.Preview(p, energy.DayInput{}, day("2024-06-16"))
	if before.Age != 29 || after.Age != 30 {
		t.Errorf("ages = %d, %d; want 29, 30", before.Age, after.Age)
	}
}

func TestJournal_UnlockAndDelete(t *testing.T) {
	db := openTestDB(t)
	journal := newJournal(t, db)
	profiles := NewProfileService(db, nil)

	if _, err := profiles.Create("Locked"); err != nil {
		t.Fatal(err)
	}
	if _, err := profiles.SetPIN("Locked", "", "1234"); err != nil {
		t.Fatalf("SetPIN() error = %v", err)
	}

	if _, err := journal.Unlock("Locked", "9999"); !errors.Is(err, ErrPINMismatch) {
		t.Errorf("Unlock(wrong) error = %v, want ErrPINMismatch", err)
	}
	p, err := journal.Unlock("Locked", "1234")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if _, err := journal.Record(p, energy.DayInput{}, day("2024-06-15")); err != nil {
		t.Fatal(err)
	}

	if err := journal.DeleteEntry("Locked", "0000", "2024-06-15"); !errors.Is(err, ErrPINMismatch) {
		t.Errorf("DeleteEntry(wrong pin) error = %v", err)
	}
	if err := journal.DeleteProfile("Locked", "1234"); err != nil {
		t.Fatalf("DeleteProfile() error = %v", err)
	}
	if entries, _ := journal.History("Locked"); len(entries) != 0 {
		t.Errorf("diary survived profile delete: %v", entries)
	}
	if _, err := journal.Unlock("Locked", "1234"); !errors.Is(err, store.ErrProfileNotFound) {
		t.Errorf("Unlock(deleted) error = %v", err)
	}
}

func TestJournal_DeleteProfilePurgesOrphanDiary(t *testing.T) {
	db := openTestDB(t)
	journal := newJournal(t, db)

	if _, err := journal.Record(energy.NewProfile("Ghost"), energy.DayInput{}, day("2024-06-15")); err != nil {
		t.Fatal(err)
	}
	if err := journal.DeleteProfile("Ghost", ""); err != nil {
		t.Fatalf("DeleteProfile(orphan) error = %v", err)
	}
	if entries, _ := journal.History("Ghost"); len(entries) != 0 {
		t.Errorf("orphan diary survived: %v", entries)
	}
	if err := journal.DeleteProfile("Ghost", ""); !errors.Is(err, store.ErrProfileNotFound) {
		t.Errorf("DeleteProfile(nothing) error = %v, want ErrProfileNotFound", err)
	}
}

func TestSummarize(t *testing.T) {
	today := day("2024-06-20")
	entries := []energy.DiaryEntry{
		{Date: "2024-06-01", TDEE: 2500, TrainingKcal: 0},
		{Date: "2024-06-10", TDEE: 3300, TrainingKcal: 800},
		{Date: "2024-06-18", TDEE: 2900, TrainingKcal: 401},
	}

	got := summarize(entries, today)
	want := Summary{
		Days:          3,
		First:         "2024-06-01",
		Last:          "2024-06-18",
		AvgTDEE:       2900,
		AvgTraining:   400,
		TotalTraining: 1201,
		MaxTDEE:       3300,
		MaxTDEEDate:   "2024-06-10",
		WeekTraining:  401,
	}
	if got != want {
		t.Errorf("summarize() = %+v, want %+v", got, want)
	}

	if empty := summarize(nil, today); empty != (Summary{}) {
		t.Errorf("summarize(nil) = %+v", empty)
	}
}

func TestProfile_CreateUsesConfigDefaults(t *testing.T) {
	db := openTestDB(t)
	cfg := config.DefaultConfig()
	cfg.Energy.DefaultPAL = 1.6
	cfg.Energy.Formula = "mifflin"
	profiles := NewProfileService(db, &cfg)

	p, err := profiles.Create("  Anna  ")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Anna" || p.PAL != 1.6 || p.Formula != energy.FormulaMifflin {
		t.Errorf("Create() = %+v", p)
	}
	if _, err := profiles.Create("Anna"); !errors.Is(err, ErrProfileExists) {
		t.Errorf("second Create() error = %v, want ErrProfileExists", err)
	}
	if _, err := profiles.Create(" "); err == nil {
		t.Error("Create(blank) expected error")
	}
}

func TestProfile_UpdateKeepsPIN(t *testing.T) {
	db := openTestDB(t)
	profiles := NewProfileService(db, nil)

	if _, err := profiles.Create("P"); err != nil {
		t.Fatal(err)
	}
	locked, err := profiles.SetPIN("P", "", "4321")
	if err != nil {
		t.Fatal(err)
	}

	edit := locked
	edit.PINHash = ""
	edit.WeightKg = 72
	saved, err := profiles.Update(edit)
	if err != nil {
		t.Fatal(err)
	}
	if saved.PINHash != locked.PINHash || saved.WeightKg != 72 {
		t.Errorf("Update() lost PIN or weight: %+v", saved)
	}

	edit.PAL = 1.55
	if _, err := profiles.Update(edit); !errors.Is(err, ErrInvalidPAL) {
		t.Errorf("Update(bad PAL) error = %v", err)
	}

	if _, err := profiles.SetPIN("P", "0000", ""); !errors.Is(err, ErrPINMismatch) {
		t.Errorf("SetPIN(wrong current) error = %v", err)
	}
	cleared, err := profiles.SetPIN("P", "4321", "")
	if err != nil || cleared.HasPIN() {
		t.Errorf("SetPIN(clear) = %+v, %v", cleared, err)
	}
}

const zoneTemplate = `
[[zone]]
name = "Active recovery"
min_w = 130
max_w = 190
mean_w = 160

[[zone]]
name = "Endurance"
min_w = 190
max_w = 240
eff = 0.22
`

func TestParseZonesTOML(t *testing.T) {
	zones, err := ParseZonesTOML(strings.NewReader(zoneTemplate))
	if err != nil {
		t.Fatalf("ParseZonesTOML() error = %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("len(zones) = %d", len(zones))
	}
	if zones[1].MeanW != nil || energy.Value(zones[1].Eff) != 0.22 {
		t.Errorf("zones[1] = %+v", zones[1])
	}

	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "[[zone]]\nname = \"A\"\nmean_watts = 100\n"},
		{"no zones", "title = \"x\"\n"},
		{"missing name", "[[zone]]\nmin_w = 1\n"},
		{"duplicate", "[[zone]]\nname = \"A\"\n[[zone]]\nname = \"A\"\n"},
		{"bad syntax", "[[zone]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseZonesTOML(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteZonesTOML_RoundTrip(t *testing.T) {
	zones := energy.DefaultZones()

	var buf bytes.Buffer
	if err := WriteZonesTOML(&buf, zones); err != nil {
		t.Fatal(err)
	}
	got, err := ParseZonesTOML(&buf)
	if err != nil {
		t.Fatalf("re-parse error = %v\n%s", err, buf.String())
	}
	if len(got) != len(zones) || got[2].Name != "RE Génération" || energy.Value(got[2].MeanW) != 200 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestProfile_ImportZonesTOML(t *testing.T) {
	db := openTestDB(t)
	profiles := NewProfileService(db, nil)
	if _, err := profiles.Create("Z"); err != nil {
		t.Fatal(err)
	}

	p, err := profiles.ImportZonesTOML("Z", strings.NewReader(zoneTemplate))
	if err != nil {
		t.Fatal(err)
	}
	// Full recovery is added in front of the imported zones
	if len(p.Zones) != 3 || p.Zones[0].Name != energy.FullRecoveryName || energy.Value(p.Zones[0].MaxW) != 130 {
		t.Errorf("imported zones = %+v", p.Zones)
	}

	if _, err := profiles.ImportZonesTOML("nobody", strings.NewReader(zoneTemplate)); !errors.Is(err, store.ErrProfileNotFound) {
		t.Errorf("ImportZonesTOML(unknown) error = %v", err)
	}
}

type fakeRides struct {
	activities map[int64]strava.Activity
	streams    map[int64]*strava.PowerStream
}

func (f *fakeRides) RecentRides(ctx context.Context, n int) ([]strava.Activity, error) {
	var out []strava.Activity
	for _, a := range f.activities {
		if a.IsRide() && len(out) < n {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRides) GetActivity(ctx context.Context, id int64) (*strava.Activity, error) {
	a, ok := f.activities[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &a, nil
}

func (f *fakeRides) GetPowerStream(ctx context.Context, id int64) (*strava.PowerStream, error) {
	if s, ok := f.streams[id]; ok {
		return s, nil
	}
	return &strava.PowerStream{}, nil
}

// steadyStream builds a 1 Hz stream from (watts, seconds) blocks
func steadyStream(blocks ...[2]float64) *strava.PowerStream {
	s := &strava.PowerStream{
		Time:  &strava.StreamData[int]{},
		Watts: &strava.StreamData[*float64]{},
	}
	t := 0
	for _, b := range blocks {
		for i := 0; i < int(b[1]); i++ {
			w := b[0]
			s.Time.Data = append(s.Time.Data, t)
			s.Watts.Data = append(s.Watts.Data, &w)
			t++
		}
	}
	// dropout
	s.Time.Data = append(s.Time.Data, t)
	s.Watts.Data = append(s.Watts.Data, nil)
	return s
}

func TestRideImport(t *testing.T) {
	db := openTestDB(t)
	src := &fakeRides{
		activities: map[int64]strava.Activity{
			7: {ID: 7, SportType: "Ride", StartDateLocal: time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)},
			8: {ID: 8, SportType: "Run"},
			9: {ID: 9, SportType: "Ride"},
		},
		streams: map[int64]*strava.PowerStream{
			7: steadyStream([2]float64{150, 600}, [2]float64{200, 900}, [2]float64{230, 300}, [2]float64{100, 20}),
		},
	}
	svc := NewRideImportService(src, db)
	p := energy.NewProfile("Rider")

	got, err := svc.ImportRide(context.Background(), p, 7)
	if err != nil {
		t.Fatalf("ImportRide() error = %v", err)
	}

	if energy.DayKey(got.Date) != "2024-06-15" {
		t.Errorf("Date = %v", got.Date)
	}
	wantMinutes := map[string]int{"Active recovery": 10, "RE Génération": 20}
	if len(got.Input.Minutes) != len(wantMinutes) {
		t.Errorf("Minutes = %v, want %v", got.Input.Minutes, wantMinutes)
	}
	for zone, m := range wantMinutes {
		if got.Input.Minutes[zone] != m {
			t.Errorf("Minutes[%s] = %d, want %d", zone, got.Input.Minutes[zone], m)
		}
	}
	// 230 W sits in the 220-250 gap and counts toward the zone below
	if w := got.Input.WattOverrides["RE Génération"]; w != 207.5 {
		t.Errorf("RE Génération mean = %v, want 207.5", w)
	}
	// 20 s of Full recovery is kept in Zones but rounds to 0 minutes
	if len(got.Zones) != 3 || got.Zones[0].Zone != energy.FullRecoveryName || got.Zones[0].Seconds != 20 {
		t.Errorf("Zones = %+v", got.Zones)
	}

	// importing only previews, nothing is marked until the day is saved
	if last, err := svc.LastImported(); err != nil || last != 0 {
		t.Errorf("LastImported() before save = %d, %v; want 0", last, err)
	}
	if err := svc.MarkImported(7); err != nil {
		t.Fatal(err)
	}
	if last, err := svc.LastImported(); err != nil || last != 7 {
		t.Errorf("LastImported() = %d, %v", last, err)
	}

	if _, err := svc.ImportRide(context.Background(), p, 8); err == nil {
		t.Error("ImportRide(run) expected error")
	}
	if _, err := svc.ImportRide(context.Background(), p, 9); !errors.Is(err, ErrNoPowerData) {
		t.Errorf("ImportRide(no power) error = %v, want ErrNoPowerData", err)
	}
}

func TestRideImport_CoastingAddsNoEnergy(t *testing.T) {
	src := &fakeRides{
		activities: map[int64]strava.Activity{
			1: {ID: 1, SportType: "Ride", StartDateLocal: time.Date(2024, 6, 16, 9, 0, 0, 0, time.UTC)},
		},
		streams: map[int64]*strava.PowerStream{
			1: steadyStream([2]float64{0, 1800}),
		},
	}
	svc := NewRideImportService(src, openTestDB(t))
	p := energy.NewProfile("Rider")

	got, err := svc.ImportRide(context.Background(), p, 1)
	if err != nil {
		t.Fatalf("ImportRide() error = %v", err)
	}
	if len(got.Zones) != 1 || got.Zones[0].Zone != energy.FullRecoveryName || got.Zones[0].Seconds != 1800 || got.Zones[0].MeanW != 0 {
		t.Errorf("Zones = %+v, want 1800 s of Full recovery at 0 W", got.Zones)
	}
	if len(got.Input.Minutes) != 0 || len(got.Input.WattOverrides) != 0 {
		t.Errorf("Input = %+v, want no minutes for a 0 W ride", got.Input)
	}

	res := energy.ComputeDay(p, got.Input, day("2024-06-16"), energy.DefaultEfficiency)
	if res.Training != 0 {
		t.Errorf("training = %d kcal, want 0 for 30 min at 0 W", res.Training)
	}
}

func TestMergeInputs(t *testing.T) {
	existing := energy.DayInput{
		PAL:           1.5,
		Minutes:       map[string]int{"Active recovery": 30, "FAT MAX": 10},
		WattOverrides: map[string]float64{"FAT MAX": 260},
	}
	ride := energy.DayInput{
		Minutes:       map[string]int{"FAT MAX": 20},
		WattOverrides: map[string]float64{"FAT MAX": 270.4},
	}

	got := MergeInputs(existing, ride)
	if got.PAL != 1.5 || got.Minutes["FAT MAX"] != 30 || got.Minutes["Active recovery"] != 30 {
		t.Errorf("MergeInputs() = %+v", got)
	}
	if got.WattOverrides["FAT MAX"] != 270.4 {
		t.Errorf("override = %v, want ride value", got.WattOverrides["FAT MAX"])
	}
	if existing.Minutes["FAT MAX"] != 10 {
		t.Error("MergeInputs modified its input")
	}

	back := InputFromEntry(energy.DiaryEntry{PAL: 1.4, DurationsMin: map[string]int{"A": 5}})
	if back.PAL != 1.4 || back.Minutes["A"] != 5 || back.WattOverrides == nil {
		t.Errorf("InputFromEntry() = %+v", back)
	}
}
