package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"cyclist-energy/internal/energy"
)

// Store is the persistence used by Export and Import
type Store interface {
	ListProfileNames() ([]string, error)
	GetProfile(name string) (energy.Profile, error)
	SaveProfile(p energy.Profile) (energy.Profile, error)
	ListDiaryProfiles() ([]string, error)
	ListEntries(profile string) ([]energy.DiaryEntry, error)
	SaveEntry(profile string, e energy.DiaryEntry) (string, error)
}

// Result counts what a transfer moved
type Result struct {
	BatchID  string
	Profiles int
	Entries  int
	Skipped  []string
}

// Export writes every profile and diary entry in db to profiles.json and
// diary.json in dir
func Export(db Store, dir string) (Result, error) {
	res := Result{BatchID: uuid.NewString()}

	names, err := db.ListProfileNames()
	if err != nil {
		return res, fmt.Errorf("listing profiles: %w", err)
	}
	profiles := make(Profiles, len(names))
	for _, name := range names {
		p, err := db.GetProfile(name)
		if err != nil {
			return res, fmt.Errorf("loading profile %q: %w", name, err)
		}
		profiles[name] = ToDoc(p)
	}

	diaryNames, err := db.ListDiaryProfiles()
	if err != nil {
		return res, fmt.Errorf("listing diary: %w", err)
	}
	diary := make(Diary, len(diaryNames))
	for _, name := range diaryNames {
		entries, err := db.ListEntries(name)
		if err != nil {
			return res, fmt.Errorf("loading diary for %q: %w", name, err)
		}
		days := make(map[string]energy.DiaryEntry, len(entries))
		for _, e := range entries {
			days[e.Date] = e
		}
		diary[name] = days
		res.Entries += len(entries)
	}

	if err := SaveProfiles(filepath.Join(dir, ProfilesFile), profiles); err != nil {
		return res, err
	}
	if err := SaveDiary(filepath.Join(dir, DiaryFile), diary); err != nil {
		return res, err
	}

	res.Profiles = len(profiles)
	log.Printf("archive: export %s wrote %d profiles and %d entries to %s", res.BatchID, res.Profiles, res.Entries, dir)
	return res, nil
}

// Import loads profiles.json and diary.json from dir into db. Existing
// profiles and same-day entries are replaced. Records that cannot be
// converted are skipped and listed in the result.
func Import(db Store, dir string) (Result, error) {
	res := Result{BatchID: uuid.NewString()}

	profiles := LoadProfiles(filepath.Join(dir, ProfilesFile))
	for _, name := range sortedKeys(profiles) {
		p, err := FromDoc(name, profiles[name])
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Sprintf("profile %q: %v", name, err))
			continue
		}
		if _, err := db.SaveProfile(p); err != nil {
			return res, fmt.Errorf("saving profile %q: %w", name, err)
		}
		res.Profiles++
	}

	diary := LoadDiary(filepath.Join(dir, DiaryFile))
	for _, name := range sortedKeys(diary) {
		days := diary[name]
		for _, date := range sortedKeys(days) {
			if _, err := time.Parse(energy.DateLayout, date); err != nil {
				res.Skipped = append(res.Skipped, fmt.Sprintf("entry %q/%q: invalid date", name, date))
				continue
			}
			e := days[date]
			if e.PAL != 0 && !energy.ValidPAL(e.PAL) {
				res.Skipped = append(res.Skipped, fmt.Sprintf("entry %q/%q: PAL %g is not a known level", name, date, e.PAL))
				continue
			}
			e.Date = date
			if _, err := db.SaveEntry(name, e); err != nil {
				return res, fmt.Errorf("saving entry %s for %q: %w", date, name, err)
			}
			res.Entries++
		}
	}

	log.Printf("archive: import %s loaded %d profiles and %d entries from %s (%d skipped)",
		res.BatchID, res.Profiles, res.Entries, dir, len(res.Skipped))
	return res, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HistoryHeader is the CSV header written by WriteHistoryCSV
var HistoryHeader = []string{"date", "BMR", "Base", "Training", "TDEE"}

// WriteHistoryCSV writes one row per diary entry, oldest first
func WriteHistoryCSV(w io.Writer, entries []energy.DiaryEntry) error {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b energy.DiaryEntry) int {
		return strings.Compare(a.Date, b.Date)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(HistoryHeader); err != nil {
		return err
	}
	for _, e := range sorted {
		row := []string{
			e.Date,
			strconv.Itoa(e.BMR),
			strconv.Itoa(e.Base),
			strconv.Itoa(e.TrainingKcal),
			strconv.Itoa(e.TDEE),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
