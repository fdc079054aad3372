package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"cyclist-energy/internal/auth"
	"cyclist-energy/internal/config"
	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/store"
)

var (
	// ErrPINMismatch is returned when a protected profile is unlocked with the wrong PIN
	ErrPINMismatch = errors.New("wrong PIN")
	// ErrInvalidPAL is returned for a PAL outside the offered levels
	ErrInvalidPAL = errors.New("PAL must be one of 1.3, 1.35, 1.4, 1.45, 1.5, 1.6, 1.7")
)

// JournalService computes daily energy estimates and keeps the diary
type JournalService struct {
	store      *store.DB
	defaultEff float64
	now        func() time.Time
}

// NewJournalService creates a journal service. cfg may be nil.
func NewJournalService(db *store.DB, cfg *config.Config) *JournalService {
	eff := energy.DefaultEfficiency
	if cfg != nil && cfg.Energy.DefaultEfficiency > 0 {
		eff = cfg.Energy.DefaultEfficiency
	}
	return &JournalService{store: db, defaultEff: eff, now: time.Now}
}

// Today returns the current date at midnight UTC
func (s *JournalService) Today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Unlock loads a profile, checking the PIN when the profile has one
func (s *JournalService) Unlock(name, pin string) (energy.Profile, error) {
	p, err := s.store.GetProfile(name)
	if err != nil {
		return energy.Profile{}, err
	}
	if !auth.CheckPIN(p.PINHash, pin) {
		return energy.Profile{}, ErrPINMismatch
	}
	return p, nil
}

// Preview computes the estimate for a day without saving it. Age is taken
// on the entry date so back-filled days use the age the rider had then.
func (s *JournalService) Preview(p energy.Profile, in energy.DayInput, date time.Time) (energy.DayResult, error) {
	if in.PAL != 0 && !energy.ValidPAL(in.PAL) {
		return energy.DayResult{}, ErrInvalidPAL
	}
	return energy.ComputeDay(p, in, date, s.defaultEff), nil
}

// Record computes the estimate for a day and stores it, replacing any
// previous entry for the same date
func (s *JournalService) Record(p energy.Profile, in energy.DayInput, date time.Time) (energy.DayResult, error) {
	result, err := s.Preview(p, in, date)
	if err != nil {
		return energy.DayResult{}, err
	}

	entry := result.Entry(date)
	id, err := s.store.SaveEntry(p.Name, entry)
	if err != nil {
		return energy.DayResult{}, fmt.Errorf("saving diary entry: %w", err)
	}

	log.Printf("journal: recorded %s for %q (entry %s): BMR %d, base %d, training %d, TDEE %d",
		entry.Date, p.Name, id, entry.BMR, entry.Base, entry.TrainingKcal, entry.TDEE)
	return result, nil
}

// History returns a profile's diary entries ordered by date
func (s *JournalService) History(name string) ([]energy.DiaryEntry, error) {
	return s.store.ListEntries(name)
}

// Day returns the input stored for a date, reporting whether an entry exists
func (s *JournalService) Day(name string, date time.Time) (energy.DayInput, bool, error) {
	e, err := s.store.GetEntry(name, energy.DayKey(date))
	if errors.Is(err, store.ErrEntryNotFound) {
		return energy.DayInput{Minutes: map[string]int{}, WattOverrides: map[string]float64{}}, false, nil
	}
	if err != nil {
		return energy.DayInput{}, false, err
	}
	return InputFromEntry(e), true, nil
}

// Recent returns the diary entries from the last days days, today included
func (s *JournalService) Recent(name string, days int) ([]energy.DiaryEntry, error) {
	to := s.Today()
	from := to.AddDate(0, 0, -(days - 1))
	return s.store.ListEntriesBetween(name, energy.DayKey(from), energy.DayKey(to))
}

// Summary aggregates a profile's diary
type Summary struct {
	Days          int
	First, Last   string
	AvgTDEE       int
	AvgTraining   int
	TotalTraining int
	MaxTDEE       int
	MaxTDEEDate   string
	WeekTraining  int // training kcal over the last SummaryWeekDays days
}

// Summary aggregates the diary of a profile
func (s *JournalService) Summary(name string) (Summary, error) {
	entries, err := s.store.ListEntries(name)
	if err != nil {
		return Summary{}, err
	}
	return summarize(entries, s.Today()), nil
}

func summarize(entries []energy.DiaryEntry, today time.Time) Summary {
	var sum Summary
	if len(entries) == 0 {
		return sum
	}

	weekStart := energy.DayKey(today.AddDate(0, 0, -(SummaryWeekDays - 1)))
	totalTDEE := 0
	for _, e := range entries {
		totalTDEE += e.TDEE
		sum.TotalTraining += e.TrainingKcal
		if e.TDEE > sum.MaxTDEE {
			sum.MaxTDEE = e.TDEE
			sum.MaxTDEEDate = e.Date
		}
		if e.Date >= weekStart && e.Date <= energy.DayKey(today) {
			sum.WeekTraining += e.TrainingKcal
		}
	}

	sum.Days = len(entries)
	sum.First = entries[0].Date
	sum.Last = entries[len(entries)-1].Date
	sum.AvgTDEE = roundDiv(totalTDEE, sum.Days)
	sum.AvgTraining = roundDiv(sum.TotalTraining, sum.Days)
	return sum
}

func roundDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return int(float64(a)/float64(b) + 0.5)
}

// DeleteEntry removes one day from a profile's diary
func (s *JournalService) DeleteEntry(name, pin, date string) error {
	if _, err := s.Unlock(name, pin); err != nil {
		return err
	}
	return s.store.DeleteEntry(name, date)
}

// DeleteProfile removes a profile, its zones and its whole diary. The diary
// of a profile that no longer exists can be purged without a PIN.
func (s *JournalService) DeleteProfile(name, pin string) error {
	if _, err := s.Unlock(name, pin); err != nil && !errors.Is(err, store.ErrProfileNotFound) {
		return err
	}
	if err := s.store.DeleteProfile(name); err != nil {
		return fmt.Errorf("deleting profile %q: %w", name, err)
	}
	log.Printf("journal: deleted profile %q and its diary", name)
	return nil
}
