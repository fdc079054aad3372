package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cyclist-energy/internal/config"
	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	js := service.NewJournalService(nil, nil)
	return NewApp(Services{Journal: js}, config.DisplayConfig{EnergyUnit: "kcal"}, "")
}

func TestUnits(t *testing.T) {
	kcal := NewUnits(config.DisplayConfig{EnergyUnit: "kcal"})
	if got := kcal.FormatEnergy(2665); got != "2,665 kcal" {
		t.Errorf("FormatEnergy() = %q, want %q", got, "2,665 kcal")
	}

	kj := NewUnits(config.DisplayConfig{EnergyUnit: "kJ"})
	if got := kj.Value(1000); got != 4186 {
		t.Errorf("Value(1000) in kJ = %d, want 4186", got)
	}
	if kj.Label() != "kJ" {
		t.Errorf("Label() = %q, want kJ", kj.Label())
	}
}

func TestFormatDay(t *testing.T) {
	u := NewUnits(config.DisplayConfig{})
	u.now = func() time.Time { return time.Date(2024, 6, 20, 15, 30, 0, 0, time.UTC) }

	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), "Thu 20 Jun 2024 (today)"},
		{time.Date(2024, 6, 19, 0, 0, 0, 0, time.UTC), "Wed 19 Jun 2024 (yesterday)"},
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "Sun 01 Jan 2023"},
	}
	for _, tt := range tests {
		if got := u.FormatDay(tt.date); got != tt.want {
			t.Errorf("FormatDay(%s) = %q, want %q", energy.DayKey(tt.date), got, tt.want)
		}
	}
	if got := u.FormatKey("not-a-date"); got != "not-a-date" {
		t.Errorf("FormatKey() = %q, want the key unchanged", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	if got := formatMinutes(45); got != "45 min" {
		t.Errorf("formatMinutes(45) = %q", got)
	}
	if got := formatMinutes(65); got != "1h05" {
		t.Errorf("formatMinutes(65) = %q", got)
	}
}

func TestApp_ScreensNeedProfile(t *testing.T) {
	a := newTestApp(t)

	a.Update(key("2"))
	if a.screen != ScreenProfile {
		t.Errorf("screen = %v, want profile screen without a profile", a.screen)
	}
	if a.status == "" {
		t.Error("expected a status message asking for a profile")
	}

	a.Update(key("?"))
	if a.screen != ScreenHelp {
		t.Fatalf("screen = %v, want help", a.screen)
	}
	a.Update(key("esc"))
	if a.screen != ScreenProfile {
		t.Errorf("esc should return to the previous screen, got %v", a.screen)
	}
}

func TestApp_ProfileSelectedSwitchesToJournal(t *testing.T) {
	a := newTestApp(t)

	a.Update(ProfileSelectedMsg{Profile: energy.NewProfile("Alice"), Switch: true})
	if a.screen != ScreenJournal {
		t.Errorf("screen = %v, want journal", a.screen)
	}
	if a.profile == nil || a.profile.Name != "Alice" {
		t.Fatalf("profile = %v, want Alice", a.profile)
	}
	if a.history.profile != "Alice" {
		t.Errorf("history profile = %q, want Alice", a.history.profile)
	}
	if !strings.Contains(a.View(), "Alice") {
		t.Error("header should name the open profile")
	}

	a.Update(key("3"))
	if a.screen != ScreenHistory {
		t.Errorf("screen = %v, want history", a.screen)
	}
}

func TestApp_EditorCapturesDigits(t *testing.T) {
	a := newTestApp(t)
	p := energy.NewProfile("Alice")
	a.Update(ProfileSelectedMsg{Profile: p, Switch: true})

	date := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	a.Update(dayLoadedMsg{date: date, input: energy.DayInput{Minutes: map[string]int{}, WattOverrides: map[string]float64{}}})
	if len(a.journal.preview.Zones) == 0 {
		t.Fatal("expected zones after the day loaded")
	}

	a.Update(key("enter"))
	if !a.journal.Editing() {
		t.Fatal("enter should open the minutes editor")
	}

	// "3" would switch to history if it were not captured
	a.Update(key("3"))
	a.Update(key("0"))
	if a.screen != ScreenJournal {
		t.Fatalf("screen = %v, digits must go to the editor", a.screen)
	}
	a.Update(key("enter"))
	if a.journal.Editing() {
		t.Fatal("enter should commit the edit")
	}

	zone := a.journal.preview.Zones[0].Name
	if got := a.journal.input.Minutes[zone]; got != 30 {
		t.Errorf("minutes for %q = %d, want 30", zone, got)
	}
	if !a.journal.dirty {
		t.Error("journal should be marked dirty after an edit")
	}
	if a.journal.preview.Training <= 0 {
		t.Errorf("training = %d, want a positive estimate", a.journal.preview.Training)
	}
}
