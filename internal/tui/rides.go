package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
	"cyclist-energy/internal/strava"
)

// RidesModel lists recent Strava rides and turns one into journal input
type RidesModel struct {
	rides   *service.RideImportService // nil when Strava is not connected
	journal *service.JournalService
	units   Units
	profile *energy.Profile

	list     []strava.Activity
	cursor   int
	loading  bool
	imported *service.RideImport
	status   string
	err      error
}

// NewRidesModel creates a new ride import model
func NewRidesModel(rs *service.RideImportService, js *service.JournalService, units Units) RidesModel {
	return RidesModel{rides: rs, journal: js, units: units}
}

type ridesLoadedMsg struct {
	rides []strava.Activity
	err   error
}

type rideImportedMsg struct {
	result *service.RideImport
	err    error
}

// SetProfile changes the profile rides are bucketed for
func (m RidesModel) SetProfile(p energy.Profile) RidesModel {
	m.profile = &p
	m.imported = nil
	return m
}

// Init initializes the ride screen. Nothing is fetched until asked so
// opening the screen costs no API quota.
func (m RidesModel) Init() tea.Cmd {
	return nil
}

func (m RidesModel) loadRides() tea.Msg {
	rides, err := m.rides.RecentRides(context.Background(), service.RecentRidesLimit)
	return ridesLoadedMsg{rides: rides, err: err}
}

func (m RidesModel) importRide(p energy.Profile, id int64) tea.Cmd {
	return func() tea.Msg {
		res, err := m.rides.ImportRide(context.Background(), p, id)
		return rideImportedMsg{result: res, err: err}
	}
}

// Update handles messages
func (m RidesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ridesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.list = msg.rides
		m.cursor = 0

	case rideImportedMsg:
		m.loading = false
		m.err = msg.err
		m.imported = msg.result

	case tea.KeyMsg:
		if m.rides == nil || m.loading {
			return m, nil
		}
		m.status = ""
		switch msg.String() {
		case "r", "s":
			m.loading = true
			m.err = nil
			return m, m.loadRides
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.list)-1 {
				m.cursor++
			}
		case "enter":
			if m.profile == nil || len(m.list) == 0 {
				return m, nil
			}
			m.loading = true
			m.err = nil
			return m, m.importRide(*m.profile, m.list[m.cursor].ID)
		case "a":
			return m.addToJournal()
		case "esc":
			m.imported = nil
		}
	}
	return m, nil
}

// addToJournal adds the imported ride to whatever is already logged that day
func (m RidesModel) addToJournal() (tea.Model, tea.Cmd) {
	if m.imported == nil || m.profile == nil {
		return m, nil
	}
	date := m.imported.Date

	day, _, err := m.journal.Day(m.profile.Name, date)
	if err != nil {
		m.err = err
		return m, nil
	}
	res, err := m.journal.Record(*m.profile, service.MergeInputs(day, m.imported.Input), date)
	if err != nil {
		m.err = err
		return m, nil
	}
	if err := m.rides.MarkImported(m.imported.Activity.ID); err != nil {
		m.err = err
		return m, nil
	}

	m.status = fmt.Sprintf("Added %q to %s: TDEE %s",
		m.imported.Activity.Name, energy.DayKey(date), m.units.FormatEnergy(res.TDEE))
	m.imported = nil
	key := energy.DayKey(date)
	return m, func() tea.Msg { return EntrySavedMsg{Date: key} }
}

// View renders the ride import screen
func (m RidesModel) View() string {
	title := cardTitleStyle.Render("Strava Ride Import")

	if m.rides == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			"  Strava is not connected.",
			statusStyle.Render("  Add client_id and client_secret to the config, then run: energy strava login"))
	}
	if m.profile == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, "  Select a profile first (press 1).")
	}

	sections := []string{title}
	switch {
	case m.loading:
		sections = append(sections, "  Talking to Strava...")
	case m.imported != nil:
		sections = append(sections, m.renderImport())
	default:
		sections = append(sections, m.renderList())
	}

	if m.err != nil {
		sections = append(sections, errorStyle.Render("  Error: "+m.err.Error()))
	} else if m.status != "" {
		sections = append(sections, successStyle.Render("  "+m.status))
	}

	help := "r load rides  j/k move  enter bucket ride into zones"
	if m.imported != nil {
		help = "a add to journal  esc back"
	}
	sections = append(sections, statusStyle.Render(help))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RidesModel) renderList() string {
	if len(m.list) == 0 {
		return mutedStyle.Render("  No rides loaded. Press r to fetch your latest rides.")
	}

	lines := []string{tableHeaderStyle.Render(fmt.Sprintf("%-12s %-30s %9s %8s %8s", "Date", "Name", "Distance", "Time", "Avg W"))}
	for i, a := range m.list {
		avg := "-"
		if a.AverageWatts > 0 {
			avg = fmt.Sprintf("%.0f", a.AverageWatts)
		}
		row := fmt.Sprintf("%-12s %-30s %9s %8s %8s",
			a.Day(), truncate(a.Name, 30),
			fmt.Sprintf("%s km", humanize.FtoaWithDigits(a.Distance/1000, 1)),
			formatMinutes(a.MovingTime/60), avg)
		lines = append(lines, renderRow(row, i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m RidesModel) renderImport() string {
	r := m.imported
	lines := []string{
		RenderMetric("Ride", r.Activity.Name, r.Activity.Day()),
		"",
		tableHeaderStyle.Render(fmt.Sprintf("%-22s %8s %10s", "Zone", "Time", "Mean")),
	}
	for _, zt := range r.Zones {
		lines = append(lines, fmt.Sprintf("%-22s %8s %8.1f W",
			truncate(zt.Zone, 22), formatMinutes(zt.Seconds/service.SecondsPerMinute), zt.MeanW))
	}

	preview, err := m.journal.Preview(*m.profile, energy.DayInput{Minutes: r.Input.Minutes, WattOverrides: r.Input.WattOverrides}, r.Date)
	if err == nil {
		lines = append(lines, "", RenderMetric("Ride energy", m.units.FormatEnergy(preview.Training), "at measured power"))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
