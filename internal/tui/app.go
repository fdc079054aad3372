package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cyclist-energy/internal/config"
	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenProfile Screen = iota
	ScreenJournal
	ScreenHistory
	ScreenRides
	ScreenHelp
)

// Services bundles what the screens talk to. Rides is nil without Strava.
type Services struct {
	Journal  *service.JournalService
	Profiles *service.ProfileService
	Rides    *service.RideImportService
}

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	profile *energy.Profile // nil until a profile is opened
	journal JournalModel
	history HistoryModel
	rides   RidesModel
	help    HelpModel
	picker  ProfileModel

	svc   Services
	units Units

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates a new App. initial preselects a profile by name.
func NewApp(svc Services, display config.DisplayConfig, initial string) *App {
	units := NewUnits(display)
	return &App{
		screen:  ScreenProfile,
		svc:     svc,
		units:   units,
		picker:  NewProfileModel(svc.Profiles, svc.Journal, initial),
		journal: NewJournalModel(svc.Journal, units),
		history: NewHistoryModel(svc.Journal, units, 0, 0),
		rides:   NewRidesModel(svc.Rides, svc.Journal, units),
		help:    NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.picker.Init()
}

// capturing reports whether the active screen wants raw keystrokes
func (a *App) capturing() bool {
	switch a.screen {
	case ScreenProfile:
		return a.picker.Prompting()
	case ScreenJournal:
		return a.journal.Editing()
	}
	return false
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.capturing() {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "1":
				a.screen = ScreenProfile
				return a, nil
			case "2", "3", "4":
				if a.profile == nil {
					a.status = "Open a profile first"
					a.screen = ScreenProfile
					return a, nil
				}
				a.status = ""
				switch msg.String() {
				case "2":
					a.screen = ScreenJournal
				case "3":
					a.screen = ScreenHistory
					return a, a.history.Init()
				case "4":
					a.screen = ScreenRides
				}
				return a, nil
			case "?":
				if a.screen != ScreenHelp {
					a.prevScreen = a.screen
					a.screen = ScreenHelp
				}
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		m, cmd := a.history.Update(msg)
		a.history = m.(HistoryModel)
		return a, cmd

	case ProfileSelectedMsg:
		return a, a.openProfile(msg)

	case EntrySavedMsg:
		a.status = "Saved " + msg.Date
		var cmd tea.Cmd
		a.history, cmd = a.history.SetProfile(a.profile.Name)
		if a.screen == ScreenRides {
			// keep the journal in step with the ride just added
			var jcmd tea.Cmd
			a.journal, jcmd = a.journal.SetProfile(*a.profile)
			return a, tea.Batch(cmd, jcmd)
		}
		return a, cmd

	case profilesLoadedMsg:
		return a.updatePicker(msg)
	case dayLoadedMsg:
		m, cmd := a.journal.Update(msg)
		a.journal = m.(JournalModel)
		return a, cmd
	case historyLoadedMsg:
		m, cmd := a.history.Update(msg)
		a.history = m.(HistoryModel)
		return a, cmd
	case ridesLoadedMsg, rideImportedMsg:
		m, cmd := a.rides.Update(msg)
		a.rides = m.(RidesModel)
		return a, cmd
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenProfile:
		return a.updatePicker(msg)
	case ScreenJournal:
		var m tea.Model
		m, cmd = a.journal.Update(msg)
		a.journal = m.(JournalModel)
	case ScreenHistory:
		var m tea.Model
		m, cmd = a.history.Update(msg)
		a.history = m.(HistoryModel)
	case ScreenRides:
		var m tea.Model
		m, cmd = a.rides.Update(msg)
		a.rides = m.(RidesModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

func (a *App) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := a.picker.Update(msg)
	a.picker = m.(ProfileModel)
	return a, cmd
}

// openProfile hands the chosen profile to every screen
func (a *App) openProfile(msg ProfileSelectedMsg) tea.Cmd {
	p := msg.Profile
	a.profile = &p
	a.status = ""

	var jcmd, hcmd tea.Cmd
	a.journal, jcmd = a.journal.SetProfile(p)
	a.history, hcmd = a.history.SetProfile(p.Name)
	a.rides = a.rides.SetProfile(p)

	if msg.Switch {
		a.screen = ScreenJournal
	}
	return tea.Batch(jcmd, hcmd)
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenProfile:
		content = a.picker.View()
	case ScreenJournal:
		content = a.journal.View()
	case ScreenHistory:
		content = a.history.View()
	case ScreenRides:
		content = a.rides.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	title := "Cyclist Energy"
	if a.profile != nil {
		title += " · " + a.profile.Name
	}
	return headerStyle.Render(title)
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Profiles", ScreenProfile},
		{"2", "Journal", ScreenJournal},
		{"3", "History", ScreenHistory},
		{"4", "Rides", ScreenRides},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}
