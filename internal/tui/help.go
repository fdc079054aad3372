package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Keyboard Shortcuts"),
		m.renderSection("Navigation", []keyHelp{
			{"1", "Profiles"},
			{"2", "Journal (needs a profile)"},
			{"3", "History"},
			{"4", "Strava rides"},
			{"?", "Help (this screen)"},
			{"q", "Quit"},
			{"esc", "Back / close help"},
		}),
		m.renderSection("Profiles", []keyHelp{
			{"j / k", "Move cursor"},
			{"enter", "Open profile (asks for the PIN if set)"},
			{"n", "New profile"},
			{"p / f / x", "Cycle PAL, formula, sex"},
			{"w / h / b / m", "Edit weight, height, birth date, manual BMR"},
		}),
		m.renderSection("Journal", []keyHelp{
			{"enter / e", "Edit minutes in the zone"},
			{"w", "Override mean power for the day"},
			{"tab", "Minutes then power"},
			{"p", "Cycle the day's PAL"},
			{"← / →", "Previous / next day"},
			{"t", "Jump to today"},
			{"ctrl+s", "Save the day"},
		}),
		m.renderSection("Strava Rides", []keyHelp{
			{"r", "Load recent rides"},
			{"enter", "Split the ride's power into zones"},
			{"a", "Add the ride to the journal"},
		}),
		m.renderTermsHelp(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	lines := []string{"", sectionStyle.Render(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func (m HelpModel) renderTermsHelp() string {
	lines := []string{"", sectionStyle.Render("Terms"), ""}

	terms := []struct {
		name string
		desc string
	}{
		{"BMR", "Resting energy. Manual value or Ten Haaf / Mifflin-St Jeor from sex, weight, height and age."},
		{"PAL", "Physical activity level of the day outside training. Base = BMR × PAL."},
		{"Training", "Mechanical work per zone (power × time) divided by gross efficiency, in kcal."},
		{"TDEE", "Total daily energy expenditure = Base + Training."},
	}
	for _, t := range terms {
		lines = append(lines, "  "+helpKeyStyle.Render(t.name))
		lines = append(lines, "  "+mutedStyle.Render(t.desc))
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
