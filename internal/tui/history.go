package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
)

// HistoryModel shows a profile's diary: summary, TDEE chart and a table
type HistoryModel struct {
	journal  *service.JournalService
	units    Units
	profile  string
	entries  []energy.DiaryEntry
	recent   []energy.DiaryEntry
	summary  service.Summary
	viewport viewport.Model
	loading  bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewHistoryModel creates a new history model
func NewHistoryModel(js *service.JournalService, units Units, width, height int) HistoryModel {
	m := HistoryModel{
		journal: js,
		units:   units,
		width:   width,
		height:  height,
	}
	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}
	return m
}

type historyLoadedMsg struct {
	profile string
	entries []energy.DiaryEntry
	recent  []energy.DiaryEntry
	summary service.Summary
	err     error
}

// SetProfile switches to a profile and reloads
func (m HistoryModel) SetProfile(name string) (HistoryModel, tea.Cmd) {
	m.profile = name
	m.loading = true
	return m, m.load
}

// Init initializes the history screen
func (m HistoryModel) Init() tea.Cmd {
	if m.profile == "" {
		return nil
	}
	return m.load
}

func (m HistoryModel) load() tea.Msg {
	entries, err := m.journal.History(m.profile)
	if err != nil {
		return historyLoadedMsg{profile: m.profile, err: err}
	}
	recent, err := m.journal.Recent(m.profile, service.HistoryChartDays)
	if err != nil {
		return historyLoadedMsg{profile: m.profile, err: err}
	}
	summary, err := m.journal.Summary(m.profile)
	return historyLoadedMsg{profile: m.profile, entries: entries, recent: recent, summary: summary, err: err}
}

// Update handles messages
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.profile != m.profile {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.entries = msg.entries
		m.recent = msg.recent
		m.summary = msg.summary
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.entries != nil {
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			if m.profile != "" {
				m.loading = true
				return m, m.load
			}
		}
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the history screen
func (m HistoryModel) View() string {
	if m.profile == "" {
		return "\n  Select a profile first (press 1)."
	}
	if m.loading {
		return "\n  Loading history..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if len(m.entries) == 0 {
		return "\n  No diary entries yet. Record a day on the journal screen (press 2)."
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	help := statusStyle.Render("↑/↓ scroll  r refresh")
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), help)
}

func (m HistoryModel) renderContent() string {
	if len(m.entries) == 0 {
		return ""
	}
	sections := []string{m.renderSummary()}
	if chart := m.renderChart(); chart != "" {
		sections = append(sections, chart)
	}
	sections = append(sections, m.renderTable())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m HistoryModel) renderSummary() string {
	s := m.summary
	lines := []string{
		cardTitleStyle.Render(m.profile),
		RenderMetric("Days logged", fmt.Sprintf("%d", s.Days), fmt.Sprintf("%s → %s", s.First, s.Last)),
		RenderMetric("Average TDEE", m.units.FormatEnergy(s.AvgTDEE), ""),
		RenderMetric("Avg training", m.units.FormatEnergy(s.AvgTraining), ""),
		RenderMetric("Total training", m.units.FormatEnergy(s.TotalTraining), ""),
		RenderMetric("Last 7 days", m.units.FormatEnergy(s.WeekTraining), "training"),
		RenderMetric("Highest TDEE", m.units.FormatEnergy(s.MaxTDEE), s.MaxTDEEDate),
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m HistoryModel) renderChart() string {
	if len(m.recent) < 2 {
		return ""
	}
	data := make([]float64, len(m.recent))
	for i, e := range m.recent {
		data[i] = float64(m.units.Value(e.TDEE))
	}

	width := m.width - 14
	if width < 20 {
		width = 40
	}
	chart := asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.Caption(fmt.Sprintf("TDEE (%s), last %d days", m.units.Label(), service.HistoryChartDays)),
	)
	return "\n" + chart + "\n"
}

func (m HistoryModel) renderTable() string {
	header := fmt.Sprintf("%-32s %6s %9s %9s %9s %9s", "Date", "PAL", "BMR", "Base", "Training", "TDEE")
	lines := []string{tableHeaderStyle.Render(header)}

	// newest first
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		lines = append(lines, fmt.Sprintf("%-32s %6g %9d %9d %9d %9d",
			m.units.FormatKey(e.Date), e.PAL,
			m.units.Value(e.BMR), m.units.Value(e.Base), m.units.Value(e.TrainingKcal), m.units.Value(e.TDEE)))
	}
	return "\n" + strings.Join(lines, "\n")
}
