package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
)

// editField is the column being edited on the journal screen
type editField int

const (
	editNone editField = iota
	editMinutes
	editWatts
)

// JournalModel edits one day: minutes per zone, optional mean power per
// zone and the day's PAL, with a live estimate
type JournalModel struct {
	journal *service.JournalService
	units   Units
	profile *energy.Profile

	date    time.Time
	input   energy.DayInput
	stored  bool // an entry exists for date
	dirty   bool
	preview energy.DayResult

	cursor int
	field  editField
	editor textinput.Model

	status string
	err    error
}

// NewJournalModel creates a new journal model
func NewJournalModel(js *service.JournalService, units Units) JournalModel {
	ti := textinput.New()
	ti.CharLimit = 7
	ti.Width = 8

	return JournalModel{
		journal: js,
		units:   units,
		date:    js.Today(),
		editor:  ti,
	}
}

// EntrySavedMsg is sent after a day is recorded
type EntrySavedMsg struct {
	Date string
}

type dayLoadedMsg struct {
	date   time.Time
	input  energy.DayInput
	stored bool
	err    error
}

// SetProfile switches the journal to p and reloads the current day
func (m JournalModel) SetProfile(p energy.Profile) (JournalModel, tea.Cmd) {
	sameProfile := m.profile != nil && m.profile.Name == p.Name
	m.profile = &p
	if sameProfile && m.dirty {
		// Zones or PAL changed; keep unsaved input
		m.recompute()
		return m, nil
	}
	return m, m.loadDay(m.date)
}

// Editing reports whether keystrokes go to the cell editor
func (m JournalModel) Editing() bool {
	return m.field != editNone
}

func (m JournalModel) loadDay(date time.Time) tea.Cmd {
	if m.profile == nil {
		return nil
	}
	name := m.profile.Name
	return func() tea.Msg {
		in, ok, err := m.journal.Day(name, date)
		return dayLoadedMsg{date: date, input: in, stored: ok, err: err}
	}
}

// Init initializes the journal screen
func (m JournalModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m JournalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dayLoadedMsg:
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.date = msg.date
		m.input = msg.input
		m.stored = msg.stored
		m.dirty = false
		m.recompute()

	case tea.KeyMsg:
		if m.profile == nil {
			return m, nil
		}
		if m.Editing() {
			return m.updateEditor(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m JournalModel) zones() []energy.Zone {
	if m.profile == nil {
		return nil
	}
	return m.preview.Zones
}

func (m JournalModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	zones := m.zones()

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(zones)-1 {
			m.cursor++
		}
	case "enter", "e":
		return m.startEdit(editMinutes)
	case "w":
		return m.startEdit(editWatts)
	case "p":
		pal := m.input.PAL
		if pal == 0 {
			pal = m.profile.PAL
		}
		m.input.PAL = energy.NextPAL(pal)
		m.dirty = true
		m.recompute()
	case "left", "[":
		return m, m.loadDay(m.date.AddDate(0, 0, -1))
	case "right", "]":
		return m, m.loadDay(m.date.AddDate(0, 0, 1))
	case "t":
		return m, m.loadDay(m.journal.Today())
	case "ctrl+s":
		return m.save()
	}
	return m, nil
}

func (m JournalModel) startEdit(field editField) (tea.Model, tea.Cmd) {
	zones := m.zones()
	if len(zones) == 0 {
		return m, nil
	}
	name := zones[m.cursor].Name

	m.field = field
	m.editor.SetValue("")
	switch field {
	case editMinutes:
		m.editor.Prompt = "min: "
		if v, ok := m.input.Minutes[name]; ok && v > 0 {
			m.editor.SetValue(strconv.Itoa(v))
		}
	case editWatts:
		m.editor.Prompt = "W: "
		if v, ok := m.input.WattOverrides[name]; ok && v > 0 {
			m.editor.SetValue(strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	m.editor.CursorEnd()
	cmd := m.editor.Focus()
	return m, cmd
}

func (m JournalModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.field = editNone
		m.editor.Blur()
		return m, nil
	case "enter", "tab":
		next := msg.String() == "tab" && m.field == editMinutes
		if err := m.commitEdit(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.field = editNone
		m.editor.Blur()
		m.recompute()
		if next {
			return m.startEdit(editWatts)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// commitEdit parses the editor value into the day input. Blank clears.
func (m *JournalModel) commitEdit() error {
	name := m.zones()[m.cursor].Name
	value := strings.TrimSpace(strings.ReplaceAll(m.editor.Value(), ",", "."))

	if m.input.Minutes == nil {
		m.input.Minutes = make(map[string]int)
	}
	if m.input.WattOverrides == nil {
		m.input.WattOverrides = make(map[string]float64)
	}

	switch m.field {
	case editMinutes:
		if value == "" {
			delete(m.input.Minutes, name)
			break
		}
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fmt.Errorf("minutes must be a whole number, got %q", value)
		}
		m.input.Minutes[name] = v
	case editWatts:
		if value == "" {
			delete(m.input.WattOverrides, name)
			break
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("power must be a number of watts, got %q", value)
		}
		m.input.WattOverrides[name] = v
	}
	m.dirty = true
	return nil
}

func (m *JournalModel) recompute() {
	if m.profile == nil {
		return
	}
	res, err := m.journal.Preview(*m.profile, m.input, m.date)
	if err != nil {
		m.err = err
		return
	}
	m.preview = res
	if m.cursor >= len(res.Zones) {
		m.cursor = max(len(res.Zones)-1, 0)
	}
}

func (m JournalModel) save() (tea.Model, tea.Cmd) {
	res, err := m.journal.Record(*m.profile, m.input, m.date)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.preview = res
	m.stored = true
	m.dirty = false
	m.status = fmt.Sprintf("Saved %s: TDEE %s", energy.DayKey(m.date), m.units.FormatEnergy(res.TDEE))

	key := energy.DayKey(m.date)
	return m, func() tea.Msg { return EntrySavedMsg{Date: key} }
}

// View renders the journal screen
func (m JournalModel) View() string {
	if m.profile == nil {
		return "\n  Select a profile first (press 1)."
	}

	state := mutedStyle.Render("new entry")
	if m.stored {
		state = mutedStyle.Render("saved entry")
	}
	if m.dirty {
		state = warningStyle.Render("unsaved changes")
	}
	title := cardTitleStyle.Render(fmt.Sprintf("%s · %s", m.profile.Name, m.units.FormatDay(m.date))) + "  " + state

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderZones(), "  ", m.renderTotals())
	sections := []string{title, body}

	if m.Editing() {
		sections = append(sections, "", "  "+m.zones()[m.cursor].Name+"  "+m.editor.View())
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render("  Error: "+m.err.Error()))
	} else if m.status != "" {
		sections = append(sections, successStyle.Render("  "+m.status))
	}

	sections = append(sections, statusStyle.Render(
		"j/k zone  enter minutes  w power  tab next  p PAL  ←/→ day  t today  ctrl+s save"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m JournalModel) renderZones() string {
	lines := []string{
		tableHeaderStyle.Render(fmt.Sprintf("%-22s %8s %10s %9s", "Zone", "Time", "Power", m.units.Label())),
	}

	kcal := make(map[string]int, len(m.preview.Breakdown))
	for _, zk := range m.preview.Breakdown {
		kcal[zk.Name] = zk.Kcal
	}

	for i, z := range m.preview.Zones {
		minutes := "-"
		if v := m.input.Minutes[z.Name]; v > 0 {
			minutes = formatMinutes(v)
		}
		power := "-"
		if w, ok := z.RepresentativePower(); ok {
			power = fmt.Sprintf("%.0f W", w)
			if v, ok := m.input.WattOverrides[z.Name]; ok && v > 0 {
				power += "*"
			}
		}
		energyCol := "-"
		if v, ok := kcal[z.Name]; ok {
			energyCol = strconv.Itoa(m.units.Value(v))
		}
		row := fmt.Sprintf("%-22s %8s %10s %9s", truncate(z.Name, 22), minutes, power, energyCol)
		lines = append(lines, renderRow(row, i == m.cursor))
	}
	lines = append(lines, mutedStyle.Render("* power overridden for this day"))
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m JournalModel) renderTotals() string {
	r := m.preview
	bmrNote := r.Formula.Label()
	if r.Source == energy.BMRManual {
		bmrNote = "manual"
	}

	total := 0
	for _, v := range r.Minutes {
		total += v
	}

	lines := []string{
		cardTitleStyle.Render("Estimate"),
		RenderMetric("BMR", m.units.FormatEnergy(int(r.BMR+0.5)), bmrNote),
		RenderMetric("PAL", energy.PALLabel(r.PAL), ""),
		RenderMetric("Base", m.units.FormatEnergy(r.Base), "BMR × PAL"),
		RenderMetric("Training", m.units.FormatEnergy(r.Training), formatMinutes(total)),
		RenderMetric("TDEE", m.units.FormatEnergy(r.TDEE), ""),
	}
	return cardStyle.Width(48).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
