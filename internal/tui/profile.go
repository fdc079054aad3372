package tui

import (
	"errors"
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

// promptKind says what the profile screen's text prompt is collecting
type promptKind int

const (
	promptNone promptKind = iota
	promptPIN
	promptNewName
	promptWeight
	promptHeight
	promptBirth
	promptBMR
)

var promptLabels = map[promptKind]string{
	promptPIN:     "PIN: ",
	promptNewName: "New profile name: ",
	promptWeight:  "Weight (kg): ",
	promptHeight:  "Height (cm): ",
	promptBirth:   "Birth date (YYYY-MM-DD, blank for unknown): ",
	promptBMR:     "Manual BMR (kcal/day, blank to use the formula): ",
}

// ProfileModel lists profiles, unlocks one and edits its attributes
type ProfileModel struct {
	profiles *service.ProfileService
	journal  *service.JournalService
	names    []string
	cursor   int
	current  *energy.Profile
	initial  string

	prompt promptKind
	input  textinput.Model

	today  time.Time
	status string
	err    error
}

// NewProfileModel creates a new profile model. initial preselects a profile
// when it is not PIN protected.
func NewProfileModel(ps *service.ProfileService, js *service.JournalService, initial string) ProfileModel {
	ti := textinput.New()
	ti.CharLimit = 40
	ti.Width = 30

	return ProfileModel{
		profiles: ps,
		journal:  js,
		initial:  initial,
		input:    ti,
		today:    js.Today(),
	}
}

// ProfileSelectedMsg is sent when a profile is unlocked or edited
type ProfileSelectedMsg struct {
	Profile energy.Profile
	Switch  bool // move to the journal screen
}

type profilesLoadedMsg struct {
	names []string
	err   error
}

// Init initializes the profile screen
func (m ProfileModel) Init() tea.Cmd {
	return m.loadNames
}

func (m ProfileModel) loadNames() tea.Msg {
	names, err := m.profiles.List()
	return profilesLoadedMsg{names: names, err: err}
}

// Prompting reports whether keystrokes go to the text prompt
func (m ProfileModel) Prompting() bool {
	return m.prompt != promptNone
}

// Update handles messages
func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case profilesLoadedMsg:
		m.err = msg.err
		m.names = msg.names
		if m.cursor >= len(m.names) {
			m.cursor = max(len(m.names)-1, 0)
		}
		if m.initial != "" {
			name := m.initial
			m.initial = ""
			for i, n := range m.names {
				if n == name {
					m.cursor = i
					return m.selectCurrent()
				}
			}
		}

	case tea.KeyMsg:
		if m.Prompting() {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m ProfileModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	m.err = nil

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "enter":
		return m.selectCurrent()
	case "n":
		return m.openPrompt(promptNewName, "")
	case "r":
		return m, m.loadNames
	}

	// Editing keys need an unlocked profile
	if m.current == nil {
		return m, nil
	}
	p := m.current.Clone()

	switch msg.String() {
	case "p":
		p.PAL = energy.NextPAL(p.PAL)
		return m.save(p)
	case "f":
		if p.Formula == energy.FormulaMifflin {
			p.Formula = energy.FormulaTenHaaf
		} else {
			p.Formula = energy.FormulaMifflin
		}
		return m.save(p)
	case "x":
		if p.Sex.IsMale() {
			p.Sex = energy.SexFemale
		} else {
			p.Sex = energy.SexMale
		}
		return m.save(p)
	case "w":
		return m.openPrompt(promptWeight, strconv.FormatFloat(p.WeightKg, 'f', -1, 64))
	case "h":
		return m.openPrompt(promptHeight, strconv.FormatFloat(p.HeightCm, 'f', -1, 64))
	case "b":
		birth := ""
		if !p.Birth.IsZero() {
			birth = energy.DayKey(p.Birth)
		}
		return m.openPrompt(promptBirth, birth)
	case "m":
		bmr := ""
		if p.BMRManual != nil && *p.BMRManual > 0 {
			bmr = strconv.FormatFloat(*p.BMRManual, 'f', -1, 64)
		}
		return m.openPrompt(promptBMR, bmr)
	}
	return m, nil
}

func (m ProfileModel) openPrompt(kind promptKind, value string) (tea.Model, tea.Cmd) {
	m.prompt = kind
	m.input.Prompt = promptLabels[kind]
	m.input.SetValue(value)
	m.input.CursorEnd()
	if kind == promptPIN {
		m.input.EchoMode = textinput.EchoPassword
		m.input.CharLimit = 4
	} else {
		m.input.EchoMode = textinput.EchoNormal
		m.input.CharLimit = 40
	}
	cmd := m.input.Focus()
	return m, cmd
}

func (m ProfileModel) closePrompt() ProfileModel {
	m.prompt = promptNone
	m.input.Blur()
	m.input.SetValue("")
	return m
}

func (m ProfileModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closePrompt(), nil
	case "enter":
		kind, value := m.prompt, strings.TrimSpace(m.input.Value())
		m = m.closePrompt()
		return m.submit(kind, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ProfileModel) submit(kind promptKind, value string) (tea.Model, tea.Cmd) {
	switch kind {
	case promptPIN:
		return m.unlock(value)

	case promptNewName:
		p, err := m.profiles.Create(value)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.current = &p
		m.status = fmt.Sprintf("Created %s", p.Name)
		return m, tea.Batch(m.loadNames, selected(p, false))
	}

	if m.current == nil {
		return m, nil
	}
	p := m.current.Clone()

	switch kind {
	case promptWeight, promptHeight:
		v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
		if err != nil || v <= 0 {
			m.err = fmt.Errorf("%q is not a positive number", value)
			return m, nil
		}
		if kind == promptWeight {
			p.WeightKg = v
		} else {
			p.HeightCm = v
		}
	case promptBirth:
		if value == "" {
			p.Birth = time.Time{}
			break
		}
		t, err := time.Parse(energy.DateLayout, value)
		if err != nil {
			m.err = fmt.Errorf("birth date must look like 1990-06-15")
			return m, nil
		}
		p.Birth = t
	case promptBMR:
		if value == "" || value == "0" {
			p.BMRManual = nil
			break
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < 0 {
			m.err = fmt.Errorf("%q is not a valid BMR", value)
			return m, nil
		}
		p.BMRManual = energy.Float(v)
	}
	return m.save(p)
}

func (m ProfileModel) selectCurrent() (tea.Model, tea.Cmd) {
	if len(m.names) == 0 {
		return m, nil
	}
	return m.unlock("")
}

// unlock opens the profile under the cursor, prompting for the PIN when needed
func (m ProfileModel) unlock(pin string) (tea.Model, tea.Cmd) {
	name := m.names[m.cursor]
	p, err := m.journal.Unlock(name, pin)
	if errors.Is(err, service.ErrPINMismatch) {
		if pin != "" {
			m.err = err
			return m, nil
		}
		return m.openPrompt(promptPIN, "")
	}
	if err != nil {
		m.err = err
		return m, nil
	}

	m.current = &p
	m.status = fmt.Sprintf("Using %s", p.Name)
	return m, selected(p, true)
}

func (m ProfileModel) save(p energy.Profile) (tea.Model, tea.Cmd) {
	saved, err := m.profiles.Update(p)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.current = &saved
	m.status = "Saved"
	return m, selected(saved, false)
}

func selected(p energy.Profile, switchScreen bool) tea.Cmd {
	return func() tea.Msg {
		return ProfileSelectedMsg{Profile: p, Switch: switchScreen}
	}
}

// View renders the profile screen
func (m ProfileModel) View() string {
	list := m.renderList()

	var right string
	if m.current != nil {
		right = lipgloss.JoinVertical(lipgloss.Left, m.renderDetails(), m.renderZones())
	} else {
		right = mutedStyle.Render("Select a profile with enter, or press n to create one.")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", right)
	sections := []string{body}

	if m.Prompting() {
		sections = append(sections, "", "  "+m.input.View())
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render("  Error: "+m.err.Error()))
	} else if m.status != "" {
		sections = append(sections, successStyle.Render("  "+m.status))
	}

	help := "j/k move  enter select  n new"
	if m.current != nil {
		help += "  p PAL  f formula  x sex  w weight  h height  b birth  m manual BMR"
	}
	sections = append(sections, statusStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ProfileModel) renderList() string {
	lines := []string{cardTitleStyle.Render("Profiles")}
	if len(m.names) == 0 {
		lines = append(lines, mutedStyle.Render("No profiles yet"))
	}
	for i, name := range m.names {
		marker := "  "
		if m.current != nil && m.current.Name == name {
			marker = "● "
		}
		lines = append(lines, renderRow(fmt.Sprintf("%s%-20s", marker, name), i == m.cursor))
	}
	return cardStyle.Width(28).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m ProfileModel) renderDetails() string {
	p := *m.current
	bmr, source := energy.ResolveBMR(p, m.today)

	birth := "unknown"
	age := energy.ProfileAge(p, m.today)
	if !p.Birth.IsZero() {
		birth = energy.DayKey(p.Birth)
	}

	sex := "Male"
	if !p.Sex.IsMale() {
		sex = "Female"
	}

	bmrNote := p.Formula.Label()
	if source == energy.BMRManual {
		bmrNote = "manual"
	}

	lock := ""
	if p.HasPIN() {
		lock = " (PIN)"
	}

	lines := []string{
		cardTitleStyle.Render(p.Name + lock),
		RenderMetric("Sex", sex, ""),
		RenderMetric("Birth", birth, fmt.Sprintf("age %d", age)),
		RenderMetric("Height", fmt.Sprintf("%g cm", p.HeightCm), ""),
		RenderMetric("Weight", fmt.Sprintf("%g kg", p.WeightKg), ""),
		RenderMetric("BMR", fmt.Sprintf("%.1f kcal", bmr), bmrNote),
		RenderMetric("PAL", energy.PALLabel(p.PAL), ""),
	}
	return cardStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m ProfileModel) renderZones() string {
	lines := []string{
		cardTitleStyle.Render("Zones"),
		tableHeaderStyle.Render(fmt.Sprintf("%-22s %9s %9s %9s %6s", "Zone", "Min", "Max", "Mean", "Eff")),
	}
	for _, z := range m.current.Zones {
		eff := "-"
		if z.Eff != nil {
			eff = fmt.Sprintf("%.3f", *z.Eff)
		}
		lines = append(lines, fmt.Sprintf("%-22s %9s %9s %9s %6s",
			truncate(z.Name, 22), formatWatts(z.MinW), formatWatts(z.MaxW), formatWatts(z.MeanW), eff))
	}
	return cardStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
