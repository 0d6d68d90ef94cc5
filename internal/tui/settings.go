package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasklist/internal/store"
)

var settingLabels = map[string]string{
	"show_cancelled": "Show cancelled todos",
	"recent_limit":   "Recent todos on dashboard",
	"report_days":    "Days in daily report",
	"week_start":     "Week starts on",
}

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	showCancelled *bool
	recentLimit   *string
	reportDays    *string
	weekStart     *string
}

func newSettingsModel(s *store.Store) settingsModel {
	sc := true
	rl, rd, ws := "", "", ""
	return settingsModel{
		store:         s,
		showCancelled: &sc,
		recentLimit:   &rl,
		reportDays:    &rd,
		weekStart:     &ws,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

// positiveInt validates a whole number between 1 and limit.
func positiveInt(limit int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > limit {
			return fmt.Errorf("enter a number from 1 to %d", limit)
		}
		return nil
	}
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.showCancelled = s.store.SettingBool("show_cancelled", true)
	*s.recentLimit = strconv.Itoa(s.store.SettingInt("recent_limit", 8))
	*s.reportDays = strconv.Itoa(s.store.SettingInt("report_days", 7))
	*s.weekStart = s.getVal("week_start", "monday")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(settingLabels["show_cancelled"]).Value(s.showCancelled),
			huh.NewInput().Title(settingLabels["recent_limit"]).Value(s.recentLimit).Validate(positiveInt(50)),
		).Title("Todos"),
		huh.NewGroup(
			huh.NewInput().Title(settingLabels["report_days"]).Value(s.reportDays).Validate(positiveInt(31)),
			huh.NewSelect[string]().Title(settingLabels["week_start"]).
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
		).Title("Reports"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, tea.Batch(s.refresh(), statusCmd(fmt.Sprintf("Error: %v", err), true))
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return todoSavedMsg{text: "Settings saved"} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	return errors.Join(
		s.store.SetSetting("show_cancelled", strconv.FormatBool(*s.showCancelled)),
		s.store.SetSetting("recent_limit", *s.recentLimit),
		s.store.SetSetting("report_days", *s.reportDays),
		s.store.SetSetting("week_start", *s.weekStart),
	)
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		name, ok := settingLabels[setting.Key]
		if !ok {
			name = setting.Key
		}
		label := lipgloss.NewStyle().Width(30).Render(name)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "show_cancelled":
		if b, err := strconv.ParseBool(v); err == nil {
			if b {
				return "yes"
			}
			return "no"
		}
	case "report_days":
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d days", n)
		}
	case "week_start":
		if v == "sunday" {
			return "Sunday"
		}
		return "Monday"
	}
	return v
}
