package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasklist/internal/export"
	"github.com/sadopc/tasklist/internal/importer"
	"github.com/sadopc/tasklist/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	width     int
	height    int
	exportDir string
	now       func() time.Time

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	todos     todosModel
	tags      tagsModel
	reports   reportsModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

type appConfig struct {
	loc       *time.Location
	exportDir string
	now       func() time.Time
}

// Option configures an App.
type Option func(*appConfig)

// WithLocation sets the zone used for dates typed into new todos.
func WithLocation(loc *time.Location) Option {
	return func(c *appConfig) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithExportDir sets where exports are written. Defaults to the home directory.
func WithExportDir(dir string) Option {
	return func(c *appConfig) { c.exportDir = dir }
}

// WithClock replaces time.Now for every view.
func WithClock(now func() time.Time) Option {
	return func(c *appConfig) {
		if now != nil {
			c.now = now
		}
	}
}

func NewApp(s *store.Store, opts ...Option) App {
	cfg := appConfig{loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.exportDir == "" {
		cfg.exportDir, _ = os.UserHomeDir()
	}

	h := help.New()
	h.ShowAll = false

	parser := importer.NewParser(importer.NewReconciler(s),
		importer.WithLocation(cfg.loc),
		importer.WithClock(cfg.now),
	)

	a := App{
		store:      s,
		exportDir:  cfg.exportDir,
		now:        cfg.now,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(s),
		todos:      newTodosModel(s, parser),
		tags:       newTagsModel(s),
		reports:    newReportsModel(s),
		settings:   newSettingsModel(s),
		help:       h,
	}
	a.dashboard.now = cfg.now
	a.reports.now = cfg.now
	return a
}

func (a App) Init() tea.Cmd {
	return a.dashboard.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.todos.setSize(a.width, contentHeight)
		a.tags.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.reports.buildChart()
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewTodos)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewTags)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewReports)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case todoSavedMsg:
		a.status = msg.text
		a.statusError = false
		return a, a.refreshAll()

	case tagSelectedMsg:
		a.todos.tagFilter = msg.name
		a.todos.cursor = 0
		a.todos.detail = false
		a.activeView = viewTodos
		return a, a.todos.refresh()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil

	// Data messages go to their owner even after the user has switched away.
	case dashboardDataMsg:
		a.dashboard, _ = a.dashboard.update(msg)
		return a, nil
	case todosDataMsg:
		a.todos, _ = a.todos.update(msg)
		return a, nil
	case tagsDataMsg:
		a.tags, _ = a.tags.update(msg)
		return a, nil
	case reportsDataMsg:
		a.reports, _ = a.reports.update(msg)
		return a, nil
	case settingsDataMsg:
		a.settings, _ = a.settings.update(msg)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTodos:
		a.todos, cmd = a.todos.update(msg)
	case viewTags:
		a.tags, cmd = a.tags.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTodos:
		return a.todos.formActive
	case viewTags:
		return a.tags.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewTodos:
		return a.todos.refresh()
	case viewTags:
		return a.tags.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

// refreshAll reloads every view after a write.
func (a App) refreshAll() tea.Cmd {
	return tea.Batch(
		a.dashboard.loadData(),
		a.todos.refresh(),
		a.tags.refresh(),
		a.reports.refresh(),
	)
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTodos:
		content = a.todos.view()
	case viewTags:
		content = a.tags.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tasklist")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(status)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range export.Formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+strings.ToUpper(f)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  "+a.exportDir))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(export.Formats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(export.Formats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// exportPath names the export file for format on the current day.
func (a App) exportPath(format string) string {
	return filepath.Join(a.exportDir, fmt.Sprintf("tasklist-export-%s.%s", a.now().Format("2006-01-02"), format))
}

func (a App) doExport(format string) tea.Cmd {
	path := a.exportPath(format)
	return func() tea.Msg {
		todos, err := a.store.ListTodos(store.TodoFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		tags, _ := a.store.ListTags()

		if err := export.Write(format, todos, export.TagIndex(tags), path); err != nil {
			return statusMsg{text: fmt.Sprintf("%s error: %v", strings.ToUpper(format), err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
