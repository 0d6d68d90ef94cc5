package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasklist/internal/store"
)

type dashboardModel struct {
	store  *store.Store
	width  int
	height int
	now    func() time.Time

	counts         []store.StatusCount
	completedToday int
	recent         []store.TodoItem
	tagColors      map[string]string
}

func newDashboardModel(s *store.Store) dashboardModel {
	return dashboardModel{store: s, now: time.Now}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	counts         []store.StatusCount
	completedToday int
	recent         []store.TodoItem
	tagColors      map[string]string
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		counts, _ := d.store.CountByStatus()

		now := d.now().UTC()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		today := 0
		if days, err := d.store.CompletionsByDay(dayStart, dayStart.Add(24*time.Hour)); err == nil {
			for _, day := range days {
				today += day.Count
			}
		}

		limit := d.store.SettingInt("recent_limit", 8)
		recent, _ := d.store.ListTodos(store.TodoFilter{Limit: limit})

		colors := make(map[string]string)
		tags, _ := d.store.ListTags()
		for _, t := range tags {
			colors[t.Name] = t.Color
		}

		return dashboardDataMsg{
			counts:         counts,
			completedToday: today,
			recent:         recent,
			tagColors:      colors,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.counts = msg.counts
		d.completedToday = msg.completedToday
		d.recent = msg.recent
		d.tagColors = msg.tagColors
		return d, nil
	}
	return d, nil
}

func (d dashboardModel) count(s store.Status) int {
	for _, c := range d.counts {
		if c.Status == s {
			return c.Count
		}
	}
	return 0
}

func (d dashboardModel) total() int {
	n := 0
	for _, c := range d.counts {
		n += c.Count
	}
	return n
}

// completionRate is done / (total - cancelled), in percent.
func (d dashboardModel) completionRate() int {
	open := d.total() - d.count(store.StatusCancelled)
	if open <= 0 {
		return 0
	}
	return d.count(store.StatusDone) * 100 / open
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderStatsPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d dashboardModel) renderStatsPanel(w int) string {
	type stat struct {
		label string
		value string
	}
	stats := []stat{
		{"Todo", fmt.Sprint(d.count(store.StatusTodo))},
		{"In progress", fmt.Sprint(d.count(store.StatusInProgress))},
		{"Done", fmt.Sprint(d.count(store.StatusDone))},
		{"Cancelled", fmt.Sprint(d.count(store.StatusCancelled))},
		{"Done today", fmt.Sprint(d.completedToday)},
		{"Completion", fmt.Sprintf("%d%%", d.completionRate())},
	}

	cellWidth := max((w-6)/len(stats), 10)
	var cells []string
	for _, s := range stats {
		cells = append(cells, lipgloss.JoinVertical(lipgloss.Center,
			statValueStyle.Width(cellWidth).Render(s.value),
			statLabelStyle.Width(cellWidth).Render(s.label),
		))
	}

	header := fmt.Sprintf("%s  %s", titleStyle.Render("Overview"), mutedStyle.Render(fmt.Sprintf("%d todos", d.total())))
	content := lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, cells...),
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Todos")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No todos yet. Press 2 and n to add one, or run `tasklist import --seed`."),
		)
		return panelStyle.Width(w).Render(content)
	}

	now := d.now()
	titleWidth := max(w-40, 16)
	var rows []string
	rows = append(rows, title)
	for _, t := range d.recent {
		var tags []string
		for _, name := range t.Tags {
			color, ok := d.tagColors[name]
			if !ok {
				color = store.DefaultTagColor
			}
			tags = append(tags, colorDot(color)+" "+name)
		}
		row := fmt.Sprintf("  %s %s %s %s  %s",
			statusIcon(t.Status),
			priorityMark(t.Priority),
			pad(truncate(t.Title, titleWidth), titleWidth),
			mutedStyle.Render(pad(formatAge(t.CreatedAt, now), 10)),
			strings.Join(tags, " "),
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
