package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasklist/internal/store"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

type reportsModel struct {
	store  *store.Store
	width  int
	height int
	now    func() time.Time

	mode      reportMode
	days      int          // length of the daily window
	weekStart time.Weekday // first day of a weekly window
	offset    int          // windows back from today (0 = current)

	completions []store.DailyCompletions
	byTag       []tagCount

	chart barchart.Model
}

type tagCount struct {
	name  string
	color string
	count int
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store:     s,
		now:       time.Now,
		days:      7,
		weekStart: time.Monday,
		chart:     barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	days        int
	weekStart   time.Weekday
	completions []store.DailyCompletions
	byTag       []tagCount
}

func parseWeekStart(v string) time.Weekday {
	if strings.EqualFold(v, "sunday") {
		return time.Sunday
	}
	return time.Monday
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		r.days = max(r.store.SettingInt("report_days", 7), 1)
		ws, _ := r.store.GetSetting("week_start")
		r.weekStart = parseWeekStart(ws)

		from, to := r.dateRange()
		completions, _ := r.store.CompletionsByDay(from, to)
		return reportsDataMsg{
			days:        r.days,
			weekStart:   r.weekStart,
			completions: completions,
			byTag:       r.doneByTag(from, to),
		}
	}
}

// doneByTag counts items completed in [from, to) per tag, busiest first.
func (r reportsModel) doneByTag(from, to time.Time) []tagCount {
	done := store.StatusDone
	todos, err := r.store.ListTodos(store.TodoFilter{Status: &done})
	if err != nil {
		return nil
	}
	colors := make(map[string]string)
	tags, _ := r.store.ListTags()
	for _, t := range tags {
		colors[t.Name] = t.Color
	}

	counts := make(map[string]int)
	for _, t := range todos {
		if t.CompletedAt == nil || t.CompletedAt.Before(from) || !t.CompletedAt.Before(to) {
			continue
		}
		if len(t.Tags) == 0 {
			counts[""]++
		}
		for _, name := range t.Tags {
			counts[name]++
		}
	}

	out := make([]tagCount, 0, len(counts))
	for name, n := range counts {
		color, ok := colors[name]
		if !ok {
			color = string(colorSubtle)
		}
		out = append(out, tagCount{name: name, color: color, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func (r reportsModel) dateRange() (time.Time, time.Time) {
	return reportRange(r.mode, r.now(), r.days, r.weekStart, r.offset)
}

// reportRange returns the UTC window [from, to) shown by the reports view.
func reportRange(mode reportMode, now time.Time, days int, weekStart time.Weekday, offset int) (time.Time, time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch mode {
	case reportWeekly:
		back := (int(today.Weekday()) - int(weekStart) + 7) % 7
		start := today.AddDate(0, 0, -back-7*offset)
		return start, start.AddDate(0, 0, 7)
	default:
		end := today.AddDate(0, 0, 1-days*offset)
		return end.AddDate(0, 0, -days), end
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.days = msg.days
		r.weekStart = msg.weekStart
		r.completions = msg.completions
		r.byTag = msg.byTag
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Filter):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r reportsModel) countOn(date string) int {
	for _, c := range r.completions {
		if c.Date == date {
			return c.Count
		}
	}
	return 0
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()
	label := "Mon 02"
	if r.days > 10 && r.mode == reportDaily {
		label = "02"
	}

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		n := r.countOn(d.Format("2006-01-02"))
		style := lipgloss.NewStyle().Foreground(colorSuccess)
		if n == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: d.Format(label),
			Values: []barchart.BarValue{{
				Name:  "Done",
				Value: float64(n),
				Style: style,
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) total() int {
	n := 0
	for _, c := range r.completions {
		n += c.Count
	}
	return n
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s  (%d done)",
		from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006"), r.total()))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  f: daily/weekly")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTagTable(w), "", r.renderDayTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderDayTable(w int) string {
	if len(r.completions) == 0 {
		return mutedStyle.Render("  Nothing completed in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %8s", "Date", "Done")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 22))))
	for _, c := range r.completions {
		rows = append(rows, fmt.Sprintf("  %-12s %8d", c.Date, c.Count))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderTagTable(w int) string {
	if len(r.byTag) == 0 {
		return ""
	}
	var items []string
	for _, t := range r.byTag {
		name := t.name
		if name == "" {
			name = "untagged"
		}
		items = append(items, fmt.Sprintf("%s %s %d", colorDot(t.color), name, t.count))
	}
	return lipgloss.NewStyle().MaxWidth(max(w-6, 10)).Render("  " + strings.Join(items, "  "))
}
