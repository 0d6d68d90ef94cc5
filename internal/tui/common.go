package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	reflowtruncate "github.com/muesli/reflow/truncate"
	"github.com/sadopc/tasklist/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewTodos
	viewTags
	viewReports
	viewSettings
)

var viewNames = []string{"Dashboard", "Todos", "Tags", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// tagSelectedMsg asks the app to show the todos carrying a tag.
type tagSelectedMsg struct {
	name string
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

// --- Helpers ---

var statusIcons = map[store.Status]string{
	store.StatusTodo:       "○",
	store.StatusInProgress: "◐",
	store.StatusDone:       "●",
	store.StatusCancelled:  "⊘",
}

var statusLabels = map[store.Status]string{
	store.StatusTodo:       "Todo",
	store.StatusInProgress: "In progress",
	store.StatusDone:       "Done",
	store.StatusCancelled:  "Cancelled",
}

func statusIcon(s store.Status) string {
	icon, ok := statusIcons[s]
	if !ok {
		icon = "?"
	}
	return statusStyle(s).Render(icon)
}

func statusStyle(s store.Status) lipgloss.Style {
	switch s {
	case store.StatusInProgress:
		return warningStyle
	case store.StatusDone:
		return successStyle
	case store.StatusCancelled:
		return mutedStyle
	}
	return normalItemStyle
}

func priorityMark(p store.Priority) string {
	switch p {
	case store.PriorityHigh:
		return errorStyle.Render("▲")
	case store.PriorityLow:
		return mutedStyle.Render("▼")
	}
	return " "
}

// nextStatus cycles todo -> in progress -> done -> todo. Cancelled items
// reopen as todo.
func nextStatus(s store.Status) store.Status {
	switch s {
	case store.StatusTodo:
		return store.StatusInProgress
	case store.StatusInProgress:
		return store.StatusDone
	}
	return store.StatusTodo
}

func colorDot(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

// truncate shortens s to at most w cells, adding an ellipsis.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= w {
		return s
	}
	return reflowtruncate.StringWithTail(s, uint(w), "…")
}

// pad right-pads s with spaces to w cells; wide runes count double.
func pad(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func formatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.Local().Format("2006-01-02")
}

func splitTags(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		part = strings.TrimPrefix(strings.TrimSpace(part), "#")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
