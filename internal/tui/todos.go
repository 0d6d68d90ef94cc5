package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasklist/internal/importer"
	"github.com/sadopc/tasklist/internal/store"
)

// statusFilters is the cycle of the f key; nil shows every status.
var statusFilters = []*store.Status{nil, ptr(store.StatusTodo), ptr(store.StatusInProgress), ptr(store.StatusDone), ptr(store.StatusCancelled)}

func ptr[T any](v T) *T { return &v }

type todosModel struct {
	store      *store.Store
	parser     *importer.Parser
	reconciler *importer.Reconciler
	width      int
	height     int

	todos     []store.TodoItem
	tagColors map[string]string
	cursor    int
	filterIdx int
	tagFilter string

	detail bool // true = showing the selected todo

	formActive bool
	form       *huh.Form
	formType   string // "line", "edit"
	editingID  int64

	// Form field pointers (survive value copies)
	formLine        *string
	formTitle       *string
	formDescription *string
	formPriority    *store.Priority
	formStatus      *store.Status
	formTags        *string
}

func newTodosModel(s *store.Store, p *importer.Parser) todosModel {
	line, title, desc, tags := "", "", "", ""
	priority, status := store.PriorityMedium, store.StatusTodo
	return todosModel{
		store:           s,
		parser:          p,
		reconciler:      importer.NewReconciler(s),
		formLine:        &line,
		formTitle:       &title,
		formDescription: &desc,
		formPriority:    &priority,
		formStatus:      &status,
		formTags:        &tags,
	}
}

func (m *todosModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type todosDataMsg struct {
	todos     []store.TodoItem
	tagColors map[string]string
}

func (m todosModel) filter() store.TodoFilter {
	return store.TodoFilter{Status: statusFilters[m.filterIdx], Tag: m.tagFilter}
}

func (m todosModel) refresh() tea.Cmd {
	f := m.filter()
	return func() tea.Msg {
		todos, _ := m.store.ListTodos(f)
		if f.Status == nil && !m.store.SettingBool("show_cancelled", true) {
			kept := todos[:0]
			for _, t := range todos {
				if t.Status != store.StatusCancelled {
					kept = append(kept, t)
				}
			}
			todos = kept
		}
		colors := make(map[string]string)
		tags, _ := m.store.ListTags()
		for _, t := range tags {
			colors[t.Name] = t.Color
		}
		return todosDataMsg{todos: todos, tagColors: colors}
	}
}

func (m todosModel) selected() (store.TodoItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.todos) {
		return store.TodoItem{}, false
	}
	return m.todos[m.cursor], true
}

func (m todosModel) update(msg tea.Msg) (todosModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case todosDataMsg:
		m.todos = msg.todos
		m.tagColors = msg.tagColors
		if m.cursor >= len(m.todos) {
			m.cursor = max(0, len(m.todos)-1)
		}
		if len(m.todos) == 0 {
			m.detail = false
		}
		return m, nil

	case tea.KeyMsg:
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m todosModel) updateList(msg tea.KeyMsg) (todosModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.todos)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.todos) > 0 {
			m.detail = true
		}
	case key.Matches(msg, keys.Back):
		if m.tagFilter != "" {
			m.tagFilter = ""
			m.cursor = 0
			return m, m.refresh()
		}
	case key.Matches(msg, keys.Filter):
		m.filterIdx = (m.filterIdx + 1) % len(statusFilters)
		m.cursor = 0
		return m, m.refresh()
	case key.Matches(msg, keys.New):
		return m.showLineForm()
	case key.Matches(msg, keys.Edit):
		if t, ok := m.selected(); ok {
			return m.showEditForm(t)
		}
	case key.Matches(msg, keys.Cycle):
		if t, ok := m.selected(); ok {
			return m, m.setStatus(t.ID, nextStatus(t.Status))
		}
	case key.Matches(msg, keys.Done):
		if t, ok := m.selected(); ok {
			return m, m.setStatus(t.ID, store.StatusDone)
		}
	case key.Matches(msg, keys.Delete):
		if t, ok := m.selected(); ok {
			return m, m.deleteTodo(t)
		}
	}
	return m, nil
}

func (m todosModel) updateDetail(msg tea.KeyMsg) (todosModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Enter):
		m.detail = false
	case key.Matches(msg, keys.Edit):
		if t, ok := m.selected(); ok {
			return m.showEditForm(t)
		}
	case key.Matches(msg, keys.Cycle):
		if t, ok := m.selected(); ok {
			return m, m.setStatus(t.ID, nextStatus(t.Status))
		}
	case key.Matches(msg, keys.Done):
		if t, ok := m.selected(); ok {
			return m, m.setStatus(t.ID, store.StatusDone)
		}
	}
	return m, nil
}

func (m todosModel) setStatus(id int64, status store.Status) tea.Cmd {
	return func() tea.Msg {
		t, err := m.store.UpdateTodoStatus(id, status)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return todoSavedMsg{text: fmt.Sprintf("%q is now %s", t.Title, statusLabels[t.Status])}
	}
}

func (m todosModel) deleteTodo(t store.TodoItem) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.DeleteTodo(t.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return todoSavedMsg{text: fmt.Sprintf("Deleted %q", t.Title)}
	}
}

// todoSavedMsg reports a completed write; the app refreshes every view.
type todoSavedMsg struct {
	text string
}

func (m todosModel) showLineForm() (todosModel, tea.Cmd) {
	*m.formLine = ""
	if m.tagFilter != "" {
		*m.formLine = " #" + m.tagFilter
	}
	m.formType = "line"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				Description("- [ ] title #tag ⏫ ➕ 2025-01-31 ;; note").
				Placeholder("- [ ] call the bank #personal 🔺").
				Value(m.formLine).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("enter a task")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m todosModel) showEditForm(t store.TodoItem) (todosModel, tea.Cmd) {
	*m.formTitle = t.Title
	*m.formDescription = t.Description
	*m.formPriority = t.Priority
	*m.formStatus = t.Status
	*m.formTags = strings.Join(t.Tags, ", ")
	m.formType = "edit"
	m.editingID = t.ID

	statusOptions := make([]huh.Option[store.Status], len(store.Statuses))
	for i, s := range store.Statuses {
		statusOptions[i] = huh.NewOption(statusLabels[s], s)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewText().Title("Note").Value(m.formDescription),
			huh.NewSelect[store.Priority]().Title("Priority").
				Options(
					huh.NewOption("High", store.PriorityHigh),
					huh.NewOption("Medium", store.PriorityMedium),
					huh.NewOption("Low", store.PriorityLow),
				).Value(m.formPriority),
			huh.NewSelect[store.Status]().Title("Status").Options(statusOptions...).Value(m.formStatus),
			huh.NewInput().Title("Tags (comma-separated)").Value(m.formTags),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m todosModel) updateForm(msg tea.Msg) (todosModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		switch m.formType {
		case "line":
			return m, m.createFromLine(*m.formLine)
		case "edit":
			return m, m.saveEdit()
		}
	}

	return m, cmd
}

// createFromLine runs one line through the same parser as an import.
func (m todosModel) createFromLine(line string) tea.Cmd {
	if !strings.HasPrefix(strings.TrimSpace(line), "-") {
		line = "- [ ] " + line
	}
	return func() tea.Msg {
		rec, err := m.parser.ParseLine(line)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Not added: %v", err), isError: true}
		}
		t, err := m.store.CreateTodo(rec.TodoItem())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return todoSavedMsg{text: fmt.Sprintf("Added %q", t.Title)}
	}
}

func (m todosModel) saveEdit() tea.Cmd {
	id := m.editingID
	title := strings.TrimSpace(*m.formTitle)
	desc := *m.formDescription
	priority := *m.formPriority
	status := *m.formStatus
	tags := splitTags(*m.formTags)
	return func() tea.Msg {
		for _, name := range tags {
			if _, err := m.reconciler.Reconcile(name); err != nil {
				return statusMsg{text: fmt.Sprintf("Tag %q: %v", name, err), isError: true}
			}
		}
		if tags == nil {
			tags = []string{}
		}
		if _, err := m.store.UpdateTodo(id, store.TodoPatch{
			Title:       &title,
			Description: &desc,
			Priority:    &priority,
			Tags:        tags,
		}); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		t, err := m.store.UpdateTodoStatus(id, status)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return todoSavedMsg{text: fmt.Sprintf("Saved %q", t.Title)}
	}
}

func (m todosModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Todo")
		if m.formType == "edit" {
			title = titleStyle.Render("Edit Todo")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if m.detail {
		return m.renderDetail(w)
	}
	return m.renderList(w)
}

func (m todosModel) filterLabel() string {
	parts := []string{"all"}
	if s := statusFilters[m.filterIdx]; s != nil {
		parts[0] = statusLabels[*s]
	}
	if m.tagFilter != "" {
		parts = append(parts, "#"+m.tagFilter)
	}
	return strings.Join(parts, " ")
}

func (m todosModel) tagColor(name string) string {
	if c, ok := m.tagColors[name]; ok {
		return c
	}
	return store.DefaultTagColor
}

func (m todosModel) renderList(w int) string {
	title := titleStyle.Render("Todos") + "  " + mutedStyle.Render(m.filterLabel())

	if len(m.todos) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No todos here. Press n to add one."),
			"",
			mutedStyle.Render("  n: new  f: filter  esc: clear tag"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	titleWidth := max(w-44, 16)
	header := mutedStyle.Render(fmt.Sprintf("    %s %s %s", pad("Title", titleWidth+2), pad("Created", 12), "Tags"))
	rows = append(rows, header)

	// Keep the cursor on screen.
	visible := max(m.height-12, 3)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.todos))

	for i := start; i < end; i++ {
		t := m.todos[i]
		cursor := "  "
		style := statusStyle(t.Status)
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		var tags []string
		for _, name := range t.Tags {
			tags = append(tags, colorDot(m.tagColor(name))+tagStyle.Render(name))
		}
		row := fmt.Sprintf("%s%s %s %s %s %s",
			cursor,
			statusIcon(t.Status),
			priorityMark(t.Priority),
			style.Render(pad(truncate(t.Title, titleWidth), titleWidth)),
			mutedStyle.Render(pad(t.CreatedAt.Local().Format("2006-01-02"), 12)),
			strings.Join(tags, " "),
		)
		rows = append(rows, row)
	}
	if len(m.todos) > visible {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(m.todos))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  space: cycle  c: complete  d: delete  f: filter  enter: details"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// detailMarkdown describes a todo as markdown for the detail pane.
func detailMarkdown(t store.TodoItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	fmt.Fprintf(&b, "- **Status:** %s\n", statusLabels[t.Status])
	fmt.Fprintf(&b, "- **Priority:** %s\n", t.Priority)
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "- **Tags:** %s\n", strings.Join(t.Tags, ", "))
	}
	fmt.Fprintf(&b, "- **Created:** %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	if t.CompletedAt != nil {
		fmt.Fprintf(&b, "- **Completed:** %s\n", t.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "- **Updated:** %s\n", t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	for _, p := range t.ImagePaths {
		fmt.Fprintf(&b, "- **Image:** %s\n", p)
	}
	if strings.TrimSpace(t.Description) != "" {
		fmt.Fprintf(&b, "\n---\n\n%s\n", t.Description)
	}
	return b.String()
}

func (m todosModel) renderDetail(w int) string {
	t, ok := m.selected()
	if !ok {
		return panelStyle.Width(w).Render(mutedStyle.Render("Nothing selected"))
	}
	body := renderMarkdown(w-6, detailMarkdown(t))
	hint := mutedStyle.Render("  e: edit  space: cycle  c: complete  esc: back")
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, body, "", hint))
}
